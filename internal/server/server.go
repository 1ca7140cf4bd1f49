// Package server wires the reactor (C1), listening sockets (C2), the
// connection registry (C6/C7), the parser/encoder (C4/C5), and the
// dispatcher (C8-C12) into the single-threaded event loop from spec
// §4.1-§4.3. Grounded on original_source/src/server/core.rs's
// Server::run/event_loop/handle_event shape (accept-loop, handle_read,
// handle_write, timeout sweep each iteration), expressed the way
// badu-http's response_server.go structures a long-running Serve loop.
package server

import (
	"sync/atomic"
	"time"

	"github.com/mohalnassery/localhost/internal/config"
	"github.com/mohalnassery/localhost/internal/conn"
	"github.com/mohalnassery/localhost/internal/dispatch"
	"github.com/mohalnassery/localhost/internal/httpmsg"
	"github.com/mohalnassery/localhost/internal/reactor"
	"github.com/mohalnassery/localhost/internal/ringbuf"
	"github.com/mohalnassery/localhost/internal/sockio"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const waitTimeout = 1 * time.Second

// Server owns the reactor, the set of listening sockets, the connection
// registry, and the dispatcher, per spec §4.1.
type Server struct {
	reactor     *reactor.Reactor
	listeners   map[int]*sockio.Listener
	registry    *conn.Registry
	dispatcher  *dispatch.Dispatcher
	maxBodySize int64
	log         *logrus.Logger
	running     atomic.Bool
}

// New builds a Server listening on every (host, port) pair in listeners,
// dispatching through d.
func New(listeners []*sockio.Listener, d *dispatch.Dispatcher, maxConnections int, idleTimeout, keepAliveTimeout time.Duration, log *logrus.Logger) (*Server, error) {
	r, err := reactor.New(256)
	if err != nil {
		return nil, err
	}
	byFD := make(map[int]*sockio.Listener, len(listeners))
	for _, l := range listeners {
		if err := r.Register(l.FD, reactor.Readable); err != nil {
			return nil, err
		}
		byFD[l.FD] = l
	}
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		reactor:     r,
		listeners:   byFD,
		registry:    conn.NewRegistry(maxConnections, idleTimeout, keepAliveTimeout),
		dispatcher:  d,
		maxBodySize: maxMaxBodySize(d),
		log:         log,
	}, nil
}

// maxMaxBodySize returns the most permissive max_body_size configured
// across every binding d's router knows about, falling back to the config
// package default when none are configured. A connection's read buffer is
// bounded by this value (see conn.New) since the binding it will end up
// serving isn't known until its Host header is parsed — the dispatcher
// still applies the exact, possibly smaller, per-binding limit afterward.
func maxMaxBodySize(d *dispatch.Dispatcher) int64 {
	max := int64(config.DefaultMaxBodySize)
	if d == nil || d.Router == nil {
		return max
	}
	for _, b := range d.Router.Bindings() {
		if b.MaxBodySize > max {
			max = b.MaxBodySize
		}
	}
	return max
}

// Run enters the event loop, blocking until Stop is called or a fatal
// reactor error occurs.
func (s *Server) Run() error {
	s.running.Store(true)
	for s.running.Load() {
		events, err := s.reactor.Wait(waitTimeout)
		if err != nil {
			return err
		}

		s.sweepTimeouts()

		for _, ev := range events {
			s.handleEvent(ev)
		}
	}
	return nil
}

// Stop breaks the event loop after the current iteration.
func (s *Server) Stop() { s.running.Store(false) }

func (s *Server) handleEvent(ev reactor.Event) {
	if ev.Error || ev.Hangup {
		s.closeConn(ev.FD)
		return
	}
	if l, ok := s.listeners[ev.FD]; ok {
		if ev.Readable {
			s.acceptAll(l)
		}
		return
	}
	if ev.Readable {
		s.handleRead(ev.FD)
	}
	if ev.Writable {
		s.handleWrite(ev.FD)
	}
}

func (s *Server) acceptAll(l *sockio.Listener) {
	accepted, err := sockio.AcceptAll(l)
	if err != nil {
		s.log.WithError(err).Warn("accept failed")
		return
	}
	now := time.Now()
	for _, a := range accepted {
		c := conn.New(a.FD, a.RemoteAddr, l.Port, now, s.maxBodySize)
		if !s.registry.Add(c) {
			unix.Close(a.FD)
			continue
		}
		if err := s.reactor.Register(a.FD, reactor.Readable); err != nil {
			s.log.WithError(err).Warn("failed to register accepted fd")
			s.registry.Remove(a.FD)
			unix.Close(a.FD)
		}
	}
}

func (s *Server) handleRead(fd int) {
	c, ok := s.registry.Get(fd)
	if !ok {
		return
	}
	c.Touch(time.Now())
	c.State = conn.StateReading

	n, err := c.ReadBuf.ReadFrom(fdReader{fd})
	if err == errWouldBlock {
		return
	}
	if err == ringbuf.ErrOversize {
		s.writeErrorAndClose(c, httpmsg.StatusRequestEntityTooLarge)
		return
	}
	if err != nil || n == 0 {
		s.closeConn(fd)
		return
	}

	s.tryParse(c)
}

// tryParse parses one request out of c's read buffer and dispatches it.
// Called both on a fresh read and, for pipelined keep-alive connections,
// on the Writing -> Readable transition: a client may have sent a second
// request in the same packet as the first, in which case the bytes are
// already sitting in ReadBuf and no further epoll readability edge will
// ever arrive to prompt another handleRead.
func (s *Server) tryParse(c *conn.Connection) {
	req, consumed, err := c.Parser.Parse(c.ReadBuf.Readable())
	if consumed > 0 {
		c.ReadBuf.Consume(consumed)
	}
	if err != nil {
		s.writeErrorAndClose(c, httpmsg.StatusBadRequest)
		return
	}
	if req == nil {
		return // more data needed
	}

	s.respond(c, req)
}

func (s *Server) respond(c *conn.Connection, req *httpmsg.Request) {
	host, _ := req.HeaderGet("host")
	keepAlive := req.KeepAlive()
	resp := s.dispatcher.Dispatch(req, host, keepAlive)

	c.KeepAlive = keepAlive
	c.WriteBuf.Append(resp.Encode())
	c.State = conn.StateWriting
	if err := s.reactor.Modify(c.FD, reactor.Writable); err != nil {
		s.log.WithError(err).Warn("failed to switch fd to writable")
		s.closeConn(c.FD)
	}
}

func (s *Server) writeErrorAndClose(c *conn.Connection, status httpmsg.Status) {
	resp := httpmsg.NewResponse(status, httpmsg.HTTP11)
	resp.Finalize(false)
	c.KeepAlive = false
	c.WriteBuf.Append(resp.Encode())
	c.State = conn.StateWriting
	if err := s.reactor.Modify(c.FD, reactor.Writable); err != nil {
		s.closeConn(c.FD)
	}
}

func (s *Server) handleWrite(fd int) {
	c, ok := s.registry.Get(fd)
	if !ok {
		return
	}
	c.Touch(time.Now())

	if _, err := c.WriteBuf.WriteTo(fdWriter{fd}); err != nil {
		if err == errWouldBlock {
			return
		}
		s.closeConn(fd)
		return
	}
	if !c.WriteBuf.IsEmpty() {
		return
	}

	if c.KeepAlive {
		c.BeginKeepAlive(time.Now())
		if err := s.reactor.Modify(fd, reactor.Readable); err != nil {
			s.closeConn(fd)
			return
		}
		if c.ReadBuf.Len() > 0 {
			c.State = conn.StateReading
			s.tryParse(c)
		}
		return
	}
	s.closeConn(fd)
}

func (s *Server) sweepTimeouts() {
	for _, fd := range s.registry.SweepTimeouts(time.Now()) {
		s.closeConn(fd)
	}
}

func (s *Server) closeConn(fd int) {
	s.reactor.Deregister(fd)
	s.registry.Remove(fd)
	unix.Close(fd)
}

// Close tears down the reactor and every listening socket.
func (s *Server) Close() error {
	for _, l := range s.listeners {
		l.Close()
	}
	return s.reactor.Close()
}

// errWouldBlock distinguishes "no data available right now" from a real
// EOF: unix.Read returns (0, nil) for an orderly client close, but (0,
// EAGAIN) when a non-blocking socket simply has nothing pending. The two
// must not be conflated or a readable connection would be torn down on
// every spurious wakeup.
var errWouldBlock = &wouldBlockError{}

type wouldBlockError struct{}

func (*wouldBlockError) Error() string { return "would block" }

type fdReader struct{ fd int }

func (r fdReader) Read(p []byte) (int, error) {
	n, err := unix.Read(r.fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, errWouldBlock
		}
		return 0, err
	}
	return n, nil
}

type fdWriter struct{ fd int }

func (w fdWriter) Write(p []byte) (int, error) {
	n, err := unix.Write(w.fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, errWouldBlock
		}
		return 0, err
	}
	return n, nil
}
