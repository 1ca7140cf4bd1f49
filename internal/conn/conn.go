// Package conn implements the per-connection state machine and bounded
// registry from spec §4.2-§4.3 (C6, C7). State naming follows the
// teacher's ConnState enum (types_server.go: StateNew/StateActive/
// StateIdle/StateClosed), reinterpreted for the reactor's read/write
// phases instead of net/http's handler-goroutine model.
package conn

import (
	"time"

	"github.com/mohalnassery/localhost/internal/httpmsg"
	"github.com/mohalnassery/localhost/internal/ringbuf"
)

// State is the connection's position in spec §4.2's state machine.
type State int

const (
	// StateReading is set while the registry still expects more bytes of
	// a request (interest registered for EPOLLIN).
	StateReading State = iota
	// StateWriting is set once a full request has been parsed and the
	// response is queued (interest registered for EPOLLOUT).
	StateWriting
	// StateKeepAlive is set after a response has fully drained on a
	// keep-alive connection, awaiting the next pipelined request.
	StateKeepAlive
	// StateClosed is terminal; the registry removes the connection and
	// deregisters its fd from the reactor.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateWriting:
		return "writing"
	case StateKeepAlive:
		return "keep-alive"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// HeaderOverhead is added on top of a connection's read-buffer ceiling to
// leave room for the request line and headers preceding the body, so a
// legitimately small body with a verbose header block isn't rejected by
// the same bound meant to stop an oversized declared Content-Length.
const HeaderOverhead = 16 * 1024

// Connection holds per-fd state: its buffers, resumable parser, and
// bookkeeping the timeout sweep and dispatcher need.
type Connection struct {
	FD           int
	State        State
	ReadBuf      *ringbuf.Buffer
	WriteBuf     *ringbuf.Buffer
	Parser       *httpmsg.Parser
	LastActivity time.Time
	KeepAlive    bool
	RequestCount int
	RemoteAddr   string
	LocalPort    int
}

// New constructs a Connection freshly accepted on fd, per spec §4.2's
// initial state. maxBodySize bounds ReadBuf (plus HeaderOverhead) so an
// attacker-declared Content-Length can't force unbounded buffering before
// internal/dispatch ever gets to apply its own, route-specific 413 check —
// pass the most permissive max_body_size configured across all bindings,
// since the binding a given connection will serve isn't known until its
// Host header is parsed.
func New(fd int, remoteAddr string, localPort int, now time.Time, maxBodySize int64) *Connection {
	return &Connection{
		FD:           fd,
		State:        StateReading,
		ReadBuf:      ringbuf.NewBounded(int(maxBodySize) + HeaderOverhead),
		WriteBuf:     ringbuf.New(),
		Parser:       httpmsg.NewParser(),
		LastActivity: now,
		KeepAlive:    true,
		RemoteAddr:   remoteAddr,
		LocalPort:    localPort,
	}
}

// Touch records activity against the idle/keep-alive timeout sweep.
func (c *Connection) Touch(now time.Time) {
	c.LastActivity = now
}

// BeginKeepAlive resets the connection for the next pipelined request
// on the same fd, per spec §4.2's Writing -> KeepAlive transition.
func (c *Connection) BeginKeepAlive(now time.Time) {
	c.State = StateKeepAlive
	c.Parser.Reset()
	c.RequestCount++
	c.LastActivity = now
}
