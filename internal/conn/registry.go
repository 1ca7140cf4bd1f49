package conn

import "time"

// Default bounds from spec §4.3.
const (
	DefaultMaxConnections   = 1000
	DefaultIdleTimeout      = 30 * time.Second
	DefaultKeepAliveTimeout = 60 * time.Second
)

// Registry tracks every live Connection by fd. It is never accessed
// concurrently: the reactor's event loop is single-threaded (spec §4.1),
// so no mutex guards these maps, unlike the teacher's conn.go (which
// holds a sync.Mutex per-connection for its goroutine-per-connection
// model).
type Registry struct {
	conns            map[int]*Connection
	maxConnections   int
	idleTimeout      time.Duration
	keepAliveTimeout time.Duration
	rejected         int
}

// NewRegistry builds an empty Registry bounded at maxConnections, with
// the given idle and keep-alive timeouts (zero values fall back to the
// spec §4.3 defaults).
func NewRegistry(maxConnections int, idleTimeout, keepAliveTimeout time.Duration) *Registry {
	if maxConnections <= 0 {
		maxConnections = DefaultMaxConnections
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if keepAliveTimeout <= 0 {
		keepAliveTimeout = DefaultKeepAliveTimeout
	}
	return &Registry{
		conns:            make(map[int]*Connection),
		maxConnections:   maxConnections,
		idleTimeout:      idleTimeout,
		keepAliveTimeout: keepAliveTimeout,
	}
}

// Len reports the number of currently tracked connections.
func (r *Registry) Len() int { return len(r.conns) }

// Rejected reports how many accepts were refused for being over capacity.
func (r *Registry) Rejected() int { return r.rejected }

// AtCapacity reports whether accepting one more connection would exceed
// maxConnections, per spec §4.3's registry capacity bound.
func (r *Registry) AtCapacity() bool {
	return len(r.conns) >= r.maxConnections
}

// Add registers c, or reports false and increments the rejection counter
// if the registry is already at capacity.
func (r *Registry) Add(c *Connection) bool {
	if r.AtCapacity() {
		r.rejected++
		return false
	}
	r.conns[c.FD] = c
	return true
}

// Get looks up the Connection for fd.
func (r *Registry) Get(fd int) (*Connection, bool) {
	c, ok := r.conns[fd]
	return c, ok
}

// Remove drops fd from the registry; the caller is responsible for
// closing the fd and deregistering it from the reactor.
func (r *Registry) Remove(fd int) {
	delete(r.conns, fd)
}

// All returns every tracked connection, used by the timeout sweep.
func (r *Registry) All() []*Connection {
	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// SweepTimeouts returns the fds of connections that have exceeded their
// state's timeout (idle timeout while Reading or Writing, keep-alive
// timeout while KeepAlive), per spec §4.3. Writing shares the idle bound
// rather than going unbounded: a peer that stops draining its receive
// buffer would otherwise occupy a registry slot forever, since WriteTo
// just keeps reporting EWOULDBLOCK. It does not remove expired
// connections; the caller closes and removes each fd itself so the
// reactor stays in sync.
func (r *Registry) SweepTimeouts(now time.Time) []int {
	var expired []int
	for fd, c := range r.conns {
		var limit time.Duration
		switch c.State {
		case StateReading, StateWriting:
			limit = r.idleTimeout
		case StateKeepAlive:
			limit = r.keepAliveTimeout
		default:
			continue
		}
		if now.Sub(c.LastActivity) >= limit {
			expired = append(expired, fd)
		}
	}
	return expired
}
