// Package reactor wraps Linux epoll for the single-threaded event loop
// from spec §4.1 (C1). Shaped after docker-compose's monitor_linux.go
// (EpollCreate1/EpollCtl/EpollWait with a fixed-size event batch), ported
// from the deprecated syscall epoll* wrappers that package uses to
// golang.org/x/sys/unix, the actively maintained module the rest of the
// pack (e.g. caddy's reuseport listeners) already depends on.
package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// Interest is a bitmask of the readiness events a registered fd cares
// about, matching spec §4.1's Readable/Writable/Error/Hangup vocabulary.
type Interest uint32

const (
	Readable Interest = unix.EPOLLIN
	Writable Interest = unix.EPOLLOUT
	Error    Interest = unix.EPOLLERR
	Hangup   Interest = unix.EPOLLHUP
)

// Event reports one fd's readiness, already classified into the four
// spec categories.
type Event struct {
	FD       int
	Readable bool
	Writable bool
	Error    bool
	Hangup   bool
}

// Reactor owns one epoll instance for the whole server, per spec §4.1:
// a single fd set, waited on from one goroutine.
type Reactor struct {
	epollFD int
	events  []unix.EpollEvent
}

// New creates a Reactor with room for maxEvents per Wait call.
func New(maxEvents int) (*Reactor, error) {
	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	if maxEvents <= 0 {
		maxEvents = 256
	}
	return &Reactor{epollFD: fd, events: make([]unix.EpollEvent, maxEvents)}, nil
}

// Register adds fd to the interest set.
func (r *Reactor) Register(fd int, interest Interest) error {
	ev := unix.EpollEvent{Fd: int32(fd), Events: uint32(interest)}
	return unix.EpollCtl(r.epollFD, unix.EPOLL_CTL_ADD, fd, &ev)
}

// Modify changes fd's interest set, used when a connection flips between
// Reading (EPOLLIN) and Writing (EPOLLOUT).
func (r *Reactor) Modify(fd int, interest Interest) error {
	ev := unix.EpollEvent{Fd: int32(fd), Events: uint32(interest)}
	return unix.EpollCtl(r.epollFD, unix.EPOLL_CTL_MOD, fd, &ev)
}

// Deregister removes fd from the interest set. Safe to call even if fd
// was already closed; EBADF is swallowed since the fd is gone either way.
func (r *Reactor) Deregister(fd int) error {
	err := unix.EpollCtl(r.epollFD, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.EBADF {
		return nil
	}
	return err
}

// Wait blocks up to timeout for readiness events, returning the classified
// batch. A signal-interrupted wait (EINTR) returns a nil, empty slice
// rather than an error, per spec §4.1's retry-on-EINTR requirement.
func (r *Reactor) Wait(timeout time.Duration) ([]Event, error) {
	ms := int(timeout / time.Millisecond)
	n, err := unix.EpollWait(r.epollFD, r.events, ms)
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		raw := r.events[i].Events
		out = append(out, Event{
			FD:       int(r.events[i].Fd),
			Readable: raw&uint32(Readable) != 0,
			Writable: raw&uint32(Writable) != 0,
			Error:    raw&uint32(Error) != 0,
			Hangup:   raw&uint32(Hangup) != 0,
		})
	}
	return out, nil
}

// Close releases the epoll fd.
func (r *Reactor) Close() error {
	return unix.Close(r.epollFD)
}
