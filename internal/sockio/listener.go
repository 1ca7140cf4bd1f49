// Package sockio creates and drains the non-blocking listening sockets
// from spec §4.1 (C2). Grounded on docker-compose's reuseport pattern
// (SO_REUSEADDR before bind) and badu-http's tcp_keep_alive_listener.go
// for the shape of a thin net.Listener-adjacent wrapper, reworked onto
// raw golang.org/x/sys/unix sockets since net.Listener hides the fd the
// reactor needs to register directly.
package sockio

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Listener is one non-blocking, listening IPv4 TCP socket bound to a
// single (host, port) pair, per spec §4.1 ("the server listens on every
// configured host:port pair").
type Listener struct {
	FD   int
	Host string
	Port int
}

// Listen creates, binds, and begins listening on host:port. The socket is
// non-blocking (spec §4.1: the reactor never makes a blocking syscall)
// and SO_REUSEADDR is set so a restarted server can rebind immediately.
func Listen(host string, port int) (*Listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	addr, err := resolveIPv4(host)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	sa := &unix.SockaddrInet4{Port: port, Addr: addr}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s:%d: %w", host, port, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen %s:%d: %w", host, port, err)
	}

	return &Listener{FD: fd, Host: host, Port: port}, nil
}

func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	if host == "" || host == "0.0.0.0" {
		return out, nil
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return out, fmt.Errorf("cannot resolve host %q", host)
		}
		ip = ips[0]
	}
	v4 := ip.To4()
	if v4 == nil {
		return out, fmt.Errorf("host %q is not an IPv4 address", host)
	}
	copy(out[:], v4)
	return out, nil
}

// Close closes the listening socket.
func (l *Listener) Close() error {
	return unix.Close(l.FD)
}

// Accepted is one client connection drained off a listening socket.
type Accepted struct {
	FD         int
	RemoteAddr string
}

// AcceptAll drains every pending connection from l's accept queue,
// stopping at EAGAIN/EWOULDBLOCK (accept until the queue is empty, not
// just once per readiness event). Each accepted fd is itself non-blocking and close-on-exec, so
// CGI child processes (spec §4.4) never inherit a listening or peer
// socket.
func AcceptAll(l *Listener) ([]Accepted, error) {
	var out []Accepted
	for {
		fd, sa, err := unix.Accept4(l.FD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return out, nil
			}
			if err == unix.EINTR {
				continue
			}
			return out, fmt.Errorf("accept on %s:%d: %w", l.Host, l.Port, err)
		}
		out = append(out, Accepted{FD: fd, RemoteAddr: formatSockaddr(sa)})
	}
}

func formatSockaddr(sa unix.Sockaddr) string {
	if v4, ok := sa.(*unix.SockaddrInet4); ok {
		ip := net.IPv4(v4.Addr[0], v4.Addr[1], v4.Addr[2], v4.Addr[3])
		return fmt.Sprintf("%s:%d", ip.String(), v4.Port)
	}
	return "unknown"
}
