package sockio

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestListenAndAccept(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Skipf("raw socket syscalls unavailable in this sandbox: %v", err)
	}
	defer l.Close()

	sa, err := unix.Getsockname(l.FD)
	require.NoError(t, err)
	v4, ok := sa.(*unix.SockaddrInet4)
	require.True(t, ok)

	addr := net.TCPAddr{IP: net.IPv4(v4.Addr[0], v4.Addr[1], v4.Addr[2], v4.Addr[3]), Port: v4.Port}

	dialer := net.Dialer{}
	conn, err := dialer.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	accepted, err := AcceptAll(l)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	unix.Close(accepted[0].FD)
}
