package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestRegisterWaitModifyDeregister(t *testing.T) {
	r, err := New(16)
	if err != nil {
		t.Skipf("epoll unavailable in this sandbox: %v", err)
	}
	defer r.Close()

	fds, err := unixSocketpair()
	if err != nil {
		t.Skipf("socketpair unavailable in this sandbox: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	require.NoError(t, r.Register(fds[0], Readable))

	_, err = unix.Write(fds[1], []byte("hi"))
	require.NoError(t, err)

	events, err := r.Wait(time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, fds[0], events[0].FD)
	require.True(t, events[0].Readable)

	require.NoError(t, r.Modify(fds[0], Writable))
	require.NoError(t, r.Deregister(fds[0]))
}

func unixSocketpair() ([2]int, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return [2]int{}, err
	}
	return [2]int{fds[0], fds[1]}, nil
}
