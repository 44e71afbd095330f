//go:build unix

package tcp

import (
	"errors"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// peek reports whether the peer is still there. The socket is already in
// non-blocking mode, so an empty receive queue shows up as EAGAIN.
func peek(conn *net.TCPConn) bool {
	rc, err := conn.SyscallConn()
	if err != nil {
		return false
	}

	// An expired read deadline would fail rc.Read before the callback runs.
	if err = conn.SetReadDeadline(time.Time{}); err != nil {
		return false
	}

	var alive bool
	err = rc.Read(func(fd uintptr) bool {
		var b [1]byte
		n, _, err := unix.Recvfrom(int(fd), b[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK), errors.Is(err, unix.EINTR):
			alive = true
		case err != nil:
			alive = false
		default:
			alive = n > 0
		}
		return true
	})

	return err == nil && alive
}
