//go:build linux

package tcp

import (
	"net"
	"strconv"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestAcceptErrorKeepsListenerRunning(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	r := NewRegistry()
	lid, err := r.Listen("127.0.0.1", port, HandlerFunc(func(_ *Listener, c *Conn, _, _ string) {
		c.Disconnect()
	}), 16)
	if err != nil {
		t.Fatal(err)
	}
	l, _ := r.Lookup(lid)

	// SHUT_RD on a listening socket makes every accept fail with EINVAL
	rc, err := l.ln.SyscallConn()
	if err != nil {
		t.Fatal(err)
	}
	var serr error
	if err := rc.Control(func(fd uintptr) { serr = unix.Shutdown(int(fd), unix.SHUT_RD) }); err != nil || serr != nil {
		t.Fatalf("shutdown read side: %v %v", err, serr)
	}

	select {
	case <-l.Done():
		t.Fatal("accept goroutine exited on accept error")
	case <-time.After(100 * time.Millisecond):
	}
	if r.Len() != 1 {
		t.Fatalf("registry holds %d listeners", r.Len())
	}

	start := time.Now()
	if err := r.Shutdown(lid); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("shutdown took %s", elapsed)
	}
	if r.Len() != 0 {
		t.Fatalf("registry holds %d listeners after shutdown", r.Len())
	}
}
