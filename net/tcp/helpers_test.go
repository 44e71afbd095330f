package tcp_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/hsgames/knot/net/tcp"
)

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("free port: %v", err)
	}
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()
	return port
}

func listen(t *testing.T, r *tcp.Registry, h tcp.Handler, opt ...tcp.ListenOption) (tcp.ListenerID, string) {
	t.Helper()
	port := freePort(t)
	lid, err := r.Listen("127.0.0.1", port, h, 128, opt...)
	if err != nil {
		t.Fatalf("listen %s: %v", port, err)
	}
	t.Cleanup(func() { r.ShutdownAll() })
	return lid, port
}

func connect(t *testing.T, port string) *tcp.Conn {
	t.Helper()
	c, err := tcp.Connect(context.Background(), "127.0.0.1", port, 5*time.Second)
	if err != nil {
		t.Fatalf("connect %s: %v", port, err)
	}
	t.Cleanup(func() { c.Disconnect() })
	return c
}

// echo reads until the client half-closes, then writes everything back.
var echo = tcp.HandlerFunc(func(_ *tcp.Listener, c *tcp.Conn, _, _ string) {
	defer c.Disconnect()
	data, err := c.Receive(5 * time.Second)
	if err != nil {
		return
	}
	c.Send(data, 5*time.Second)
})
