package http_test

import (
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hsgames/knot/net/http"
	"github.com/hsgames/knot/net/tcp"
)

func listenServer(t *testing.T, s *http.Server) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	r := tcp.NewRegistry()
	if _, err := r.Listen("127.0.0.1", port, s, 16); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.ShutdownAll() })

	return port
}

func TestServerHandlesRequest(t *testing.T) {
	order := make(chan string, 2)
	mark := func(name string) http.Middleware {
		return func(h http.Handler) http.Handler {
			return func(conn *tcp.Conn, req *http.Request) {
				order <- name
				h(conn, req)
			}
		}
	}

	s, err := http.NewServer(func(conn *tcp.Conn, req *http.Request) {
		conn.Send([]byte(req.Method+" "+req.Target+" "+string(req.Body)), time.Second)
	}, http.WithMiddleware(mark("a"), mark("b")), http.WithTimeout(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	port := listenServer(t, s)

	c := dial(t, port)
	c.Send([]byte("POST /echo HTTP/1.1\r\nContent-Length: 2\r\n\r\nhi"), time.Second)

	got, err := c.Receive(5 * time.Second)
	if err != nil || string(got) != "POST /echo hi" {
		t.Fatalf("response %q err %v", got, err)
	}
	if seq := []string{<-order, <-order}; strings.Join(seq, ",") != "a,b" {
		t.Fatalf("middleware order %v", seq)
	}
}

func TestServerRecoversPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var calls atomic.Int32
	s, err := http.NewServer(func(conn *tcp.Conn, req *http.Request) {
		if calls.Add(1) == 1 {
			panic("handler failure")
		}
		conn.Send([]byte("ok"), time.Second)
	}, http.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	port := listenServer(t, s)

	for i, want := range []string{"", "ok"} {
		c := dial(t, port)
		c.Send([]byte("GET / HTTP/1.1\r\n\r\n"), time.Second)
		got, err := c.Receive(5 * time.Second)
		if err != nil || string(got) != want {
			t.Fatalf("request %d: %q err %v", i, got, err)
		}
	}
}

func TestServerDropsDisallowedMethod(t *testing.T) {
	var called atomic.Bool
	s, err := http.NewServer(func(conn *tcp.Conn, req *http.Request) {
		called.Store(true)
	}, http.WithAllowedMethods(http.MethodGet))
	if err != nil {
		t.Fatal(err)
	}
	port := listenServer(t, s)

	c := dial(t, port)
	c.Send([]byte("POST / HTTP/1.1\r\n\r\n"), time.Second)
	if got, err := c.Receive(5 * time.Second); err != nil || len(got) != 0 {
		t.Fatalf("response %q err %v", got, err)
	}
	if called.Load() {
		t.Fatal("handler called for disallowed method")
	}
}

func TestServerDropsOversizedRequest(t *testing.T) {
	var called atomic.Bool
	s, err := http.NewServer(func(conn *tcp.Conn, req *http.Request) {
		called.Store(true)
	}, http.WithMaxHeadSize(64), http.WithMaxBodySize(4))
	if err != nil {
		t.Fatal(err)
	}
	port := listenServer(t, s)

	for _, req := range []string{
		"GET / HTTP/1.1\r\nX-Pad: " + strings.Repeat("p", 100) + "\r\n\r\n",
		"POST / HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello",
	} {
		c := dial(t, port)
		c.Send([]byte(req), time.Second)
		if got, _ := c.Receive(5 * time.Second); len(got) != 0 {
			t.Fatalf("response %q", got)
		}
	}
	if called.Load() {
		t.Fatal("handler called for oversized request")
	}
}

func TestServerPartialRequests(t *testing.T) {
	partial := make(chan *http.Request, 1)
	s, err := http.NewServer(func(conn *tcp.Conn, req *http.Request) {
		partial <- req
	}, http.WithPartialRequests())
	if err != nil {
		t.Fatal(err)
	}
	port := listenServer(t, s)

	c := dial(t, port)
	c.Send([]byte("GET /half HTTP/1.1\r\nHost: x\r\n"), time.Second)
	c.CloseWrite()

	select {
	case req := <-partial:
		if !req.PeerClosed || req.Target != "/half" {
			t.Fatalf("partial %+v", req)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("partial request not delivered")
	}
}

func TestNewServerRejectsOptions(t *testing.T) {
	if _, err := http.NewServer(nil); err == nil {
		t.Fatal("nil handler accepted")
	}
	if _, err := http.NewServer(func(*tcp.Conn, *http.Request) {}, http.WithMaxBodySize(-1)); err == nil {
		t.Fatal("negative max body size accepted")
	}
	if _, err := http.NewServer(func(*tcp.Conn, *http.Request) {}, http.WithAllowedMethods(0)); err == nil {
		t.Fatal("empty method mask accepted")
	}
}
