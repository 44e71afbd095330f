package ws_test

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hsgames/knot/net/http"
	"github.com/hsgames/knot/net/tcp"
	"github.com/hsgames/knot/net/ws"
)

// echoServer upgrades every request and echoes messages until the client
// goes away.
func echoServer(t *testing.T, opt ...ws.Option) (string, <-chan error) {
	t.Helper()

	upgradeErrs := make(chan error, 4)
	s, err := http.NewServer(func(conn *tcp.Conn, req *http.Request) {
		c, err := ws.Upgrade(conn, req, opt...)
		upgradeErrs <- err
		if err != nil {
			return
		}
		defer c.Close()
		for {
			data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := c.WriteMessage(data); err != nil {
				return
			}
		}
	}, http.WithAllowedMethods(http.MethodAll))
	if err != nil {
		t.Fatal(err)
	}

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

	return port, upgradeErrs
}

func TestUpgradeEcho(t *testing.T) {
	port, upgradeErrs := echoServer(t, ws.WithMsgType(ws.TextMessage))

	client, err := ws.NewClient("echo", "ws://127.0.0.1:"+port+"/echo",
		ws.WithMsgType(ws.TextMessage), ws.WithReadTimeout(5*time.Second))
	if err != nil {
		t.Fatal(err)
	}

	c, err := client.Dial(context.Background())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := <-upgradeErrs; err != nil {
		t.Fatalf("upgrade: %v", err)
	}

	for _, msg := range []string{"hello", strings.Repeat("x", 10000)} {
		if err := c.WriteMessage([]byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
		got, err := c.ReadMessage()
		if err != nil || string(got) != msg {
			t.Fatalf("read %d bytes, %v", len(got), err)
		}
	}

	if want := uint64(5 + 10000); c.ReadBytes() != want || c.WriteBytes() != want {
		t.Fatalf("counters read %d write %d", c.ReadBytes(), c.WriteBytes())
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil || !c.IsClosed() {
		t.Fatalf("second close: %v", err)
	}
}

func TestUpgradeRejectsMessageType(t *testing.T) {
	port, _ := echoServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:"+port+"/", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// the server only reads binary messages and drops the conn otherwise
	conn.WriteMessage(websocket.TextMessage, []byte("text"))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the server to close the connection")
	}
}

func TestUpgradeRejectsPlainRequest(t *testing.T) {
	port, upgradeErrs := echoServer(t)

	c, err := tcp.Connect(context.Background(), "127.0.0.1", port, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Disconnect()

	c.Send([]byte("GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"), time.Second)

	if err := <-upgradeErrs; err == nil {
		t.Fatal("plain request upgraded")
	}

	// rejected without an HTTP error body
	got, err := c.Receive(5 * time.Second)
	if err != nil || len(got) != 0 {
		t.Fatalf("response %q err %v", got, err)
	}
}

func TestUpgradeRejectsCrossOrigin(t *testing.T) {
	port, upgradeErrs := echoServer(t)

	header := map[string][]string{"Origin": {"http://elsewhere.example"}}
	if _, _, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:"+port+"/", header); err == nil {
		t.Fatal("cross origin upgrade accepted")
	}
	if err := <-upgradeErrs; err == nil {
		t.Fatal("upgrade succeeded")
	}
}

func TestUpgradeAllowsCrossOrigin(t *testing.T) {
	port, upgradeErrs := echoServer(t, ws.WithCheckOrigin(false))

	header := map[string][]string{"Origin": {"http://elsewhere.example"}}
	conn, _, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:"+port+"/", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	if err := <-upgradeErrs; err != nil {
		t.Fatalf("upgrade: %v", err)
	}
}

func TestOptionsCheck(t *testing.T) {
	if _, err := ws.NewClient("bad", "ws://127.0.0.1:1/", ws.WithMsgType(9)); err == nil {
		t.Fatal("bad message type accepted")
	}
	if _, err := ws.NewClient("bad", "ws://127.0.0.1:1/", ws.WithMaxReadMsgSize(0)); err == nil {
		t.Fatal("zero read size accepted")
	}
}
