package ws

import (
	"bufio"
	"net"
	stdhttp "net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/hsgames/knot/net/http"
	"github.com/hsgames/knot/net/tcp"
)

// Upgrade performs the websocket handshake for a request received on conn.
// On failure conn is disconnected and no HTTP error response is written;
// the error carries the reason.
func Upgrade(conn *tcp.Conn, req *http.Request, opt ...Option) (*Conn, error) {
	opts := defaultOptions()
	for _, o := range opt {
		o(&opts)
	}

	if err := opts.check(); err != nil {
		conn.Disconnect()
		return nil, err
	}

	if len(req.Rest) > 0 {
		conn.Disconnect()
		return nil, errors.Errorf("ws: upgrade %s client sent %d bytes before handshake",
			conn, len(req.Rest))
	}

	r, err := stdRequest(conn, req)
	if err != nil {
		conn.Disconnect()
		return nil, err
	}

	w := &hijackWriter{
		conn:   conn.NetConn(),
		header: make(stdhttp.Header),
	}

	u := &websocket.Upgrader{
		HandshakeTimeout: opts.handshakeTimeout,
		ReadBufferSize:   opts.readBufferSize,
		WriteBufferSize:  opts.writeBufferSize,
		Subprotocols:     opts.subprotocols,
		Error: func(_ stdhttp.ResponseWriter, _ *stdhttp.Request, status int, _ error) {
			w.status = status
		},
	}
	if !opts.checkOrigin {
		u.CheckOrigin = func(*stdhttp.Request) bool { return true }
	}

	wc, err := u.Upgrade(w, r, nil)
	if err != nil {
		conn.Disconnect()
		return nil, errors.Wrapf(err, "ws: upgrade %s status %d", conn, w.status)
	}

	return newConn(wc, conn, opts.connOptions), nil
}

func stdRequest(conn *tcp.Conn, req *http.Request) (*stdhttp.Request, error) {
	u, err := url.ParseRequestURI(req.Target)
	if err != nil {
		return nil, errors.Wrapf(err, "ws: upgrade %s target [%s]", conn, req.Target)
	}

	header := make(stdhttp.Header, len(req.Header))
	for k, v := range req.Header {
		header.Add(k, v)
	}

	return &stdhttp.Request{
		Method:     req.Method,
		URL:        u,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     header,
		Host:       header.Get("Host"),
		RequestURI: req.Target,
		RemoteAddr: conn.RemoteAddr().String(),
	}, nil
}

// hijackWriter hands the raw connection to the upgrader. Error responses
// are never written.
type hijackWriter struct {
	conn   net.Conn
	header stdhttp.Header
	status int
}

func (w *hijackWriter) Header() stdhttp.Header {
	return w.header
}

func (w *hijackWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func (w *hijackWriter) WriteHeader(status int) {
	w.status = status
}

func (w *hijackWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.conn, bufio.NewReadWriter(bufio.NewReader(w.conn), bufio.NewWriter(w.conn)), nil
}
