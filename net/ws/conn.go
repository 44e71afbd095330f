package ws

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/hsgames/knot/net/tcp"
)

// Conn is an established websocket. Reads and writes may run on two
// different goroutines, but not concurrently with themselves.
type Conn struct {
	opts       connOptions
	conn       *websocket.Conn
	tcp        *tcp.Conn
	readBytes  atomic.Uint64
	writeBytes atomic.Uint64
	closed     atomic.Bool
}

func newConn(conn *websocket.Conn, tc *tcp.Conn, opts connOptions) *Conn {
	conn.SetReadLimit(int64(opts.maxReadMsgSize))

	return &Conn{
		opts: opts,
		conn: conn,
		tcp:  tc,
	}
}

func (c *Conn) String() string {
	return fmt.Sprintf("[local_addr:%s][remote_addr:%s]", c.LocalAddr(), c.RemoteAddr())
}

func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Conn) Subprotocol() string {
	return c.conn.Subprotocol()
}

func (c *Conn) ReadBytes() uint64 {
	return c.readBytes.Load()
}

func (c *Conn) WriteBytes() uint64 {
	return c.writeBytes.Load()
}

func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

func (c *Conn) ReadMessage() ([]byte, error) {
	if c.opts.readTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.readTimeout)); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if msgType != c.opts.msgType {
		return nil, errors.Errorf("ws: conn %s read msg type %d != %d",
			c, msgType, c.opts.msgType)
	}

	msgSize := len(data)
	if msgSize <= 0 {
		return nil, errors.Errorf("ws: conn %s read msg size %d <= 0", c, msgSize)
	}

	c.readBytes.Add(uint64(msgSize))

	return data, nil
}

func (c *Conn) WriteMessage(data []byte) error {
	if c.IsClosed() {
		return errors.Errorf("ws: conn %s already closed", c)
	}

	msgSize := len(data)
	if msgSize <= 0 {
		return errors.Errorf("ws: conn %s write msg size %d <= 0", c, msgSize)
	}

	if msgSize > c.opts.maxWriteMsgSize {
		return errors.Errorf("ws: conn %s write msg size %d > %d",
			c, msgSize, c.opts.maxWriteMsgSize)
	}

	if c.opts.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.writeTimeout)); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := c.conn.WriteMessage(c.opts.msgType, data); err != nil {
		return errors.WithStack(err)
	}

	c.writeBytes.Add(uint64(msgSize))

	return nil
}

// Close sends a close frame and releases the connection. Calling it more
// than once is a no-op.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	// best effort, the peer may already be gone
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.closeTimeout))

	if c.tcp != nil {
		if err := c.tcp.Disconnect(); err != nil {
			return errors.Wrapf(err, "ws: conn %s close", c)
		}
		return nil
	}

	if err := c.conn.Close(); err != nil {
		return errors.Wrapf(err, "ws: conn %s close", c)
	}

	return nil
}
