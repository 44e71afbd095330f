package tcp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hsgames/knot/pool/bytespool"
)

// Conn is one established TCP endpoint. A Conn is owned by a single
// goroutine; only Disconnect and the counters may be used concurrently.
type Conn struct {
	conn     *net.TCPConn
	stats    *Stats
	sent     atomic.Uint64
	received atomic.Uint64
	closed   atomic.Bool
}

func newConn(conn *net.TCPConn, stats *Stats) *Conn {
	return &Conn{
		conn:  conn,
		stats: stats,
	}
}

func (c *Conn) String() string {
	if c == nil || c.conn == nil {
		return "[not_connected]"
	}
	return fmt.Sprintf("[local_addr:%s][remote_addr:%s]", c.LocalAddr(), c.RemoteAddr())
}

func (c *Conn) valid() bool {
	return c != nil && c.conn != nil && !c.closed.Load()
}

func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// NetConn exposes the underlying connection for protocol upgrades.
func (c *Conn) NetConn() net.Conn {
	return c.conn
}

// InterfaceAddress returns the local ip and port the connection is bound to.
func (c *Conn) InterfaceAddress() (ip, port string, err error) {
	if !c.valid() {
		return "", "", opError(ErrNotConnected, "interface address", c.String(), nil)
	}
	ip, port = splitAddr(c.conn.LocalAddr())
	return ip, port, nil
}

func (c *Conn) BytesSent() uint64 {
	return c.sent.Load()
}

func (c *Conn) BytesReceived() uint64 {
	return c.received.Load()
}

// Send writes all of p. The write side stays open afterwards; use CloseWrite
// to signal the end of the stream.
func (c *Conn) Send(p []byte, timeout time.Duration) error {
	if !c.valid() {
		return opError(ErrNotConnected, "send", c.String(), nil)
	}

	for len(p) > 0 {
		if err := c.conn.SetWriteDeadline(deadline(timeout)); err != nil {
			return opError(ErrIO, "send set deadline", c.String(), err)
		}

		n, err := c.conn.Write(p)
		if n > 0 {
			c.sent.Add(uint64(n))
			c.stats.addSent(n)
			p = p[n:]
		}

		if err != nil {
			return opError(classify(err), "send", c.String(), err)
		}

		if n == 0 {
			return opError(ErrIO, "send zero length write", c.String(), nil)
		}
	}

	return nil
}

// ReceiveChunk performs one read bounded by timeout. It returns io.EOF once
// the peer has closed its write side.
func (c *Conn) ReceiveChunk(p []byte, timeout time.Duration) (int, error) {
	if !c.valid() {
		return 0, opError(ErrNotConnected, "receive", c.String(), nil)
	}

	if len(p) == 0 {
		return 0, nil
	}

	if err := c.conn.SetReadDeadline(deadline(timeout)); err != nil {
		return 0, opError(ErrIO, "receive set deadline", c.String(), err)
	}

	n, err := c.conn.Read(p)
	if n > 0 {
		c.received.Add(uint64(n))
		c.stats.addReceived(n)
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		return n, opError(classify(err), "receive", c.String(), err)
	}

	return n, nil
}

// Receive reads until the peer closes the connection, which counts as
// success. There is no application level end marker: a timeout or error
// fails the call and returns what was read so far.
func (c *Conn) Receive(timeout time.Duration) ([]byte, error) {
	buf := bytespool.Get(ChunkSize)
	defer bytespool.Put(buf)

	var data []byte
	for {
		n, err := c.ReceiveChunk(buf, timeout)
		data = append(data, buf[:n]...)

		if err != nil {
			if errors.Is(err, io.EOF) {
				return data, nil
			}
			return data, err
		}
	}
}

// IsConnected peeks one byte without consuming it. A peer that sent FIN is
// reported as not connected.
func (c *Conn) IsConnected() bool {
	if !c.valid() {
		return false
	}
	return peek(c.conn)
}

func (c *Conn) CloseRead() error {
	if !c.valid() {
		return nil
	}
	if err := c.conn.CloseRead(); err != nil {
		return opError(ErrIO, "close read", c.String(), err)
	}
	return nil
}

func (c *Conn) CloseWrite() error {
	if !c.valid() {
		return nil
	}
	if err := c.conn.CloseWrite(); err != nil {
		return opError(ErrIO, "close write", c.String(), err)
	}
	return nil
}

// Disconnect closes both directions and releases the socket. Repeated calls
// are no-ops.
func (c *Conn) Disconnect() error {
	if c == nil || c.conn == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.conn.Close(); err != nil {
		return opError(ErrIO, "disconnect", c.String(), err)
	}
	return nil
}

func setConnOptions(conn *net.TCPConn, keepAlivePeriod time.Duration) error {
	if keepAlivePeriod > 0 {
		if err := conn.SetKeepAlive(true); err != nil {
			return fmt.Errorf("tcp: set conn keep alive err [%w]", err)
		}
		if err := conn.SetKeepAlivePeriod(keepAlivePeriod); err != nil {
			return fmt.Errorf("tcp: set conn keep alive period err [%w]", err)
		}
	}
	return nil
}

func splitAddr(addr net.Addr) (ip, port string) {
	if ta, ok := addr.(*net.TCPAddr); ok {
		return ta.IP.String(), strconv.Itoa(ta.Port)
	}
	ip, port, _ = net.SplitHostPort(addr.String())
	return
}
