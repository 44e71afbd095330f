package ws

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

type Client struct {
	opts   options
	name   string
	addr   string
	dialer *websocket.Dialer
}

func NewClient(name, addr string, opt ...Option) (c *Client, err error) {
	opts := defaultOptions()
	for _, o := range opt {
		o(&opts)
	}

	if err = opts.check(); err != nil {
		return
	}

	c = &Client{
		opts: opts,
		name: name,
		addr: addr,
		dialer: &websocket.Dialer{
			HandshakeTimeout: opts.handshakeTimeout,
			ReadBufferSize:   opts.readBufferSize,
			WriteBufferSize:  opts.writeBufferSize,
			Subprotocols:     opts.subprotocols,
		},
	}

	return
}

func (c *Client) String() string {
	return fmt.Sprintf("[name:%s][connect_addr:%s]", c.Name(), c.Addr())
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) Dial(ctx context.Context) (*Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.addr, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws: client [%s] dial status [%d] err [%w]", c, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("ws: client [%s] dial err [%w]", c, err)
	}

	return newConn(conn, nil, c.opts.connOptions), nil
}
