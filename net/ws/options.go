package ws

import (
	"math"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	BinaryMessage = websocket.BinaryMessage
	TextMessage   = websocket.TextMessage
)

type connOptions struct {
	maxReadMsgSize  int
	maxWriteMsgSize int
	msgType         int
	readTimeout     time.Duration
	writeTimeout    time.Duration
	closeTimeout    time.Duration
}

func defaultConnOptions() connOptions {
	return connOptions{
		maxReadMsgSize:  math.MaxUint16,
		maxWriteMsgSize: math.MaxUint16,
		msgType:         BinaryMessage,
		closeTimeout:    time.Second,
	}
}

func (opts *connOptions) check() error {
	if opts.maxReadMsgSize <= 0 {
		return errors.Errorf("ws: options maxReadMsgSize [%d] <= 0", opts.maxReadMsgSize)
	}

	if opts.maxWriteMsgSize <= 0 {
		return errors.Errorf("ws: options maxWriteMsgSize [%d] <= 0", opts.maxWriteMsgSize)
	}

	switch opts.msgType {
	case BinaryMessage, TextMessage:
	default:
		return errors.Errorf("ws: options msgType [%d] not in (BinaryMessage, TextMessage)", opts.msgType)
	}

	return nil
}

type options struct {
	connOptions
	handshakeTimeout time.Duration
	readBufferSize   int
	writeBufferSize  int
	checkOrigin      bool
	subprotocols     []string
}

func defaultOptions() options {
	return options{
		connOptions:      defaultConnOptions(),
		handshakeTimeout: 10 * time.Second,
		checkOrigin:      true,
	}
}

func (opts *options) check() error {
	if err := opts.connOptions.check(); err != nil {
		return err
	}

	if opts.readBufferSize < 0 || opts.writeBufferSize < 0 {
		return errors.Errorf("ws: options buffer sizes [%d, %d] < 0",
			opts.readBufferSize, opts.writeBufferSize)
	}

	return nil
}

type Option func(o *options)

func WithMaxReadMsgSize(maxReadMsgSize int) Option {
	return func(o *options) {
		o.maxReadMsgSize = maxReadMsgSize
	}
}

func WithMaxWriteMsgSize(maxWriteMsgSize int) Option {
	return func(o *options) {
		o.maxWriteMsgSize = maxWriteMsgSize
	}
}

// WithMsgType sets the only data message type a Conn reads and writes.
func WithMsgType(msgType int) Option {
	return func(o *options) {
		o.msgType = msgType
	}
}

// WithReadTimeout bounds each ReadMessage. Zero waits forever.
func WithReadTimeout(readTimeout time.Duration) Option {
	return func(o *options) {
		o.readTimeout = readTimeout
	}
}

// WithWriteTimeout bounds each WriteMessage. Zero waits forever.
func WithWriteTimeout(writeTimeout time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = writeTimeout
	}
}

func WithCloseTimeout(closeTimeout time.Duration) Option {
	return func(o *options) {
		o.closeTimeout = closeTimeout
	}
}

func WithHandshakeTimeout(handshakeTimeout time.Duration) Option {
	return func(o *options) {
		o.handshakeTimeout = handshakeTimeout
	}
}

func WithBufferSizes(readBufferSize, writeBufferSize int) Option {
	return func(o *options) {
		o.readBufferSize = readBufferSize
		o.writeBufferSize = writeBufferSize
	}
}

// WithCheckOrigin(false) accepts cross-origin upgrades.
func WithCheckOrigin(checkOrigin bool) Option {
	return func(o *options) {
		o.checkOrigin = checkOrigin
	}
}

func WithSubprotocols(subprotocols ...string) Option {
	return func(o *options) {
		o.subprotocols = subprotocols
	}
}
