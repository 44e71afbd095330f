package http

import (
	"errors"
	"log/slog"

	"github.com/hsgames/knot/net/tcp"
)

// Handler answers one received request. The connection is disconnected
// once it returns.
type Handler func(conn *tcp.Conn, req *Request)

// Server is a tcp.Handler that receives one request per connection and
// passes it to a Handler.
type Server struct {
	opts    serverOptions
	handler Handler
}

func NewServer(handler Handler, opt ...ServerOption) (*Server, error) {
	if handler == nil {
		return nil, errors.New("http: NewServer handler is nil")
	}

	opts := defaultServerOptions()
	for _, o := range opt {
		o(&opts)
	}

	if err := opts.check(); err != nil {
		return nil, err
	}

	ms := append([]Middleware{NewRecoverMiddleware(opts.logger)}, opts.middlewares...)

	return &Server{
		opts:    opts,
		handler: chain(ms, handler),
	}, nil
}

func (s *Server) ServeConn(_ *tcp.Listener, conn *tcp.Conn, peerIP, peerPort string) {
	defer conn.Disconnect()

	req, err := ReceiveRequest(conn, s.opts.timeout, s.opts.allowed,
		MaxHeadSize(s.opts.maxHead), MaxBodySize(s.opts.maxBody))
	if err != nil {
		if errors.Is(err, ErrPeerClosed) {
			if !s.opts.keepPartial {
				s.opts.logger.Debug("http: peer closed early",
					slog.String("peer_ip", peerIP), slog.String("peer_port", peerPort))
				return
			}
		} else {
			s.opts.logger.Warn("http: receive request",
				slog.String("peer_ip", peerIP), slog.String("peer_port", peerPort),
				slog.Any("error", err))
			return
		}
	}

	s.handler(conn, req)
}
