package http

import (
	"log/slog"

	"github.com/hsgames/knot/net/tcp"
	"github.com/hsgames/knot/safe"
)

type Middleware func(Handler) Handler

func chain(ms []Middleware, h Handler) Handler {
	for i := len(ms) - 1; i >= 0; i-- {
		h = ms[i](h)
	}
	return h
}

// NewRecoverMiddleware logs a panicking handler and drops its connection.
func NewRecoverMiddleware(logger *slog.Logger) Middleware {
	return func(h Handler) Handler {
		return func(conn *tcp.Conn, req *Request) {
			var err error
			defer func() {
				if err != nil {
					logger.Error("http: recover middleware",
						slog.String("conn", conn.String()),
						slog.String("request", req.String()),
						slog.Any("error", err))
					conn.Disconnect()
				}
			}()
			defer safe.RecoverError(&err)
			h(conn, req)
		}
	}
}

// NewLogMiddleware logs each request at debug level.
func NewLogMiddleware(logger *slog.Logger) Middleware {
	return func(h Handler) Handler {
		return func(conn *tcp.Conn, req *Request) {
			logger.Debug("http: request",
				slog.String("conn", conn.String()),
				slog.String("method", req.Method),
				slog.String("target", req.Target),
				slog.Int("body", len(req.Body)))
			h(conn, req)
		}
	}
}
