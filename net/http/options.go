package http

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hsgames/knot/net/tcp"
)

type serverOptions struct {
	middlewares []Middleware
	timeout     time.Duration
	allowed     Method
	keepPartial bool
	maxHead     int
	maxBody     int
	logger      *slog.Logger
}

func defaultServerOptions() serverOptions {
	return serverOptions{
		timeout: tcp.DefaultTimeout,
		allowed: MethodAll,
		logger:  slog.Default(),
	}
}

func (opts *serverOptions) check() error {
	if opts.allowed&MethodAll == 0 {
		return fmt.Errorf("http: options allowed methods [%d] empty", opts.allowed)
	}

	if opts.maxHead < 0 {
		return fmt.Errorf("http: options maxHead [%d] < 0", opts.maxHead)
	}

	if opts.maxBody < 0 {
		return fmt.Errorf("http: options maxBody [%d] < 0", opts.maxBody)
	}

	if opts.logger == nil {
		return fmt.Errorf("http: options logger is nil")
	}

	return nil
}

type ServerOption func(o *serverOptions)

// WithMiddleware appends middlewares. They run after the built-in recover
// middleware, first added outermost.
func WithMiddleware(ms ...Middleware) ServerOption {
	return func(o *serverOptions) {
		o.middlewares = append(o.middlewares, ms...)
	}
}

// WithTimeout bounds each read of a request. See tcp.Forever.
func WithTimeout(timeout time.Duration) ServerOption {
	return func(o *serverOptions) {
		o.timeout = timeout
	}
}

func WithAllowedMethods(allowed Method) ServerOption {
	return func(o *serverOptions) {
		o.allowed = allowed
	}
}

// WithPartialRequests hands requests cut short by the peer to the handler
// instead of dropping them.
func WithPartialRequests() ServerOption {
	return func(o *serverOptions) {
		o.keepPartial = true
	}
}

// WithMaxHeadSize drops requests whose head exceeds n bytes.
func WithMaxHeadSize(n int) ServerOption {
	return func(o *serverOptions) {
		o.maxHead = n
	}
}

// WithMaxBodySize drops requests declaring a body over n bytes.
func WithMaxBodySize(n int) ServerOption {
	return func(o *serverOptions) {
		o.maxBody = n
	}
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = logger
	}
}
