package tcp

import (
	"context"
	"errors"
	"net"
	"time"
)

// Connect dials host:port and returns the established connection. Every
// address host resolves to is tried in turn within the timeout budget.
func Connect(ctx context.Context, host, port string,
	timeout time.Duration, opt ...ConnOption) (*Conn, error) {

	opts := defaultConnOptions()
	for _, o := range opt {
		o(&opts)
	}

	addr := net.JoinHostPort(host, port)
	if host == "" || port == "" {
		return nil, opError(ErrInvalidArgument, "connect", addr, nil)
	}

	if _, err := net.DefaultResolver.LookupPort(ctx, "tcp", port); err != nil {
		return nil, opError(ErrInvalidArgument, "connect", addr, err)
	}

	d := &net.Dialer{
		Timeout:   budget(timeout),
		KeepAlive: -1,
	}

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, opError(classify(err), "connect", addr, err)
	}

	tc := conn.(*net.TCPConn)
	if err = setConnOptions(tc, opts.keepAlivePeriod); err != nil {
		if e := tc.Close(); e != nil {
			err = errors.Join(err, e)
		}
		return nil, opError(ErrIO, "connect", addr, err)
	}

	return newConn(tc, opts.stats), nil
}
