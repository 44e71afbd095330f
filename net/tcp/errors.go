package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

var (
	ErrTimeout           = errors.New("tcp: timeout")
	ErrResolutionFailed  = errors.New("tcp: resolution failed")
	ErrConnectionRefused = errors.New("tcp: connection refused")
	ErrIO                = errors.New("tcp: io error")
	ErrInvalidArgument   = errors.New("tcp: invalid argument")
	ErrNotConnected      = errors.New("tcp: not connected")
)

// classify maps a socket level error onto one of the package error kinds.
func classify(err error) error {
	var (
		dnsErr *net.DNSError
		ne     net.Error
	)

	switch {
	case errors.As(err, &dnsErr):
		return ErrResolutionFailed
	case errors.Is(err, syscall.ECONNREFUSED):
		return ErrConnectionRefused
	case errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout():
		return ErrTimeout
	}

	return ErrIO
}

func opError(kind error, op, addr string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s [%s]", kind, op, addr)
	}

	return fmt.Errorf("%w: %s [%s] err [%w]", kind, op, addr, err)
}
