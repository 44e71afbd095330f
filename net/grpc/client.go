package grpc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewClient dials target. Without ClientBlock the connection is made lazily
// on the first call.
func NewClient(target string, opt ...ClientOption) (*grpc.ClientConn, error) {
	opts := defaultClientOptions()
	for _, o := range opt {
		o(&opts)
	}

	if err := opts.check(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if opts.block {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.dialTimeout)
		defer cancel()
	}

	conn, err := grpc.DialContext(ctx, target, opts.grpcOptions()...)
	if err != nil {
		return nil, errors.Wrapf(err, "grpc: client dial [%s]", target)
	}

	return conn, nil
}

// CheckListener asks a health server whether the listener reported under
// service is serving.
func CheckListener(ctx context.Context, conn grpc.ClientConnInterface, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, errors.Wrapf(err, "grpc: check [%s]", service)
	}
	return resp.GetStatus(), nil
}
