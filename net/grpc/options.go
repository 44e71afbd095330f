package grpc

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

type serverOptions struct {
	creds          credentials.TransportCredentials
	interceptors   []grpc.UnaryServerInterceptor
	maxRecvMsgSize int
	maxStreams     uint32
	logger         *slog.Logger
}

func defaultServerOptions() serverOptions {
	return serverOptions{
		maxRecvMsgSize: 64 << 10,
		maxStreams:     256,
		logger:         slog.Default(),
	}
}

func (opts *serverOptions) check() error {
	if opts.maxRecvMsgSize <= 0 {
		return errors.Errorf("grpc: server options maxRecvMsgSize [%d] <= 0", opts.maxRecvMsgSize)
	}
	if opts.maxStreams == 0 {
		return errors.New("grpc: server options maxStreams == 0")
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	return nil
}

func (opts *serverOptions) grpcOptions() []grpc.ServerOption {
	unary := append([]grpc.UnaryServerInterceptor{
		recoverUnary(opts.logger),
		logUnary(opts.logger),
	}, opts.interceptors...)

	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(recoverStream(opts.logger)),
		grpc.MaxRecvMsgSize(opts.maxRecvMsgSize),
		grpc.MaxConcurrentStreams(opts.maxStreams),
	}
	if opts.creds != nil {
		serverOpts = append(serverOpts, grpc.Creds(opts.creds))
	}
	return serverOpts
}

type ServerOption func(o *serverOptions)

func ServerCreds(creds credentials.TransportCredentials) ServerOption {
	return func(o *serverOptions) {
		o.creds = creds
	}
}

// ServerInterceptor adds unary interceptors after the built-in recover and
// log interceptors.
func ServerInterceptor(ints ...grpc.UnaryServerInterceptor) ServerOption {
	return func(o *serverOptions) {
		o.interceptors = append(o.interceptors, ints...)
	}
}

func ServerMaxRecvMsgSize(size int) ServerOption {
	return func(o *serverOptions) {
		o.maxRecvMsgSize = size
	}
}

// ServerMaxStreams caps concurrent streams per client, health Watch included.
func ServerMaxStreams(n uint32) ServerOption {
	return func(o *serverOptions) {
		o.maxStreams = n
	}
}

func ServerLogger(logger *slog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = logger
	}
}

type KeepaliveClientParameters = keepalive.ClientParameters

type clientOptions struct {
	dialTimeout     time.Duration
	callTimeout     time.Duration
	block           bool
	creds           credentials.TransportCredentials
	keepaliveParams KeepaliveClientParameters
	maxRecvMsgSize  int
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		dialTimeout: 3 * time.Second,
		callTimeout: 3 * time.Second,
		keepaliveParams: KeepaliveClientParameters{
			Time:                10 * time.Second,
			Timeout:             3 * time.Second,
			PermitWithoutStream: true,
		},
	}
}

func (opts *clientOptions) check() error {
	if opts.creds == nil {
		return errors.New("grpc: client options no transport credentials")
	}
	if opts.block && opts.dialTimeout <= 0 {
		return errors.Errorf("grpc: client options block with dialTimeout [%s]", opts.dialTimeout)
	}
	return nil
}

func (opts *clientOptions) grpcOptions() []grpc.DialOption {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(opts.creds),
		grpc.WithKeepaliveParams(opts.keepaliveParams),
		grpc.WithChainUnaryInterceptor(callTimeout(opts.callTimeout)),
	}
	if opts.block {
		dialOpts = append(dialOpts, grpc.WithBlock())
	}
	if opts.maxRecvMsgSize > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(opts.maxRecvMsgSize)))
	}
	return dialOpts
}

type ClientOption func(o *clientOptions)

// ClientTimeout bounds a blocking dial.
func ClientTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.dialTimeout = timeout
	}
}

// ClientCallTimeout bounds unary calls made without a deadline.
func ClientCallTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.callTimeout = timeout
	}
}

func ClientInsecure() ClientOption {
	return func(o *clientOptions) {
		o.creds = insecure.NewCredentials()
	}
}

func ClientBlock() ClientOption {
	return func(o *clientOptions) {
		o.block = true
	}
}

func ClientKeepaliveParams(kp KeepaliveClientParameters) ClientOption {
	return func(o *clientOptions) {
		o.keepaliveParams = kp
	}
}

func ClientTransportCredentials(creds credentials.TransportCredentials) ClientOption {
	return func(o *clientOptions) {
		o.creds = creds
	}
}

func ClientMaxRecvMsgSize(size int) ClientOption {
	return func(o *clientOptions) {
		o.maxRecvMsgSize = size
	}
}
