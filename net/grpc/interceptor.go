package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hsgames/knot/safe"
)

// recoverUnary turns a handler panic into codes.Internal.
func recoverUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any,
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if err != nil && status.Code(err) == codes.Unknown {
				logger.Error("grpc: unary handler",
					slog.String("method", info.FullMethod), slog.Any("error", err))
				err = status.Error(codes.Internal, err.Error())
			}
		}()
		defer safe.RecoverError(&err)
		return handler(ctx, req)
	}
}

// recoverStream guards streaming handlers such as health Watch.
func recoverStream(logger *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream,
		info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if err != nil && status.Code(err) == codes.Unknown {
				logger.Error("grpc: stream handler",
					slog.String("method", info.FullMethod), slog.Any("error", err))
				err = status.Error(codes.Internal, err.Error())
			}
		}()
		defer safe.RecoverError(&err)
		return handler(srv, ss)
	}
}

func logUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any,
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc: unary call",
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Duration("elapsed", time.Since(start)))
		return resp, err
	}
}

// callTimeout bounds calls whose context carries no deadline.
func callTimeout(d time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any,
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if _, ok := ctx.Deadline(); !ok && d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
