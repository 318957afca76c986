package transport

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	args := []any{
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(MetaRequestID); len(v) > 0 {
			args = append(args, "request_id", v[0])
		}
		if v := md.Get(MetaSurface); len(v) > 0 {
			args = append(args, "surface", v[0])
		}
	}
	if err != nil && status.Code(err) != codes.Unimplemented {
		s.logger.Warn(ctx, "rpc failed", append(args, "error", err)...)
	} else {
		s.logger.Debug(ctx, "rpc served", args...)
	}
	return resp, err
}

func (s *GRPCServer) recoverInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "rpc panicked", "method", info.FullMethod, "panic", p)
			err = status.Errorf(codes.Internal, "internal error: %v", p)
		}
	}()
	return handler(ctx, req)
}

// requestIDInterceptor tags every outgoing call with a fresh request ID.
func requestIDInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	ctx = metadata.AppendToOutgoingContext(ctx, MetaRequestID, uuid.NewString())
	return invoker(ctx, method, req, reply, cc, opts...)
}
