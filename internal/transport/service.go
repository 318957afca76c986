// Package transport carries router envelopes over gRPC. The single unary
// method trace.v1.Router/SendMessage takes and returns a
// google.protobuf.Struct holding the JSON envelope; sender details travel as
// request metadata.
package transport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName       = "trace.v1.Router"
	SendMessageMethod = "/" + ServiceName + "/SendMessage"
)

// Metadata keys describing the sender.
const (
	MetaSurface   = "x-trace-surface"
	MetaTabID     = "x-trace-tab-id"
	MetaTabURL    = "x-trace-tab-url"
	MetaTabTitle  = "x-trace-tab-title"
	MetaRequestID = "x-request-id"
)

// RouterServer is the server side of trace.v1.Router.
type RouterServer interface {
	SendMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

func sendMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RouterServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SendMessageMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RouterServer).SendMessage(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RouterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: sendMessageHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "trace/v1/router.proto",
}

func RegisterRouterServer(s grpc.ServiceRegistrar, srv RouterServer) {
	s.RegisterService(&ServiceDesc, srv)
}
