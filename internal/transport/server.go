package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/logging"
	"github.com/dmitrijs2005/trace/internal/message"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Dispatcher is implemented by *router.Router.
type Dispatcher interface {
	Dispatch(ctx context.Context, raw []byte, sender message.Sender) (message.Response, error)
}

type GRPCServer struct {
	address    string
	dispatcher Dispatcher
	logger     logging.Logger
}

func NewGRPCServer(address string, d Dispatcher, l logging.Logger) *GRPCServer {
	return &GRPCServer{address: address, dispatcher: d, logger: l.With("module", "grpc_server")}
}

func (s *GRPCServer) SendMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp, err := s.dispatcher.Dispatch(ctx, raw, senderFromContext(ctx))
	switch {
	case errors.Is(err, common.ErrUnknownAction):
		return nil, status.Error(codes.Unimplemented, err.Error())
	case err != nil:
		return nil, status.FromContextError(err).Err()
	}

	out := &structpb.Struct{}
	if resp == nil {
		return out, nil
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func senderFromContext(ctx context.Context) message.Sender {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return message.Sender{}
	}
	first := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return v[0]
		}
		return ""
	}
	s := message.Sender{
		Surface:  first(MetaSurface),
		TabURL:   first(MetaTabURL),
		TabTitle: first(MetaTabTitle),
	}
	if id, err := strconv.Atoi(first(MetaTabID)); err == nil {
		s.TabID = id
	}
	return s
}

// NewServer builds a grpc.Server with the router service and interceptors
// registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.recoverInterceptor, s.loggingInterceptor))
	srv := grpc.NewServer(opts...)
	RegisterRouterServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.address, err)
	}
	return s.Serve(ctx, listen)
}

func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())
	if err := srv.Serve(listen); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
