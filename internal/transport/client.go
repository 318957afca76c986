package transport

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/trace/internal/message"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCClient sends envelopes to a running worker.
type GRPCClient struct {
	conn   *grpc.ClientConn
	sender message.Sender
}

// NewGRPCClient connects to target as the given sender. Extra dial options
// are appended to the defaults.
func NewGRPCClient(target string, sender message.Sender, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(requestIDInterceptor),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{conn: conn, sender: sender}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// Send encodes req and returns the raw JSON response.
func (c *GRPCClient) Send(ctx context.Context, req message.Request) ([]byte, error) {
	raw, err := message.Encode(req)
	if err != nil {
		return nil, err
	}
	return c.SendRaw(ctx, raw)
}

// SendRaw sends an already encoded envelope.
func (c *GRPCClient) SendRaw(ctx context.Context, raw []byte) ([]byte, error) {
	in := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, in); err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := c.conn.Invoke(c.withSender(ctx), SendMessageMethod, in, out); err != nil {
		return nil, err
	}
	return protojson.Marshal(out)
}

func (c *GRPCClient) withSender(ctx context.Context) context.Context {
	kv := []string{}
	if c.sender.Surface != "" {
		kv = append(kv, MetaSurface, c.sender.Surface)
	}
	if c.sender.TabID != 0 {
		kv = append(kv, MetaTabID, strconv.Itoa(c.sender.TabID))
	}
	if c.sender.TabURL != "" {
		kv = append(kv, MetaTabURL, c.sender.TabURL)
	}
	if c.sender.TabTitle != "" {
		kv = append(kv, MetaTabTitle, c.sender.TabTitle)
	}
	if len(kv) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}
