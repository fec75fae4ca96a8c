package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const service = "test.v1.EchoService"

type echoRequest struct {
	Text  string `json:"text"`
	Times int    `json:"times"`
}

type echoResponse struct {
	Text   string `json:"text"`
	Method string `json:"method"`
}

type echoHandler struct{}

func (echoHandler) Echo(ctx context.Context, req *echoRequest) (*echoResponse, error) {
	if req.Times < 0 {
		return nil, status.Error(codes.InvalidArgument, "times must not be negative")
	}
	out := ""
	for i := 0; i < req.Times; i++ {
		out += req.Text
	}
	method, _ := ctx.Value(methodKey{}).(string)
	return &echoResponse{Text: out, Method: method}, nil
}

type methodKey struct{}

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	s := grpc.NewServer(grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(context.WithValue(ctx, methodKey{}, info.FullMethod), req)
	}))
	h := echoHandler{}
	Register(s, service, h, Unary(service, "Echo", h.Echo))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestUnaryRoundTrip(t *testing.T) {
	conn := dial(t)

	resp, err := Invoke[echoResponse](context.Background(), conn, service, "Echo", &echoRequest{Text: "ab", Times: 3})
	require.NoError(t, err)
	assert.Equal(t, "ababab", resp.Text)
	assert.Equal(t, "/"+service+"/Echo", resp.Method)
}

func TestUnaryStatusError(t *testing.T) {
	conn := dial(t)

	_, err := Invoke[echoResponse](context.Background(), conn, service, "Echo", &echoRequest{Times: -1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = Invoke[echoResponse](context.Background(), conn, service, "Missing", &echoRequest{})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestCodecEmptyBody(t *testing.T) {
	var req echoRequest
	require.NoError(t, jsonCodec{}.Unmarshal(nil, &req))
	assert.Equal(t, echoRequest{}, req)
}
