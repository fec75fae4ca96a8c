package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Unary builds the descriptor for one unary method. Interceptors see
// "/<service>/<name>" as the full method.
func Unary[Req, Resp any](service, name string, fn func(context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(ctx, in)
			}
			info := &grpc.UnaryServerInfo{FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Register exposes methods under service on s.
func Register(s grpc.ServiceRegistrar, service string, impl any, methods ...grpc.MethodDesc) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: service,
		HandlerType: (*any)(nil),
		Methods:     methods,
		Streams:     []grpc.StreamDesc{},
		Metadata:    service,
	}, impl)
}

// Invoke calls a unary method with the JSON codec.
func Invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, name string, req any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append(opts, grpc.CallContentSubtype(Name))
	if err := cc.Invoke(ctx, "/"+service+"/"+name, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
