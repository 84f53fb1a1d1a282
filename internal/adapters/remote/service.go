// Package remote implements the remote cache protocol over gRPC: a content
// store plus a key to artifact index, shared between machines.
package remote

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "keel.cache.v1.ContentCache"

// Full method names.
const (
	methodGet         = "/" + serviceName + "/Get"
	methodPut         = "/" + serviceName + "/Put"
	methodFindMissing = "/" + serviceName + "/FindMissing"
	methodGetRef      = "/" + serviceName + "/GetRef"
	methodPutRef      = "/" + serviceName + "/PutRef"
)

// MaxMessageSize bounds a single object transfer.
const MaxMessageSize = 256 << 20

// cacheServer is the server side of the service. Messages are well-known
// types so no generated code is needed:
//
//	Get(StringValue digest) BytesValue
//	Put(BytesValue data) StringValue digest
//	FindMissing(ListValue digests) ListValue digests
//	GetRef(StringValue key) StringValue digest
//	PutRef(Struct{key, digest}) Empty
type cacheServer interface {
	Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	FindMissing(ctx context.Context, in *structpb.ListValue) (*structpb.ListValue, error)
	GetRef(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	PutRef(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*cacheServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Get", methodGet, cacheServer.Get),
		unary("Put", methodPut, cacheServer.Put),
		unary("FindMissing", methodFindMissing, cacheServer.FindMissing),
		unary("GetRef", methodGetRef, cacheServer.GetRef),
		unary("PutRef", methodPutRef, cacheServer.PutRef),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "keel/cache/v1/cache.proto",
}

func unary[Req, Resp any](
	name, fullMethod string,
	call func(cacheServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(cacheServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(cacheServer), ctx, req.(*Req))
			})
		},
	}
}
