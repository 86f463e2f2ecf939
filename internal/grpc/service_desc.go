package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. Messages are
// google.protobuf.Struct so no generated code is needed.
const ServiceName = "wellness.evaluation.v1.EvaluationService"

const (
	MethodGetScorecard      = "/" + ServiceName + "/GetScorecard"
	MethodGetOutcomeSummary = "/" + ServiceName + "/GetOutcomeSummary"
	MethodCompareEntities   = "/" + ServiceName + "/CompareEntities"
)

// EvaluationServer is implemented by GRPCHandlers.
type EvaluationServer interface {
	GetScorecard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetOutcomeSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CompareEntities(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes EvaluationServer to grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EvaluationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetScorecard", Handler: unaryHandler(MethodGetScorecard, EvaluationServer.GetScorecard)},
		{MethodName: "GetOutcomeSummary", Handler: unaryHandler(MethodGetOutcomeSummary, EvaluationServer.GetOutcomeSummary)},
		{MethodName: "CompareEntities", Handler: unaryHandler(MethodCompareEntities, EvaluationServer.CompareEntities)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wellness/evaluation/v1/evaluation.proto",
}

type unaryMethod func(EvaluationServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EvaluationServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EvaluationServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls the evaluation service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetScorecard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetScorecard, in, opts...)
}

func (c *Client) GetOutcomeSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetOutcomeSummary, in, opts...)
}

func (c *Client) CompareEntities(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCompareEntities, in, opts...)
}
