// Package rpc exposes the analysis runner as a gRPC service. Requests and
// responses are google.protobuf.Struct messages shaped like input
// documents and reports.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tolstack.v1.Analysis"

// Method names.
const (
	MethodAnalyzeStackup = "AnalyzeStackup"
	MethodAnalyzeMate    = "AnalyzeMate"
	MethodComputeBounds  = "ComputeBounds"
	MethodAnalyzeChain   = "AnalyzeChain"
	MethodGetRun         = "GetRun"
)

// AnalysisServer is the server API for the Analysis service.
type AnalysisServer interface {
	AnalyzeStackup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AnalyzeMate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeBounds(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AnalyzeChain(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Analysis service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalysisServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodAnalyzeStackup, Handler: unary(MethodAnalyzeStackup, AnalysisServer.AnalyzeStackup)},
		{MethodName: MethodAnalyzeMate, Handler: unary(MethodAnalyzeMate, AnalysisServer.AnalyzeMate)},
		{MethodName: MethodComputeBounds, Handler: unary(MethodComputeBounds, AnalysisServer.ComputeBounds)},
		{MethodName: MethodAnalyzeChain, Handler: unary(MethodAnalyzeChain, AnalysisServer.AnalyzeChain)},
		{MethodName: MethodGetRun, Handler: unary(MethodGetRun, AnalysisServer.GetRun)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tolstack/v1/analysis.proto",
}

// Register attaches srv to a gRPC server.
func Register(s grpc.ServiceRegistrar, srv AnalysisServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns "/tolstack.v1.Analysis/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type structCall func(AnalysisServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call structCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(AnalysisServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*structpb.Struct))
		})
	}
}

// #endregion service-desc
