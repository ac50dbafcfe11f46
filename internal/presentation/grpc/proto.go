package grpc

// proto.go defines the gRPC server interface for
// credwise.evaluation.v1.CreditEvaluationService. Messages travel with the
// JSON codec registered in json_codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CreditEvaluationServiceServer is the server API for CreditEvaluationService.
type CreditEvaluationServiceServer interface {
	Evaluate(context.Context, *EvaluateRequest) (*EvaluateResponse, error)
	GetEvaluation(context.Context, *GetEvaluationRequest) (*GetEvaluationResponse, error)
	ListEvaluations(context.Context, *ListEvaluationsRequest) (*ListEvaluationsResponse, error)
	mustEmbedUnimplementedCreditEvaluationServiceServer()
}

// UnimplementedCreditEvaluationServiceServer provides forward-compatible default implementations.
type UnimplementedCreditEvaluationServiceServer struct{}

func (UnimplementedCreditEvaluationServiceServer) Evaluate(context.Context, *EvaluateRequest) (*EvaluateResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Evaluate not implemented")
}
func (UnimplementedCreditEvaluationServiceServer) GetEvaluation(context.Context, *GetEvaluationRequest) (*GetEvaluationResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetEvaluation not implemented")
}
func (UnimplementedCreditEvaluationServiceServer) ListEvaluations(context.Context, *ListEvaluationsRequest) (*ListEvaluationsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListEvaluations not implemented")
}
func (UnimplementedCreditEvaluationServiceServer) mustEmbedUnimplementedCreditEvaluationServiceServer() {}

// RegisterCreditEvaluationServiceServer registers the service with the gRPC server.
func RegisterCreditEvaluationServiceServer(s *grpclib.Server, srv CreditEvaluationServiceServer) {
	s.RegisterService(&_CreditEvaluationService_serviceDesc, srv)
}

var _CreditEvaluationService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: "credwise.evaluation.v1.CreditEvaluationService",
	HandlerType: (*CreditEvaluationServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Evaluate", Handler: _CreditEvaluationService_Evaluate_Handler},
		{MethodName: "GetEvaluation", Handler: _CreditEvaluationService_GetEvaluation_Handler},
		{MethodName: "ListEvaluations", Handler: _CreditEvaluationService_ListEvaluations_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _CreditEvaluationService_Evaluate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(EvaluateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditEvaluationServiceServer).Evaluate(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/credwise.evaluation.v1.CreditEvaluationService/Evaluate",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CreditEvaluationServiceServer).Evaluate(ctx, req.(*EvaluateRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _CreditEvaluationService_GetEvaluation_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(GetEvaluationRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditEvaluationServiceServer).GetEvaluation(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/credwise.evaluation.v1.CreditEvaluationService/GetEvaluation",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CreditEvaluationServiceServer).GetEvaluation(ctx, req.(*GetEvaluationRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _CreditEvaluationService_ListEvaluations_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(ListEvaluationsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditEvaluationServiceServer).ListEvaluations(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/credwise.evaluation.v1.CreditEvaluationService/ListEvaluations",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CreditEvaluationServiceServer).ListEvaluations(ctx, req.(*ListEvaluationsRequest))
	}
	return interceptor(ctx, req, info, handler)
}
