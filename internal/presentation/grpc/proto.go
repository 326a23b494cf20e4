package grpc

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/lenderledger/internal/application/dto"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "lenderledger.v1.LedgerService"

// AmortizeLoanRequest carries the loan ID in the body, which the shared DTO
// takes from the REST path instead.
type AmortizeLoanRequest struct {
	LoanID string `json:"loan_id"`
	dto.AmortizeLoanRequest
}

// LedgerServiceServer is the server API of LedgerService.
type LedgerServiceServer interface {
	CreateLoan(context.Context, *dto.CreateLoanRequest) (*dto.LoanResponse, error)
	GetLoan(context.Context, *dto.LoanRequest) (*dto.LoanResponse, error)
	RegisterPayment(context.Context, *dto.RegisterPaymentRequest) (*dto.PaymentResponse, error)
	AmortizeLoan(context.Context, *AmortizeLoanRequest) (*dto.AmortizationResponse, error)
	AccrueOverdueFines(context.Context, *dto.AccrueOverdueFinesRequest) (*dto.AccrualResponse, error)
	GetPortfolioSummary(context.Context, *dto.CreditorRequest) (*dto.PortfolioSummaryResponse, error)
	ListOverdueInstallments(context.Context, *dto.CreditorRequest) (*dto.InstallmentListResponse, error)
	ListDueInstallments(context.Context, *dto.DueInstallmentsRequest) (*dto.InstallmentListResponse, error)
	mustEmbedUnimplementedLedgerServiceServer()
}

// UnimplementedLedgerServiceServer answers every method with Unimplemented.
type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) CreateLoan(context.Context, *dto.CreateLoanRequest) (*dto.LoanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateLoan not implemented")
}
func (UnimplementedLedgerServiceServer) GetLoan(context.Context, *dto.LoanRequest) (*dto.LoanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLoan not implemented")
}
func (UnimplementedLedgerServiceServer) RegisterPayment(context.Context, *dto.RegisterPaymentRequest) (*dto.PaymentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterPayment not implemented")
}
func (UnimplementedLedgerServiceServer) AmortizeLoan(context.Context, *AmortizeLoanRequest) (*dto.AmortizationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AmortizeLoan not implemented")
}
func (UnimplementedLedgerServiceServer) AccrueOverdueFines(context.Context, *dto.AccrueOverdueFinesRequest) (*dto.AccrualResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AccrueOverdueFines not implemented")
}
func (UnimplementedLedgerServiceServer) GetPortfolioSummary(context.Context, *dto.CreditorRequest) (*dto.PortfolioSummaryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPortfolioSummary not implemented")
}
func (UnimplementedLedgerServiceServer) ListOverdueInstallments(context.Context, *dto.CreditorRequest) (*dto.InstallmentListResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListOverdueInstallments not implemented")
}
func (UnimplementedLedgerServiceServer) ListDueInstallments(context.Context, *dto.DueInstallmentsRequest) (*dto.InstallmentListResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListDueInstallments not implemented")
}
func (UnimplementedLedgerServiceServer) mustEmbedUnimplementedLedgerServiceServer() {}

// RegisterLedgerServiceServer registers srv with s.
func RegisterLedgerServiceServer(s grpclib.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&ledgerServiceDesc, srv)
}

var ledgerServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		unary("CreateLoan", LedgerServiceServer.CreateLoan),
		unary("GetLoan", LedgerServiceServer.GetLoan),
		unary("RegisterPayment", LedgerServiceServer.RegisterPayment),
		unary("AmortizeLoan", LedgerServiceServer.AmortizeLoan),
		unary("AccrueOverdueFines", LedgerServiceServer.AccrueOverdueFines),
		unary("GetPortfolioSummary", LedgerServiceServer.GetPortfolioSummary),
		unary("ListOverdueInstallments", LedgerServiceServer.ListOverdueInstallments),
		unary("ListDueInstallments", LedgerServiceServer.ListDueInstallments),
	},
	Streams: []grpclib.StreamDesc{},
}

// unary builds the method descriptor that decodes Req, runs the interceptor
// chain and dispatches to call.
func unary[Req, Resp any](
	method string,
	call func(LedgerServiceServer, context.Context, *Req) (*Resp, error),
) grpclib.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpclib.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServiceServer), ctx, in)
			}
			info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
