package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/application/usecase"
	"github.com/bibbank/lenderledger/pkg/auth"
)

// LedgerHandler implements LedgerServiceServer on top of the use cases.
// The creditor is always the authenticated caller.
type LedgerHandler struct {
	UnimplementedLedgerServiceServer
	uc     usecase.Set
	logger *slog.Logger
}

// NewLedgerHandler creates the gRPC handler.
func NewLedgerHandler(uc usecase.Set, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{uc: uc, logger: logger}
}

func (h *LedgerHandler) CreateLoan(ctx context.Context, req *dto.CreateLoanRequest) (*dto.LoanResponse, error) {
	creditorID, err := creditorFrom(ctx)
	if err != nil {
		return nil, err
	}
	req.CreditorID = creditorID
	return respond(h.uc.CreateLoan.Execute(ctx, *req))
}

func (h *LedgerHandler) GetLoan(ctx context.Context, req *dto.LoanRequest) (*dto.LoanResponse, error) {
	creditorID, err := creditorFrom(ctx)
	if err != nil {
		return nil, err
	}
	req.CreditorID = creditorID
	return respond(h.uc.GetLoan.Execute(ctx, *req))
}

func (h *LedgerHandler) RegisterPayment(ctx context.Context, req *dto.RegisterPaymentRequest) (*dto.PaymentResponse, error) {
	creditorID, err := creditorFrom(ctx)
	if err != nil {
		return nil, err
	}
	req.CreditorID = creditorID
	return respond(h.uc.RegisterPayment.Execute(ctx, *req))
}

func (h *LedgerHandler) AmortizeLoan(ctx context.Context, req *AmortizeLoanRequest) (*dto.AmortizationResponse, error) {
	creditorID, err := creditorFrom(ctx)
	if err != nil {
		return nil, err
	}
	in := req.AmortizeLoanRequest
	in.CreditorID = creditorID
	in.LoanID = req.LoanID
	return respond(h.uc.AmortizeLoan.Execute(ctx, in))
}

// AccrueOverdueFines runs the batch for every creditor and is restricted to
// auth.RoleLedgerAdmin.
func (h *LedgerHandler) AccrueOverdueFines(ctx context.Context, req *dto.AccrueOverdueFinesRequest) (*dto.AccrualResponse, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no claims in context")
	}
	if !claims.HasRole(auth.RoleLedgerAdmin) {
		return nil, status.Errorf(codes.PermissionDenied, "required role: %s", auth.RoleLedgerAdmin)
	}
	h.logger.InfoContext(ctx, "accrual requested", "creditor_id", claims.CreditorID.String(), "as_of", req.AsOf)
	return respond(h.uc.AccrueOverdueFines.Execute(ctx, *req))
}

func (h *LedgerHandler) GetPortfolioSummary(ctx context.Context, _ *dto.CreditorRequest) (*dto.PortfolioSummaryResponse, error) {
	creditorID, err := creditorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return respond(h.uc.Portfolio.Summary(ctx, dto.CreditorRequest{CreditorID: creditorID}))
}

func (h *LedgerHandler) ListOverdueInstallments(ctx context.Context, _ *dto.CreditorRequest) (*dto.InstallmentListResponse, error) {
	creditorID, err := creditorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return respond(h.uc.Portfolio.ListOverdue(ctx, dto.CreditorRequest{CreditorID: creditorID}))
}

func (h *LedgerHandler) ListDueInstallments(ctx context.Context, req *dto.DueInstallmentsRequest) (*dto.InstallmentListResponse, error) {
	creditorID, err := creditorFrom(ctx)
	if err != nil {
		return nil, err
	}
	req.CreditorID = creditorID
	return respond(h.uc.Portfolio.ListDue(ctx, *req))
}

func creditorFrom(ctx context.Context) (string, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "no claims in context")
	}
	return claims.CreditorID.String(), nil
}

func respond[T any](resp T, err error) (*T, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

var _ LedgerServiceServer = (*LedgerHandler)(nil)
