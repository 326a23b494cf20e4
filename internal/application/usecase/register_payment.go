package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/domain/service"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	"github.com/bibbank/lenderledger/pkg/events"
)

// RegisterPaymentUseCase applies a payment to one installment and books the
// cash on an account, all in one unit of work.
type RegisterPaymentUseCase struct {
	uow       port.UnitOfWork
	processor *service.PaymentProcessor
	logger    *slog.Logger
}

// NewRegisterPaymentUseCase wires dependencies.
func NewRegisterPaymentUseCase(uow port.UnitOfWork, logger *slog.Logger) *RegisterPaymentUseCase {
	return &RegisterPaymentUseCase{
		uow:       uow,
		processor: service.NewPaymentProcessor(),
		logger:    logger,
	}
}

// Execute registers the payment.
func (uc *RegisterPaymentUseCase) Execute(
	ctx context.Context,
	req dto.RegisterPaymentRequest,
) (dto.PaymentResponse, error) {
	ctx, span := tracer.Start(ctx, "RegisterPayment")
	defer span.End()

	if err := dto.Validate(req); err != nil {
		return dto.PaymentResponse{}, err
	}
	if !req.AmountPaid.IsPositive() {
		return dto.PaymentResponse{}, apperror.Validation("amount paid must be positive")
	}

	now := time.Now().UTC()
	paidAt := req.PaymentDate
	if paidAt.IsZero() {
		paidAt = now
	}

	var resp dto.PaymentResponse
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		resp, err = uc.register(ctx, repos, req, paidAt, now)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return dto.PaymentResponse{}, err
	}

	span.SetAttributes(
		attribute.String("loan_id", resp.LoanID),
		attribute.String("payment_type", resp.PaymentType),
	)
	recordPayment(ctx, resp.PaymentType)
	uc.logger.Info("payment registered",
		"loan_id", resp.LoanID,
		"installment_id", resp.InstallmentID,
		"amount", resp.AmountPaid.String(),
		"payment_type", resp.PaymentType,
		"loan_status", resp.LoanStatus,
	)
	return resp, nil
}

// register runs the payment against repos of an open unit of work.
func (uc *RegisterPaymentUseCase) register(
	ctx context.Context,
	repos port.Repositories,
	req dto.RegisterPaymentRequest,
	paidAt, now time.Time,
) (dto.PaymentResponse, error) {
	var collector events.EventCollector

	// 1. Lock the installment, its loan and the target account.
	target, err := repos.Installments.FindByIDForUpdate(ctx, req.InstallmentID)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("find installment: %w", err)
	}
	loan, err := lockOwnedLoan(ctx, repos, req.CreditorID, target.LoanID())
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return dto.PaymentResponse{}, apperror.NotFound("installment", req.InstallmentID)
		}
		return dto.PaymentResponse{}, fmt.Errorf("find loan: %w", err)
	}
	account, err := lockOwnedAccount(ctx, repos, req.CreditorID, req.AccountID)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("find account: %w", err)
	}
	schedule, err := repos.Installments.ListByLoan(ctx, loan.ID())
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("list installments: %w", err)
	}

	// 2. Settle the installment and spread any shortfall.
	out, err := uc.processor.Apply(loan, target, schedule, req.AmountPaid, paidAt, now)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("apply payment: %w", err)
	}
	collector.RecordAll(out.Events)
	collector.RecordAll(out.Loan.DomainEvents())

	// 3. Book the cash.
	account, tx, err := service.PostInflow(account, service.Inflow{
		Title:             fmt.Sprintf("Payment %s", target.Code()),
		Amount:            req.AmountPaid,
		Category:          valueobject.TransactionCategoryPayment,
		Date:              paidAt,
		Description:       fmt.Sprintf("Loan %s installment %s (%s)", loan.Code(), target.Code(), out.Type),
		ExternalReference: req.ExternalReference,
	}, now)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("post inflow: %w", err)
	}
	collector.RecordAll(account.DomainEvents())

	// 4. Persist.
	if err := repos.Installments.Save(ctx, out.Paid); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("save installment: %w", err)
	}
	if err := repos.Installments.SaveAll(ctx, out.Diluted); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("save diluted installments: %w", err)
	}
	if out.Remainder != nil {
		if err := repos.Installments.Save(ctx, *out.Remainder); err != nil {
			return dto.PaymentResponse{}, fmt.Errorf("save remainder installment: %w", err)
		}
	}
	if err := repos.Loans.Save(ctx, out.Loan); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("save loan: %w", err)
	}
	if err := repos.Transactions.Append(ctx, tx); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("append transaction: %w", err)
	}
	if err := repos.Accounts.Save(ctx, account); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("save account: %w", err)
	}
	if err := storeEvents(ctx, repos.Outbox, collector.ClearEvents()...); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("store events: %w", err)
	}

	// 5. Receipt details for collaborators.
	client, err := repos.Clients.FindByID(ctx, loan.ClientID())
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("find client: %w", err)
	}
	creditor, err := repos.Creditors.FindByID(ctx, loan.CreditorID())
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("find creditor: %w", err)
	}

	resp := dto.PaymentResponse{
		PaymentType:    string(out.Type),
		InstallmentID:  out.Paid.ID(),
		AmountPaid:     req.AmountPaid,
		Shortfall:      out.Shortfall,
		DilutedCount:   len(out.Diluted),
		LoanID:         out.Loan.ID(),
		LoanBalance:    out.Loan.LoanBalance(),
		LoanStatus:     out.Loan.Status().String(),
		TransactionID:  tx.ID(),
		AccountBalance: account.Balance(),
		ClientName:     client.Name(),
		ClientWhatsApp: client.WhatsApp().String(),
		CreditorPixKey: creditor.PixKey(),
	}
	switch {
	case len(out.Diluted) > 0:
		resp.NewInstallmentValue = decimal.NewNullDecimal(out.Diluted[0].DueValue())
	case out.Remainder != nil:
		resp.NewInstallmentValue = decimal.NewNullDecimal(out.Remainder.DueValue())
		resp.RemainderInstallmentID = out.Remainder.ID()
	}
	return resp, nil
}
