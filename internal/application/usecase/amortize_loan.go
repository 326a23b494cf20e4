package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/domain/service"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	"github.com/bibbank/lenderledger/pkg/events"
)

// AmortizeLoanUseCase pays principal ahead of schedule and regenerates the
// pending installments.
type AmortizeLoanUseCase struct {
	uow    port.UnitOfWork
	logger *slog.Logger
}

// NewAmortizeLoanUseCase wires dependencies.
func NewAmortizeLoanUseCase(uow port.UnitOfWork, logger *slog.Logger) *AmortizeLoanUseCase {
	return &AmortizeLoanUseCase{uow: uow, logger: logger}
}

// Execute applies the amortization.
func (uc *AmortizeLoanUseCase) Execute(
	ctx context.Context,
	req dto.AmortizeLoanRequest,
) (dto.AmortizationResponse, error) {
	ctx, span := tracer.Start(ctx, "AmortizeLoan")
	defer span.End()

	if err := dto.Validate(req); err != nil {
		return dto.AmortizationResponse{}, err
	}
	if !req.Amount.IsPositive() {
		return dto.AmortizationResponse{}, apperror.Validation("amortization amount must be positive")
	}

	now := time.Now().UTC()
	paidAt := req.PaymentDate
	if paidAt.IsZero() {
		paidAt = now
	}

	var resp dto.AmortizationResponse
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		var collector events.EventCollector

		// 1. Lock the loan and the target account.
		loan, err := lockOwnedLoan(ctx, repos, req.CreditorID, req.LoanID)
		if err != nil {
			return fmt.Errorf("find loan: %w", err)
		}
		account, err := lockOwnedAccount(ctx, repos, req.CreditorID, req.AccountID)
		if err != nil {
			return fmt.Errorf("find account: %w", err)
		}
		schedule, err := repos.Installments.ListByLoan(ctx, loan.ID())
		if err != nil {
			return fmt.Errorf("list installments: %w", err)
		}

		// 2. Regenerate the pending schedule from the reduced principal.
		recalc, err := service.Amortize(loan, schedule, req.Amount, now)
		if err != nil {
			return fmt.Errorf("amortize: %w", err)
		}
		collector.RecordAll(recalc.Loan.DomainEvents())

		// 3. Book the cash.
		account, tx, err := service.PostInflow(account, service.Inflow{
			Title:       fmt.Sprintf("Amortization %s", loan.Code()),
			Amount:      req.Amount,
			Category:    valueobject.TransactionCategoryAmortization,
			Date:        paidAt,
			Description: fmt.Sprintf("Principal %s -> %s", loan.LoanedValue().StringFixed(2), recalc.Loan.LoanedValue().StringFixed(2)),
		}, now)
		if err != nil {
			return fmt.Errorf("post inflow: %w", err)
		}
		collector.RecordAll(account.DomainEvents())

		// 4. Persist.
		removed := make([]string, 0, len(recalc.Removed))
		for _, inst := range recalc.Removed {
			removed = append(removed, inst.ID())
		}
		if err := repos.Installments.DeleteByIDs(ctx, removed); err != nil {
			return fmt.Errorf("delete pending installments: %w", err)
		}
		if err := repos.Installments.SaveAll(ctx, recalc.Created); err != nil {
			return fmt.Errorf("save regenerated installments: %w", err)
		}
		if err := repos.Loans.Save(ctx, recalc.Loan); err != nil {
			return fmt.Errorf("save loan: %w", err)
		}
		if err := repos.Transactions.Append(ctx, tx); err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		if err := repos.Accounts.Save(ctx, account); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		if err := storeEvents(ctx, repos.Outbox, collector.ClearEvents()...); err != nil {
			return fmt.Errorf("store events: %w", err)
		}

		resp = dto.AmortizationResponse{
			LoanID:         recalc.Loan.ID(),
			AmountPaid:     req.Amount,
			NewLoanedValue: recalc.Loan.LoanedValue(),
			LoanBalance:    recalc.Loan.LoanBalance(),
			LoanStatus:     recalc.Loan.Status().String(),
			PerInstallment: recalc.PerInstallment,
			Installments:   toInstallmentResponses(recalc.Created),
			TransactionID:  tx.ID(),
			AccountBalance: account.Balance(),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.AmortizationResponse{}, err
	}

	recordAmortization(ctx)
	uc.logger.Info("loan amortized",
		"loan_id", resp.LoanID,
		"amount", resp.AmountPaid.String(),
		"new_loaned_value", resp.NewLoanedValue.String(),
		"installments", len(resp.Installments),
	)
	return resp, nil
}
