package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/domain/service"
)

// UpdateLoanPrincipalUseCase edits a loan. A new loaned value regenerates the
// pending schedule and nets everything already paid out of the new balance.
// No cash moves, so no transaction is booked.
type UpdateLoanPrincipalUseCase struct {
	uow    port.UnitOfWork
	logger *slog.Logger
}

// NewUpdateLoanPrincipalUseCase wires dependencies.
func NewUpdateLoanPrincipalUseCase(uow port.UnitOfWork, logger *slog.Logger) *UpdateLoanPrincipalUseCase {
	return &UpdateLoanPrincipalUseCase{uow: uow, logger: logger}
}

// Execute applies the edit.
func (uc *UpdateLoanPrincipalUseCase) Execute(
	ctx context.Context,
	req dto.UpdateLoanRequest,
) (dto.LoanResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.LoanResponse{}, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" && !req.LoanedValue.Valid {
		return dto.LoanResponse{}, apperror.Validation("nothing to update")
	}
	if req.LoanedValue.Valid && !req.LoanedValue.Decimal.IsPositive() {
		return dto.LoanResponse{}, apperror.Validation("loaned value must be positive")
	}

	now := time.Now().UTC()
	var resp dto.LoanResponse
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		loan, err := lockOwnedLoan(ctx, repos, req.CreditorID, req.LoanID)
		if err != nil {
			return fmt.Errorf("find loan: %w", err)
		}

		if title != "" {
			if loan, err = loan.Retitle(title, now); err != nil {
				return fmt.Errorf("retitle loan: %w", err)
			}
		}

		var removed, created []model.Installment
		if req.LoanedValue.Valid {
			schedule, err := repos.Installments.ListByLoan(ctx, loan.ID())
			if err != nil {
				return fmt.Errorf("list installments: %w", err)
			}
			recalc, err := service.RegenerateSchedule(loan, schedule, req.LoanedValue.Decimal, service.ModePrincipalEdit, now)
			if err != nil {
				return fmt.Errorf("regenerate schedule: %w", err)
			}
			loan, removed, created = recalc.Loan, recalc.Removed, recalc.Created
		}

		ids := make([]string, 0, len(removed))
		for _, inst := range removed {
			ids = append(ids, inst.ID())
		}
		if err := repos.Installments.DeleteByIDs(ctx, ids); err != nil {
			return fmt.Errorf("delete pending installments: %w", err)
		}
		if err := repos.Installments.SaveAll(ctx, created); err != nil {
			return fmt.Errorf("save regenerated installments: %w", err)
		}
		if err := repos.Loans.Save(ctx, loan); err != nil {
			return fmt.Errorf("save loan: %w", err)
		}
		if err := storeEvents(ctx, repos.Outbox, loan.DomainEvents()...); err != nil {
			return fmt.Errorf("store events: %w", err)
		}

		insts, err := repos.Installments.ListByLoan(ctx, loan.ID())
		if err != nil {
			return fmt.Errorf("list installments: %w", err)
		}
		resp = toLoanResponse(loan, insts)
		return nil
	})
	if err != nil {
		return dto.LoanResponse{}, err
	}

	uc.logger.Info("loan updated", "loan_id", resp.ID, "loaned_value", resp.LoanedValue.String(), "loan_balance", resp.LoanBalance.String())
	return resp, nil
}
