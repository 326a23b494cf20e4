package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/port"
)

// DeleteLoanUseCase removes a loan and its installments. Loans with any paid
// installment are kept as part of the ledger's audit trail.
type DeleteLoanUseCase struct {
	uow port.UnitOfWork
}

// NewDeleteLoanUseCase wires dependencies.
func NewDeleteLoanUseCase(uow port.UnitOfWork) *DeleteLoanUseCase {
	return &DeleteLoanUseCase{uow: uow}
}

// Execute deletes the caller's loan.
func (uc *DeleteLoanUseCase) Execute(
	ctx context.Context,
	req dto.LoanRequest,
) (dto.DeleteLoanResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.DeleteLoanResponse{}, err
	}

	var resp dto.DeleteLoanResponse
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		loan, err := lockOwnedLoan(ctx, repos, req.CreditorID, req.LoanID)
		if err != nil {
			return fmt.Errorf("find loan: %w", err)
		}
		insts, err := repos.Installments.ListByLoan(ctx, loan.ID())
		if err != nil {
			return fmt.Errorf("list installments: %w", err)
		}
		for _, inst := range insts {
			if inst.IsPaid() {
				return apperror.InvalidState("loan %s has paid installments and cannot be deleted", loan.Code())
			}
		}
		if err := repos.Installments.DeleteByLoan(ctx, loan.ID()); err != nil {
			return fmt.Errorf("delete installments: %w", err)
		}
		if err := repos.Loans.Delete(ctx, loan.ID()); err != nil {
			return fmt.Errorf("delete loan: %w", err)
		}
		resp = dto.DeleteLoanResponse{LoanID: loan.ID(), InstallmentsDeleted: len(insts)}
		return nil
	})
	if err != nil {
		return dto.DeleteLoanResponse{}, err
	}
	return resp, nil
}
