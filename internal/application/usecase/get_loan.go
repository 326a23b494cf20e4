package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/port"
)

// GetLoanUseCase retrieves a loan with its installments.
type GetLoanUseCase struct {
	uow port.UnitOfWork
}

// NewGetLoanUseCase wires dependencies.
func NewGetLoanUseCase(uow port.UnitOfWork) *GetLoanUseCase {
	return &GetLoanUseCase{uow: uow}
}

// Execute returns the caller's loan.
func (uc *GetLoanUseCase) Execute(
	ctx context.Context,
	req dto.LoanRequest,
) (dto.LoanResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.LoanResponse{}, err
	}

	var resp dto.LoanResponse
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		loan, err := findOwnedLoan(ctx, repos, req.CreditorID, req.LoanID)
		if err != nil {
			return fmt.Errorf("find loan: %w", err)
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
	return resp, nil
}
