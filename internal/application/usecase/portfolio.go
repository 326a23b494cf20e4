package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

// dueReminderLead is how far ahead of a due date the first reminder goes out.
const dueReminderLead = 7

// PortfolioUseCase serves the creditor's read-only portfolio views.
type PortfolioUseCase struct {
	uow port.UnitOfWork
}

// NewPortfolioUseCase wires dependencies.
func NewPortfolioUseCase(uow port.UnitOfWork) *PortfolioUseCase {
	return &PortfolioUseCase{uow: uow}
}

// Summary aggregates the caller's loans and overdue installments.
func (uc *PortfolioUseCase) Summary(ctx context.Context, req dto.CreditorRequest) (dto.PortfolioSummaryResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.PortfolioSummaryResponse{}, err
	}

	resp := dto.PortfolioSummaryResponse{
		TotalLoaned:   decimal.Zero,
		OpenBalance:   decimal.Zero,
		OverdueAmount: decimal.Zero,
	}
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		loans, err := repos.Loans.ListByCreditor(ctx, req.CreditorID)
		if err != nil {
			return fmt.Errorf("list loans: %w", err)
		}
		active := map[string]struct{}{}
		for _, l := range loans {
			resp.TotalLoaned = resp.TotalLoaned.Add(l.LoanedValue())
			if l.Status().Equal(valueobject.LoanStatusSettled) {
				resp.SettledLoans++
				continue
			}
			resp.OpenLoans++
			resp.OpenBalance = resp.OpenBalance.Add(l.LoanBalance())
			active[l.ClientID()] = struct{}{}
		}
		resp.ActiveClients = len(active)

		overdue, err := repos.Installments.ListByCreditorAndStatus(ctx, req.CreditorID,
			valueobject.InstallmentStatusOverdue, time.Time{}, time.Time{})
		if err != nil {
			return fmt.Errorf("list overdue installments: %w", err)
		}
		resp.OverdueInstallments = len(overdue)
		for _, v := range overdue {
			resp.OverdueAmount = resp.OverdueAmount.Add(v.Installment.DueValue())
		}
		return nil
	})
	if err != nil {
		return dto.PortfolioSummaryResponse{}, err
	}
	return resp, nil
}

// ListOverdue lists every Overdue installment of the caller, oldest first.
func (uc *PortfolioUseCase) ListOverdue(ctx context.Context, req dto.CreditorRequest) (dto.InstallmentListResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.InstallmentListResponse{}, err
	}
	return uc.list(ctx, req.CreditorID, func(ctx context.Context, repos port.Repositories) ([]port.InstallmentView, error) {
		return repos.Installments.ListByCreditorAndStatus(ctx, req.CreditorID,
			valueobject.InstallmentStatusOverdue, time.Time{}, time.Time{})
	})
}

// ListDue lists the Pending installments due on AsOf or seven days later,
// the two days a reminder is sent.
func (uc *PortfolioUseCase) ListDue(ctx context.Context, req dto.DueInstallmentsRequest) (dto.InstallmentListResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.InstallmentListResponse{}, err
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	today := valueobject.StartOfDay(asOf)
	ahead := today.AddDate(0, 0, dueReminderLead)

	return uc.list(ctx, req.CreditorID, func(ctx context.Context, repos port.Repositories) ([]port.InstallmentView, error) {
		var out []port.InstallmentView
		for _, day := range []time.Time{today, ahead} {
			views, err := repos.Installments.ListByCreditorAndStatus(ctx, req.CreditorID,
				valueobject.InstallmentStatusPending, day, day.AddDate(0, 0, 1))
			if err != nil {
				return nil, err
			}
			out = append(out, views...)
		}
		return out, nil
	})
}

func (uc *PortfolioUseCase) list(
	ctx context.Context,
	creditorID string,
	query func(context.Context, port.Repositories) ([]port.InstallmentView, error),
) (dto.InstallmentListResponse, error) {
	resp := dto.InstallmentListResponse{Installments: []dto.InstallmentViewResponse{}}
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		creditor, err := repos.Creditors.FindByID(ctx, creditorID)
		if err != nil {
			return fmt.Errorf("find creditor: %w", err)
		}
		views, err := query(ctx, repos)
		if err != nil {
			return fmt.Errorf("list installments: %w", err)
		}
		resp.CreditorPixKey = creditor.PixKey()
		for _, v := range views {
			resp.Installments = append(resp.Installments, toInstallmentViewResponse(v))
		}
		return nil
	})
	if err != nil {
		return dto.InstallmentListResponse{}, err
	}
	return resp, nil
}
