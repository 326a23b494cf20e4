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
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

// CreateLoanUseCase books a loan together with its installment schedule.
type CreateLoanUseCase struct {
	uow    port.UnitOfWork
	logger *slog.Logger
}

// NewCreateLoanUseCase wires dependencies.
func NewCreateLoanUseCase(uow port.UnitOfWork, logger *slog.Logger) *CreateLoanUseCase {
	return &CreateLoanUseCase{uow: uow, logger: logger}
}

// Execute creates the loan. The schedule is generated from the loan terms
// unless the request lists its installments explicitly.
func (uc *CreateLoanUseCase) Execute(
	ctx context.Context,
	req dto.CreateLoanRequest,
) (dto.LoanResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.LoanResponse{}, err
	}
	interestModel, err := valueobject.NewInterestModel(req.InterestModel)
	if err != nil {
		return dto.LoanResponse{}, apperror.Wrap(apperror.KindUnsupportedModel, err, "parse interest model")
	}
	period, err := valueobject.NewRecurrencePeriod(req.RecurrencePeriod)
	if err != nil {
		return dto.LoanResponse{}, apperror.Wrap(apperror.KindValidation, err, "parse recurrence period")
	}
	if n := len(req.Installments); n > 0 && n != req.InstallmentsQuantity {
		return dto.LoanResponse{}, apperror.New(apperror.KindInvalidSchedule,
			"%d installments listed for a loan of %d", n, req.InstallmentsQuantity)
	}

	now := time.Now().UTC()
	loanDate := req.LoanDate
	if loanDate.IsZero() {
		loanDate = now
	}

	var resp dto.LoanResponse
	err = uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		// 1. The client must belong to the caller.
		if _, err := findOwnedClient(ctx, repos, req.CreditorID, req.ClientID); err != nil {
			return fmt.Errorf("find client: %w", err)
		}

		// 2. Build the loan and its schedule.
		loan, err := model.NewLoan(model.LoanParams{
			CreditorID:           req.CreditorID,
			ClientID:             req.ClientID,
			Code:                 req.Code,
			Title:                req.Title,
			LoanedValue:          req.LoanedValue,
			InterestRate:         req.InterestRate,
			InterestModel:        interestModel,
			InstallmentsQuantity: req.InstallmentsQuantity,
			Recurrence:           period,
			DailyFineValue:       req.DailyFineValue,
			LoanDate:             loanDate,
			Description:          req.Description,
		}, now)
		if err != nil {
			return fmt.Errorf("new loan: %w", err)
		}

		var insts []model.Installment
		if len(req.Installments) > 0 {
			insts, err = explicitSchedule(loan, req.Installments, now)
		} else {
			insts, err = service.GenerateSchedule(service.ScheduleRequest{
				LoanID:       loan.ID(),
				LoanCode:     loan.Code(),
				Principal:    loan.LoanedValue(),
				Count:        loan.InstallmentsQuantity(),
				FirstDueDate: req.FirstDueDate,
				Period:       period,
				Model:        interestModel,
				Rate:         loan.InterestRate(),
			}, now)
		}
		if err != nil {
			return fmt.Errorf("build schedule: %w", err)
		}

		// 3. Persist.
		if err := repos.Loans.Save(ctx, loan); err != nil {
			return fmt.Errorf("save loan: %w", err)
		}
		if err := repos.Installments.SaveAll(ctx, insts); err != nil {
			return fmt.Errorf("save installments: %w", err)
		}
		if err := storeEvents(ctx, repos.Outbox, loan.DomainEvents()...); err != nil {
			return fmt.Errorf("store events: %w", err)
		}

		resp = toLoanResponse(loan, insts)
		return nil
	})
	if err != nil {
		return dto.LoanResponse{}, err
	}

	uc.logger.Info("loan created", "loan_id", resp.ID, "code", resp.Code, "installments", len(resp.Installments))
	return resp, nil
}

func explicitSchedule(loan model.Loan, items []dto.ExplicitInstallment, now time.Time) ([]model.Installment, error) {
	out := make([]model.Installment, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for n, item := range items {
		code := strings.TrimSpace(item.Code)
		if code == "" {
			code = fmt.Sprintf("%s-%d", loan.Code(), n+1)
		}
		if _, dup := seen[code]; dup {
			return nil, apperror.New(apperror.KindInvalidSchedule, "installment code %q is repeated", code)
		}
		seen[code] = struct{}{}
		if !item.DueValue.IsPositive() {
			return nil, apperror.New(apperror.KindInvalidSchedule, "installment %s due value must be positive", code)
		}
		inst, err := model.NewInstallment(loan.ID(), code, item.DueValue, item.DueDate, now)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	service.SortByDueDate(out)
	return out, nil
}
