package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/service"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

// PreviewScheduleUseCase runs the schedule generator on proposed loan terms.
type PreviewScheduleUseCase struct{}

func NewPreviewScheduleUseCase() *PreviewScheduleUseCase {
	return &PreviewScheduleUseCase{}
}

func (uc *PreviewScheduleUseCase) Execute(_ context.Context, req dto.PreviewScheduleRequest) (dto.ScheduleResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.ScheduleResponse{}, err
	}
	interestModel, err := valueobject.NewInterestModel(req.InterestModel)
	if err != nil {
		return dto.ScheduleResponse{}, apperror.Wrap(apperror.KindUnsupportedModel, err, "parse interest model")
	}
	period, err := valueobject.NewRecurrencePeriod(req.RecurrencePeriod)
	if err != nil {
		return dto.ScheduleResponse{}, apperror.Wrap(apperror.KindValidation, err, "parse recurrence period")
	}
	code := req.Code
	if code == "" {
		code = "P"
	}

	insts, err := service.GenerateSchedule(service.ScheduleRequest{
		LoanCode:     code,
		Principal:    req.Principal,
		Count:        req.InstallmentsQuantity,
		FirstDueDate: req.FirstDueDate,
		Period:       period,
		Model:        interestModel,
		Rate:         req.InterestRate,
	}, time.Now().UTC())
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	total := decimal.Zero
	for _, i := range insts {
		total = total.Add(i.DueValue())
	}
	return dto.ScheduleResponse{Installments: toInstallmentResponses(insts), Total: total}, nil
}
