package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/application/usecase"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/pkg/testutil"
)

func TestPreviewSchedule(t *testing.T) {
	uc := usecase.NewPreviewScheduleUseCase()

	resp, err := uc.Execute(context.Background(), dto.PreviewScheduleRequest{
		Code:                 "P-42",
		Principal:            decimal.NewFromInt(1000),
		InterestRate:         decimal.NewNullDecimal(decimal.NewFromInt(10)),
		InterestModel:        "PERCENTAGE_OF_INTEREST",
		InstallmentsQuantity: 3,
		RecurrencePeriod:     "MONTHLY",
		FirstDueDate:         testutil.Date(2024, time.January, 31),
	})
	require.NoError(t, err)
	require.Len(t, resp.Installments, 3)

	wantDates := []time.Time{
		testutil.Date(2024, time.January, 31),
		testutil.Date(2024, time.February, 29),
		testutil.Date(2024, time.March, 31),
	}
	for i, inst := range resp.Installments {
		testutil.AssertDecimal(t, "366.67", inst.DueValue)
		assert.Equal(t, "PENDING", inst.Status)
		assert.True(t, wantDates[i].Equal(inst.DueDate), "installment %d due %s", i+1, inst.DueDate)
	}
	assert.Equal(t, "P-42-1", resp.Installments[0].Code)
	testutil.AssertDecimal(t, "1100.01", resp.Total)
}

func TestPreviewSchedule_Rejects(t *testing.T) {
	uc := usecase.NewPreviewScheduleUseCase()
	base := dto.PreviewScheduleRequest{
		Principal:            decimal.NewFromInt(500),
		InterestModel:        "SIMPLE_INTEREST",
		InstallmentsQuantity: 2,
		RecurrencePeriod:     "WEEKLY",
		FirstDueDate:         testutil.Date(2024, time.March, 1),
	}

	zero := base
	zero.Principal = decimal.Zero
	_, err := uc.Execute(context.Background(), zero)
	assert.Equal(t, apperror.KindInvalidSchedule, apperror.KindOf(err))

	unknown := base
	unknown.InterestModel = "COMPOUND"
	_, err = uc.Execute(context.Background(), unknown)
	assert.Equal(t, apperror.KindUnsupportedModel, apperror.KindOf(err))

	noCount := base
	noCount.InstallmentsQuantity = 0
	_, err = uc.Execute(context.Background(), noCount)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
