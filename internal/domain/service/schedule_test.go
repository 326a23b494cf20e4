package service_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/service"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	"github.com/bibbank/lenderledger/pkg/testutil"
)

var now = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func rate(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }

func TestGenerateSchedule(t *testing.T) {
	insts, err := service.GenerateSchedule(service.ScheduleRequest{
		LoanID:       "loan-1",
		LoanCode:     "L-7",
		Principal:    decimal.NewFromInt(1000),
		Count:        3,
		FirstDueDate: testutil.Date(2024, 1, 31),
		Period:       valueobject.RecurrenceMonthly,
		Model:        valueobject.InterestModelPercentage,
		Rate:         rate(20),
	}, now)
	require.NoError(t, err)
	require.Len(t, insts, 3)

	wantDates := []time.Time{testutil.Date(2024, 1, 31), testutil.Date(2024, 2, 29), testutil.Date(2024, 3, 31)}
	for i, inst := range insts {
		assert.Equal(t, "loan-1", inst.LoanID())
		assert.Equal(t, []string{"L-7-1", "L-7-2", "L-7-3"}[i], inst.Code())
		assert.Equal(t, wantDates[i], inst.DueDate())
		assert.True(t, inst.IsPending())
		testutil.AssertDecimal(t, "400", inst.DueValue())
		testutil.AssertDecimal(t, "0", inst.PaidValue())
	}
}

func TestGenerateSchedule_WeeklyNilRate(t *testing.T) {
	insts, err := service.GenerateSchedule(service.ScheduleRequest{
		LoanID:       "loan-1",
		LoanCode:     "W",
		Principal:    decimal.NewFromInt(100),
		Count:        3,
		FirstDueDate: testutil.Date(2024, 1, 1),
		Period:       valueobject.RecurrenceWeekly,
		Model:        valueobject.InterestModelSimple,
	}, now)
	require.NoError(t, err)
	require.Len(t, insts, 3)
	testutil.AssertDecimal(t, "33.33", insts[0].DueValue())
	assert.Equal(t, testutil.Date(2024, 1, 15), insts[2].DueDate())
}

func TestGenerateSchedule_Errors(t *testing.T) {
	base := service.ScheduleRequest{
		LoanID:       "loan-1",
		LoanCode:     "L",
		Principal:    decimal.NewFromInt(100),
		Count:        2,
		FirstDueDate: testutil.Date(2024, 1, 1),
		Period:       valueobject.RecurrenceDaily,
		Model:        valueobject.InterestModelSimple,
		Rate:         rate(5),
	}

	tests := []struct {
		name   string
		mutate func(r *service.ScheduleRequest)
		want   error
	}{
		{"zero count", func(r *service.ScheduleRequest) { r.Count = 0 }, apperror.ErrInvalidSchedule},
		{"negative count", func(r *service.ScheduleRequest) { r.Count = -1 }, apperror.ErrInvalidSchedule},
		{"zero principal", func(r *service.ScheduleRequest) { r.Principal = decimal.Zero }, apperror.ErrInvalidSchedule},
		{"unknown model", func(r *service.ScheduleRequest) { r.Model = valueobject.UnknownInterestModel("PRICE") }, apperror.ErrUnsupportedModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := service.GenerateSchedule(req, now)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInstallmentValue(t *testing.T) {
	tests := []struct {
		name      string
		model     valueobject.InterestModel
		principal string
		rate      string
		count     int
		want      string
	}{
		{"simple interest", valueobject.InterestModelSimple, "600", "10", 5, "180"},
		{"percentage of interest", valueobject.InterestModelPercentage, "600", "10", 5, "132"},
		{"zero principal", valueobject.InterestModelSimple, "0", "10", 5, "0"},
		{"rounds to cents", valueobject.InterestModelPercentage, "100", "0", 3, "33.33"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.InstallmentValue(tt.model, decimal.RequireFromString(tt.principal), decimal.RequireFromString(tt.rate), tt.count)
			require.NoError(t, err)
			testutil.AssertDecimal(t, tt.want, got)
		})
	}
}
