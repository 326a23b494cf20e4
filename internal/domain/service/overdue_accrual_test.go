package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/service"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	"github.com/bibbank/lenderledger/pkg/testutil"
)

func TestAccrueOverdue(t *testing.T) {
	due := testutil.Date(2024, 3, 1)
	late, err := model.NewInstallment("loan-1", "L-1", decimal.NewFromInt(100), due, now)
	require.NoError(t, err)
	noFine, err := model.NewInstallment("loan-2", "M-1", decimal.NewFromInt(100), due, now)
	require.NoError(t, err)
	paid, err := late.MarkPaid(decimal.NewFromInt(100), now, now)
	require.NoError(t, err)

	asOf := testutil.Date(2024, 3, 11)
	candidates := []service.AccrualCandidate{
		{Installment: late, CreditorID: testutil.TestCreditorID, DailyFineValue: rate(2)},
		{Installment: noFine, CreditorID: testutil.TestCreditorID},
		{Installment: noFine, CreditorID: testutil.TestCreditorID, DailyFineValue: decimal.NewNullDecimal(decimal.Zero)},
		{Installment: paid, CreditorID: testutil.TestCreditorID, DailyFineValue: rate(2)},
	}

	res, err := service.AccrueOverdue(asOf, candidates, now)
	require.NoError(t, err)

	require.Len(t, res.Updated, 1)
	assert.Equal(t, 1, res.Fined)
	assert.Equal(t, 3, res.Skipped)
	got := res.Updated[0]
	assert.True(t, got.Status().Equal(valueobject.InstallmentStatusOverdue))
	assert.Equal(t, 10, got.DaysLate())
	testutil.AssertDecimal(t, "20", got.TotalFine())
	testutil.AssertDecimal(t, "120", got.DueValue())
	testutil.AssertDecimal(t, "100", got.OriginalDueValue().Decimal)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "lending.installment.fine_accrued", res.Events[0].EventType())

	t.Run("second run on the same day changes nothing", func(t *testing.T) {
		again, err := service.AccrueOverdue(asOf, []service.AccrualCandidate{
			{Installment: got, CreditorID: testutil.TestCreditorID, DailyFineValue: rate(2)},
		}, now)
		require.NoError(t, err)
		assert.Empty(t, again.Updated)
		assert.Empty(t, again.Events)
		assert.Equal(t, 1, again.Fined, "an up-to-date row still counts as fined")
		assert.Zero(t, again.Skipped)
	})
}
