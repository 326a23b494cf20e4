package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	"github.com/bibbank/lenderledger/pkg/testutil"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func validLoanParams() model.LoanParams {
	return model.LoanParams{
		CreditorID:           testutil.TestCreditorID,
		ClientID:             testutil.TestClientID,
		Code:                 "L-100",
		Title:                "Working capital",
		LoanedValue:          decimal.NewFromInt(1000),
		InterestRate:         decimal.NewNullDecimal(decimal.NewFromInt(10)),
		InterestModel:        valueobject.InterestModelSimple,
		InstallmentsQuantity: 5,
		Recurrence:           valueobject.RecurrenceMonthly,
		DailyFineValue:       decimal.NewNullDecimal(decimal.NewFromInt(2)),
		LoanDate:             now,
	}
}

func newTestLoan(t *testing.T) model.Loan {
	t.Helper()
	loan, err := model.NewLoan(validLoanParams(), now)
	require.NoError(t, err)
	return loan
}

func TestNewLoan(t *testing.T) {
	loan := newTestLoan(t)

	assert.NotEmpty(t, loan.ID())
	assert.Equal(t, "L-100", loan.Code())
	assert.True(t, loan.LoanBalance().Equal(loan.LoanedValue()), "balance starts at the loaned value")
	assert.True(t, loan.Status().Equal(valueobject.LoanStatusOpen))
	assert.Equal(t, testutil.Date(2024, 1, 1), loan.LoanDate())
	assert.Equal(t, 1, loan.Version())
	require.Len(t, loan.DomainEvents(), 1)
	assert.Equal(t, "lending.loan.created", loan.DomainEvents()[0].EventType())
	assert.True(t, loan.AccruesFines())
}

func TestNewLoan_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *model.LoanParams)
	}{
		{"missing creditor", func(p *model.LoanParams) { p.CreditorID = "" }},
		{"missing client", func(p *model.LoanParams) { p.ClientID = "" }},
		{"blank code", func(p *model.LoanParams) { p.Code = "  " }},
		{"blank title", func(p *model.LoanParams) { p.Title = "" }},
		{"zero principal", func(p *model.LoanParams) { p.LoanedValue = decimal.Zero }},
		{"no installments", func(p *model.LoanParams) { p.InstallmentsQuantity = 0 }},
		{"no recurrence", func(p *model.LoanParams) { p.Recurrence = valueobject.RecurrencePeriod{} }},
		{"negative rate", func(p *model.LoanParams) { p.InterestRate = decimal.NewNullDecimal(decimal.NewFromInt(-1)) }},
		{"negative fine", func(p *model.LoanParams) { p.DailyFineValue = decimal.NewNullDecimal(decimal.NewFromInt(-1)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validLoanParams()
			tt.mutate(&p)
			_, err := model.NewLoan(p, now)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestLoan_ReduceBalance(t *testing.T) {
	loan := newTestLoan(t)

	updated, err := loan.ReduceBalance(decimal.NewFromInt(300), "full_payment", now)
	require.NoError(t, err)

	testutil.AssertDecimal(t, "700", updated.LoanBalance())
	assert.True(t, updated.Status().Equal(valueobject.LoanStatusOpen))
	assert.Len(t, updated.DomainEvents(), 2)
	testutil.AssertDecimal(t, "1000", loan.LoanBalance(), "original must not change")
	assert.Len(t, loan.DomainEvents(), 1)
}

func TestLoan_ReduceBalance_SettlesOnce(t *testing.T) {
	loan := newTestLoan(t)

	settled, err := loan.ReduceBalance(decimal.NewFromInt(1200), "full_payment", now)
	require.NoError(t, err)
	testutil.AssertDecimal(t, "-200", settled.LoanBalance())
	assert.True(t, settled.Status().Equal(valueobject.LoanStatusSettled))

	types := make([]string, 0, len(settled.DomainEvents()))
	for _, e := range settled.DomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, []string{"lending.loan.created", "lending.loan.balance_reduced", "lending.loan.settled"}, types)

	_, err = settled.ReduceBalance(decimal.NewFromInt(1), "full_payment", now)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
	assert.ErrorIs(t, settled.EnsureOpen(), valueobject.ErrInvalidStatusTransition)
}

func TestLoan_ReduceBalance_RejectsNonPositive(t *testing.T) {
	loan := newTestLoan(t)
	_, err := loan.ReduceBalance(decimal.Zero, "full_payment", now)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLoan_ChangePrincipal(t *testing.T) {
	loan := newTestLoan(t)

	t.Run("updates principal and balance", func(t *testing.T) {
		updated, err := loan.ChangePrincipal(decimal.NewFromInt(600), decimal.NewFromInt(600), "amortization", now)
		require.NoError(t, err)
		testutil.AssertDecimal(t, "600", updated.LoanedValue())
		testutil.AssertDecimal(t, "600", updated.LoanBalance())
		assert.True(t, updated.Status().Equal(valueobject.LoanStatusOpen))
	})

	t.Run("zero balance settles", func(t *testing.T) {
		updated, err := loan.ChangePrincipal(decimal.Zero, decimal.Zero, "amortization", now)
		require.NoError(t, err)
		assert.True(t, updated.Status().Equal(valueobject.LoanStatusSettled))
	})

	t.Run("negative principal rejected", func(t *testing.T) {
		_, err := loan.ChangePrincipal(decimal.NewFromInt(-1), decimal.Zero, "amortization", now)
		assert.ErrorIs(t, err, apperror.ErrNegativeAmortization)
	})
}

func TestLoan_RequireRate(t *testing.T) {
	p := validLoanParams()
	p.InterestRate = decimal.NullDecimal{}
	loan, err := model.NewLoan(p, now)
	require.NoError(t, err)

	_, err = loan.RequireRate()
	assert.ErrorIs(t, err, apperror.ErrMissingRate)

	rate, err := newTestLoan(t).RequireRate()
	require.NoError(t, err)
	testutil.AssertDecimal(t, "10", rate)
}

func TestLoan_Retitle(t *testing.T) {
	loan := newTestLoan(t)

	updated, err := loan.Retitle("  Renovation  ", now)
	require.NoError(t, err)
	assert.Equal(t, "Renovation", updated.Title())

	_, err = loan.Retitle("", now)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestReconstructLoan_RoundTripsSnapshot(t *testing.T) {
	loan := newTestLoan(t)
	rebuilt := model.ReconstructLoan(loan.Snapshot())

	assert.Equal(t, loan.Snapshot(), rebuilt.Snapshot())
	assert.Empty(t, rebuilt.DomainEvents())
	assert.True(t, rebuilt.OwnedBy(testutil.TestCreditorID))
	assert.False(t, rebuilt.OwnedBy(testutil.TestCreditorID2))
}
