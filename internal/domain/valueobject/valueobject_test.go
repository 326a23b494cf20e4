package valueobject_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRecurrencePeriod_Advance(t *testing.T) {
	tests := []struct {
		name   string
		period valueobject.RecurrencePeriod
		start  time.Time
		n      int
		want   time.Time
	}{
		{"daily", valueobject.RecurrenceDaily, date(2024, 1, 30), 3, date(2024, 2, 2)},
		{"weekly", valueobject.RecurrenceWeekly, date(2024, 1, 1), 2, date(2024, 1, 15)},
		{"biweekly", valueobject.RecurrenceBiweekly, date(2024, 1, 1), 1, date(2024, 1, 15)},
		{"monthly plain", valueobject.RecurrenceMonthly, date(2024, 1, 10), 1, date(2024, 2, 10)},
		{"monthly clamps leap february", valueobject.RecurrenceMonthly, date(2024, 1, 31), 1, date(2024, 2, 29)},
		{"monthly clamps february", valueobject.RecurrenceMonthly, date(2023, 1, 31), 1, date(2023, 2, 28)},
		{"monthly does not drift", valueobject.RecurrenceMonthly, date(2024, 1, 31), 2, date(2024, 3, 31)},
		{"monthly across year", valueobject.RecurrenceMonthly, date(2024, 11, 30), 3, date(2025, 2, 28)},
		{"zero steps", valueobject.RecurrenceMonthly, date(2024, 5, 5), 0, date(2024, 5, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.period.Advance(tt.start, tt.n))
		})
	}
}

func TestNewRecurrencePeriod(t *testing.T) {
	p, err := valueobject.NewRecurrencePeriod("monthly")
	require.NoError(t, err)
	assert.True(t, p.Equal(valueobject.RecurrenceMonthly))

	_, err = valueobject.NewRecurrencePeriod("YEARLY")
	assert.Error(t, err)
}

func TestNewInterestModel(t *testing.T) {
	m, err := valueobject.NewInterestModel("PercentualDosJuros")
	require.NoError(t, err)
	assert.True(t, m.Equal(valueobject.InterestModelPercentage))

	m, err = valueobject.NewInterestModel("SIMPLE_INTEREST")
	require.NoError(t, err)
	assert.True(t, m.IsSupported())

	_, err = valueobject.NewInterestModel("Compound")
	assert.Error(t, err)
	assert.False(t, valueobject.UnknownInterestModel("Compound").IsSupported())
}

func TestStatuses(t *testing.T) {
	s, err := valueobject.NewInstallmentStatus("OVERDUE")
	require.NoError(t, err)
	assert.True(t, s.IsOpen())
	assert.False(t, valueobject.InstallmentStatusPaid.IsOpen())

	_, err = valueobject.NewLoanStatus("CLOSED")
	assert.Error(t, err)

	l, err := valueobject.NewLoanStatus("SETTLED")
	require.NoError(t, err)
	assert.True(t, l.Equal(valueobject.LoanStatusSettled))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 5, valueobject.DaysBetween(date(2024, 1, 10), date(2024, 1, 15)))
	assert.Equal(t, 0, valueobject.DaysBetween(date(2024, 1, 10), time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, valueobject.DaysBetween(date(2024, 1, 10), date(2024, 1, 9)))
}

func TestStartOfDay_UsesLocalCalendarDay(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	lateEvening := time.Date(2024, 6, 1, 22, 30, 0, 0, brt)

	assert.Equal(t, date(2024, 6, 1), valueobject.StartOfDay(lateEvening))
}

func TestNewCPF(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid masked", "529.982.247-25", false},
		{"valid digits", "52998224725", false},
		{"bad check digit", "529.982.247-24", true},
		{"repeated digits", "111.111.111-11", true},
		{"too short", "1234567890", true},
		{"letters", "5299822472a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpf, err := valueobject.NewCPF(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "52998224725", cpf.String())
			assert.Equal(t, "529.982.247-25", cpf.Formatted())
		})
	}
}

func TestNewPhone(t *testing.T) {
	p, err := valueobject.NewPhone("(11) 98765-4321", "")
	require.NoError(t, err)
	assert.Equal(t, "+5511987654321", p.String())

	_, err = valueobject.NewPhone("123", "BR")
	assert.Error(t, err)
}
