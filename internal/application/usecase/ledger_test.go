package usecase_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/application/usecase"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/pkg/testutil"
)

func TestRegisterPayment_FullPaymentSettlesLoan(t *testing.T) {
	f := newFixture(t)
	loan := f.explicitLoan(t, "F1", "1000", "1000")

	resp, err := f.pay(loan.Installments[0].ID, "1000")
	require.NoError(t, err)

	assert.Equal(t, "full_payment", resp.PaymentType)
	assert.Equal(t, "SETTLED", resp.LoanStatus)
	testutil.AssertDecimal(t, "0", resp.LoanBalance)
	testutil.AssertDecimal(t, "1000", resp.AccountBalance)
	assert.Equal(t, "Maria Souza", resp.ClientName)
	assert.Equal(t, f.pixKey, resp.CreditorPixKey)

	got := f.loan(t, loan.ID)
	require.Len(t, got.Installments, 1)
	assert.Equal(t, "PAID", got.Installments[0].Status)
	testutil.AssertDecimal(t, "1000", got.Installments[0].PaidValue)
	f.requireLedgerBalanced(t)
}

func TestRegisterPayment_PartialPaymentDilutes(t *testing.T) {
	f := newFixture(t)
	loan := f.explicitLoan(t, "P1", "1000", "500", "500")

	resp, err := f.pay(loan.Installments[0].ID, "300")
	require.NoError(t, err)

	assert.Equal(t, "amortization_dilution", resp.PaymentType)
	assert.Equal(t, 1, resp.DilutedCount)
	testutil.AssertDecimal(t, "200", resp.Shortfall)
	require.True(t, resp.NewInstallmentValue.Valid)
	testutil.AssertDecimal(t, "700", resp.NewInstallmentValue.Decimal)
	testutil.AssertDecimal(t, "700", resp.LoanBalance)
	assert.Equal(t, "OPEN", resp.LoanStatus)

	got := f.loan(t, loan.ID)
	require.Len(t, got.Installments, 2)
	assert.Equal(t, "PAID", got.Installments[0].Status)
	testutil.AssertDecimal(t, "300", got.Installments[0].PaidValue)
	assert.Equal(t, "PENDING", got.Installments[1].Status)
	testutil.AssertDecimal(t, "700", got.Installments[1].DueValue)
	f.requireLedgerBalanced(t)
}

func TestRegisterPayment_LastInstallmentShortfallCreatesRemainder(t *testing.T) {
	f := newFixture(t)
	loan := f.explicitLoan(t, "R1", "500", "500")

	resp, err := f.pay(loan.Installments[0].ID, "350")
	require.NoError(t, err)
	assert.Equal(t, "amortization_new_installment", resp.PaymentType)
	require.NotEmpty(t, resp.RemainderInstallmentID)

	got := f.loan(t, loan.ID)
	require.Len(t, got.Installments, 2)
	remainder := got.Installments[1]
	assert.Equal(t, resp.RemainderInstallmentID, remainder.ID)
	assert.True(t, strings.HasSuffix(remainder.Code, "-RESTANTE"))
	testutil.AssertDecimal(t, "150", remainder.DueValue)
	assert.Equal(t, day(2024, 2, 1), remainder.DueDate)
}

func TestRegisterPayment_BalanceTracksCashCollected(t *testing.T) {
	f := newFixture(t)
	loan := f.explicitLoan(t, "B1", "900", "300", "300", "300")

	paid := dec("0")
	for _, amount := range []string{"120", "250.55"} {
		got := f.loan(t, loan.ID)
		var target string
		for _, inst := range got.Installments {
			if inst.Status == "PENDING" {
				target = inst.ID
				break
			}
		}
		_, err := f.pay(target, amount)
		require.NoError(t, err)
		paid = paid.Add(dec(amount))
	}

	got := f.loan(t, loan.ID)
	testutil.AssertDecimal(t, dec("900").Sub(paid).String(), got.LoanBalance)
	f.requireLedgerBalanced(t)
}

func TestRegisterPayment_SettledLoanRejected(t *testing.T) {
	f := newFixture(t)
	loan := f.explicitLoan(t, "S1", "100", "100", "50")

	_, err := f.pay(loan.Installments[0].ID, "100")
	require.NoError(t, err)

	_, err = f.pay(loan.Installments[1].ID, "50")
	assert.Equal(t, apperror.KindInvalidState, apperror.KindOf(err))
}

func TestRegisterPayment_ForeignCreditorGetsNotFound(t *testing.T) {
	f := newFixture(t)
	other := newFixture(t)
	loan := f.explicitLoan(t, "O1", "100", "100")

	_, err := usecase.NewRegisterPaymentUseCase(f.store, discard).Execute(f.ctx, dto.RegisterPaymentRequest{
		CreditorID:    other.creditorID,
		InstallmentID: loan.Installments[0].ID,
		AccountID:     f.accountID,
		AmountPaid:    dec("100"),
	})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestRegisterPayment_FailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	loan := f.explicitLoan(t, "X1", "1000", "500", "500")

	_, err := usecase.NewRegisterPaymentUseCase(f.store, discard).Execute(f.ctx, dto.RegisterPaymentRequest{
		CreditorID:    f.creditorID,
		InstallmentID: loan.Installments[0].ID,
		AccountID:     "missing-account",
		AmountPaid:    dec("300"),
	})
	require.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	got := f.loan(t, loan.ID)
	testutil.AssertDecimal(t, "1000", got.LoanBalance)
	for _, inst := range got.Installments {
		assert.Equal(t, "PENDING", inst.Status)
		testutil.AssertDecimal(t, "500", inst.DueValue)
	}
	assert.Empty(t, f.transactions(t).Transactions)
}

func TestRegisterPayment_DuplicateReferenceRollsBack(t *testing.T) {
	f := newFixture(t)
	loan := f.explicitLoan(t, "D1", "1000", "500", "500")
	uc := usecase.NewRegisterPaymentUseCase(f.store, discard)

	req := dto.RegisterPaymentRequest{
		CreditorID:        f.creditorID,
		InstallmentID:     loan.Installments[0].ID,
		AccountID:         f.accountID,
		AmountPaid:        dec("500"),
		ExternalReference: "charge-1",
	}
	_, err := uc.Execute(f.ctx, req)
	require.NoError(t, err)

	req.InstallmentID = loan.Installments[1].ID
	_, err = uc.Execute(f.ctx, req)
	assert.Equal(t, apperror.KindDuplicatePayment, apperror.KindOf(err))

	got := f.loan(t, loan.ID)
	assert.Equal(t, "PENDING", got.Installments[1].Status)
	assert.Len(t, f.transactions(t).Transactions, 1)
}

func TestRegisterPayment_Validation(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewRegisterPaymentUseCase(f.store, discard)

	_, err := uc.Execute(f.ctx, dto.RegisterPaymentRequest{CreditorID: f.creditorID, AccountID: f.accountID, AmountPaid: dec("1")})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = uc.Execute(f.ctx, dto.RegisterPaymentRequest{
		CreditorID: f.creditorID, InstallmentID: "i", AccountID: f.accountID, AmountPaid: dec("0"),
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestLedger_RejectsSubCentAmounts(t *testing.T) {
	f := newFixture(t)
	loan := f.generatedLoan(t, "SC1", "1100", "0", 3)
	testutil.AssertDecimal(t, "366.67", loan.Installments[0].DueValue)

	_, err := f.pay(loan.Installments[0].ID, "100.005")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "amount_paid:cents")

	_, err = usecase.NewAmortizeLoanUseCase(f.store, discard).Execute(f.ctx, dto.AmortizeLoanRequest{
		CreditorID: f.creditorID, LoanID: loan.ID, AccountID: f.accountID, Amount: dec("100.005"),
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = usecase.NewUpdateLoanPrincipalUseCase(f.store, discard).Execute(f.ctx, dto.UpdateLoanRequest{
		CreditorID: f.creditorID, LoanID: loan.ID, LoanedValue: nullDec("1200.001"),
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = usecase.NewCreateLoanUseCase(f.store, discard).Execute(f.ctx, dto.CreateLoanRequest{
		CreditorID: f.creditorID, ClientID: f.clientID, Code: "SC2", Title: "Sub-cent",
		LoanedValue: dec("1000.005"), InterestModel: "SIMPLE_INTEREST", InstallmentsQuantity: 1,
		RecurrencePeriod: "MONTHLY", FirstDueDate: day(2024, 1, 1),
	})
	assert.Contains(t, err.Error(), "loaned_value:cents")

	// nothing moved
	unchanged := f.loan(t, loan.ID)
	testutil.AssertDecimal(t, "1100", unchanged.LoanedValue)
	testutil.AssertDecimal(t, "1100", unchanged.LoanBalance)
	assert.Empty(t, f.transactions(t).Transactions)

	// trailing zeros are still whole cents
	resp, err := f.pay(loan.Installments[0].ID, "100.000")
	require.NoError(t, err)
	testutil.AssertDecimal(t, "1000", resp.LoanBalance)
	f.requireLedgerBalanced(t)
}

func TestAmortizeLoan_RecalculatesPendingSchedule(t *testing.T) {
	f := newFixture(t)
	loan := f.generatedLoan(t, "AM1", "1000", "10", 5)
	for _, inst := range loan.Installments {
		testutil.AssertDecimal(t, "300", inst.DueValue)
	}

	resp, err := usecase.NewAmortizeLoanUseCase(f.store, discard).Execute(f.ctx, dto.AmortizeLoanRequest{
		CreditorID: f.creditorID,
		LoanID:     loan.ID,
		AccountID:  f.accountID,
		Amount:     dec("400"),
	})
	require.NoError(t, err)

	testutil.AssertDecimal(t, "600", resp.NewLoanedValue)
	testutil.AssertDecimal(t, "600", resp.LoanBalance)
	testutil.AssertDecimal(t, "180", resp.PerInstallment)
	testutil.AssertDecimal(t, "400", resp.AccountBalance)

	got := f.loan(t, loan.ID)
	require.Len(t, got.Installments, 5)
	for n, inst := range got.Installments {
		testutil.AssertDecimal(t, "180.00", inst.DueValue)
		assert.Equal(t, loan.Installments[n].DueDate, inst.DueDate)
		assert.Equal(t, fmt.Sprintf("AM1-%d-RECALC", n+1), inst.Code)
	}
	f.requireLedgerBalanced(t)

	txs := f.transactions(t).Transactions
	require.Len(t, txs, 1)
	assert.Equal(t, "AMORTIZATION", txs[0].Category)
}

func TestAmortizeLoan_WholePrincipalAllowed(t *testing.T) {
	f := newFixture(t)
	loan := f.generatedLoan(t, "AM2", "1000", "10", 2)

	resp, err := usecase.NewAmortizeLoanUseCase(f.store, discard).Execute(f.ctx, dto.AmortizeLoanRequest{
		CreditorID: f.creditorID, LoanID: loan.ID, AccountID: f.accountID, Amount: dec("1000"),
	})
	require.NoError(t, err)
	testutil.AssertDecimal(t, "0", resp.NewLoanedValue)
	assert.Equal(t, "SETTLED", resp.LoanStatus)
}

func TestAmortizeLoan_Errors(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewAmortizeLoanUseCase(f.store, discard)

	withRate := f.generatedLoan(t, "E1", "1000", "10", 2)
	_, err := uc.Execute(f.ctx, dto.AmortizeLoanRequest{
		CreditorID: f.creditorID, LoanID: withRate.ID, AccountID: f.accountID, Amount: dec("1000.01"),
	})
	assert.Equal(t, apperror.KindNegativeAmortization, apperror.KindOf(err))

	noRate := f.explicitLoan(t, "E2", "1000", "500", "500")
	_, err = uc.Execute(f.ctx, dto.AmortizeLoanRequest{
		CreditorID: f.creditorID, LoanID: noRate.ID, AccountID: f.accountID, Amount: dec("100"),
	})
	assert.Equal(t, apperror.KindMissingRate, apperror.KindOf(err))

	// nothing persisted by the failed attempts
	assert.Empty(t, f.transactions(t).Transactions)
}

func TestAccrueOverdueFines_AppliesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	loan := f.explicitLoan(t, "AC1", "200", "100", "100")
	uc := usecase.NewAccrueOverdueFinesUseCase(f.store, discard)

	asOf := day(2024, 1, 11)
	first, err := uc.Execute(f.ctx, dto.AccrueOverdueFinesRequest{AsOf: asOf})
	require.NoError(t, err)
	assert.Equal(t, 1, first.UpdatedCount)
	assert.Equal(t, 1, first.ChangedCount)

	got := f.loan(t, loan.ID)
	late := got.Installments[0]
	assert.Equal(t, "OVERDUE", late.Status)
	assert.Equal(t, 10, late.DaysLate)
	testutil.AssertDecimal(t, "20", late.TotalFine)
	testutil.AssertDecimal(t, "120", late.DueValue)
	require.True(t, late.OriginalDueValue.Valid)
	testutil.AssertDecimal(t, "100", late.OriginalDueValue.Decimal)
	assert.Equal(t, "PENDING", got.Installments[1].Status)

	second, err := uc.Execute(f.ctx, dto.AccrueOverdueFinesRequest{AsOf: asOf})
	require.NoError(t, err)
	assert.Equal(t, 1, second.UpdatedCount, "same-day re-run still reports the fined row")
	assert.Equal(t, 0, second.ChangedCount)
	again := f.loan(t, loan.ID).Installments[0]
	assert.Equal(t, late.DueValue.String(), again.DueValue.String())
	assert.Equal(t, late.TotalFine.String(), again.TotalFine.String())
	assert.Equal(t, late.DaysLate, again.DaysLate)

	// the row is already Overdue and is still picked up the next day
	third, err := uc.Execute(f.ctx, dto.AccrueOverdueFinesRequest{AsOf: day(2024, 1, 12)})
	require.NoError(t, err)
	assert.Equal(t, 1, third.ChangedCount)
	next := f.loan(t, loan.ID).Installments[0]
	assert.Equal(t, "OVERDUE", next.Status)
	assert.Equal(t, 11, next.DaysLate)
	testutil.AssertDecimal(t, "100", next.OriginalDueValue.Decimal)
	testutil.AssertDecimal(t, "22", next.TotalFine)
	testutil.AssertDecimal(t, "122", next.DueValue)
}

func TestAccrueOverdueFines_OverdueInstallmentCanBePaid(t *testing.T) {
	f := newFixture(t)
	loan := f.explicitLoan(t, "AC2", "100", "100")

	_, err := usecase.NewAccrueOverdueFinesUseCase(f.store, discard).Execute(f.ctx,
		dto.AccrueOverdueFinesRequest{AsOf: day(2024, 1, 6)})
	require.NoError(t, err)

	resp, err := f.pay(loan.Installments[0].ID, "110")
	require.NoError(t, err)
	assert.Equal(t, "full_payment", resp.PaymentType)
	assert.Equal(t, "SETTLED", resp.LoanStatus)
}
