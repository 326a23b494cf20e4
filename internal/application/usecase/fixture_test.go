package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/application/usecase"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/infrastructure/memory"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubHasher is a func-field test double for port.PasswordHasher.
type stubHasher struct {
	HashFn    func(password string) (string, error)
	CompareFn func(hash, password string) error
}

func (s stubHasher) Hash(password string) (string, error) {
	if s.HashFn != nil {
		return s.HashFn(password)
	}
	return "hashed:" + password, nil
}

func (s stubHasher) Compare(hash, password string) error {
	if s.CompareFn != nil {
		return s.CompareFn(hash, password)
	}
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

var _ port.PasswordHasher = stubHasher{}

type fixture struct {
	ctx        context.Context
	store      *memory.Store
	creditorID string
	pixKey     string
	clientID   string
	accountID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: memory.NewStore(), pixKey: "lender@pix.example"}

	creditor, err := usecase.NewRegisterCreditorUseCase(f.store, stubHasher{}, discard).Execute(f.ctx, dto.RegisterCreditorRequest{
		Name:     "Lender",
		Email:    "lender@example.com",
		Password: "s3cret-pass",
		PixKey:   f.pixKey,
	})
	require.NoError(t, err)
	f.creditorID = creditor.ID

	client, err := usecase.NewCreateClientUseCase(f.store, discard).Execute(f.ctx, dto.CreateClientRequest{
		CreditorID: f.creditorID,
		ClientFields: dto.ClientFields{
			Name:     "Maria Souza",
			CPF:      "529.982.247-25",
			WhatsApp: "(11) 98765-4321",
		},
	})
	require.NoError(t, err)
	f.clientID = client.ID

	accounts, err := usecase.NewSetupAccountsUseCase(f.store, discard).Execute(f.ctx, dto.SetupAccountsRequest{
		CreditorID: f.creditorID,
		Names:      []string{"Main"},
	})
	require.NoError(t, err)
	f.accountID = accounts.Accounts[0].ID
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullDec(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// explicitLoan books a loan whose installments are listed one per due value,
// monthly from 2024-01-01.
func (f *fixture) explicitLoan(t *testing.T, code string, principal string, dues ...string) dto.LoanResponse {
	t.Helper()
	items := make([]dto.ExplicitInstallment, 0, len(dues))
	for n, v := range dues {
		items = append(items, dto.ExplicitInstallment{DueValue: dec(v), DueDate: day(2024, time.Month(1+n), 1)})
	}
	loan, err := usecase.NewCreateLoanUseCase(f.store, discard).Execute(f.ctx, dto.CreateLoanRequest{
		CreditorID:           f.creditorID,
		ClientID:             f.clientID,
		Code:                 code,
		Title:                "Loan " + code,
		LoanedValue:          dec(principal),
		InterestModel:        "SIMPLE_INTEREST",
		InstallmentsQuantity: len(dues),
		RecurrencePeriod:     "MONTHLY",
		DailyFineValue:       decimal.NewNullDecimal(dec("2")),
		FirstDueDate:         day(2024, 1, 1),
		Installments:         items,
	})
	require.NoError(t, err)
	return loan
}

// generatedLoan books a loan with a generated monthly schedule.
func (f *fixture) generatedLoan(t *testing.T, code, principal, rate string, count int) dto.LoanResponse {
	t.Helper()
	loan, err := usecase.NewCreateLoanUseCase(f.store, discard).Execute(f.ctx, dto.CreateLoanRequest{
		CreditorID:           f.creditorID,
		ClientID:             f.clientID,
		Code:                 code,
		Title:                "Loan " + code,
		LoanedValue:          dec(principal),
		InterestRate:         decimal.NewNullDecimal(dec(rate)),
		InterestModel:        "SIMPLE_INTEREST",
		InstallmentsQuantity: count,
		RecurrencePeriod:     "MONTHLY",
		DailyFineValue:       decimal.NewNullDecimal(dec("2")),
		FirstDueDate:         day(2024, 1, 1),
	})
	require.NoError(t, err)
	return loan
}

func (f *fixture) loan(t *testing.T, id string) dto.LoanResponse {
	t.Helper()
	loan, err := usecase.NewGetLoanUseCase(f.store).Execute(f.ctx, dto.LoanRequest{CreditorID: f.creditorID, LoanID: id})
	require.NoError(t, err)
	return loan
}

func (f *fixture) pay(installmentID, amount string) (dto.PaymentResponse, error) {
	return usecase.NewRegisterPaymentUseCase(f.store, discard).Execute(f.ctx, dto.RegisterPaymentRequest{
		CreditorID:    f.creditorID,
		InstallmentID: installmentID,
		AccountID:     f.accountID,
		AmountPaid:    dec(amount),
		PaymentDate:   day(2024, 1, 1),
	})
}

func (f *fixture) transactions(t *testing.T) dto.TransactionListResponse {
	t.Helper()
	out, err := usecase.NewListTransactionsUseCase(f.store).Execute(f.ctx, dto.AccountRequest{
		CreditorID: f.creditorID,
		AccountID:  f.accountID,
	})
	require.NoError(t, err)
	return out
}

// requireLedgerBalanced checks that the account balance equals the sum of
// its inflows.
func (f *fixture) requireLedgerBalanced(t *testing.T) {
	t.Helper()
	list := f.transactions(t)
	sum := decimal.Zero
	for _, tx := range list.Transactions {
		if tx.Type == "INFLOW" {
			sum = sum.Add(tx.Value)
		} else {
			sum = sum.Sub(tx.Value)
		}
	}
	require.Truef(t, sum.Equal(list.Account.Balance), "account balance %s, transactions sum %s", list.Account.Balance, sum)
}
