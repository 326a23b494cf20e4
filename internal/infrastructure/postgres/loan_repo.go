package postgres

import (
	"context"
	"fmt"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	pgutil "github.com/bibbank/lenderledger/pkg/postgres"
)

const loanColumns = `
	id, creditor_id, client_id, code, title, loaned_value, loan_balance,
	interest_rate, interest_model, installments_quantity, recurrence_period,
	daily_fine_value, status, loan_date, description, version, created_at, updated_at`

// LoanRepo implements port.LoanRepository.
type LoanRepo struct {
	q pgutil.Querier
}

// NewLoanRepo creates a loan repository over q.
func NewLoanRepo(q pgutil.Querier) *LoanRepo {
	return &LoanRepo{q: q}
}

// Save inserts a new loan or updates an existing one, guarded by the version
// the loan was read with.
func (r *LoanRepo) Save(ctx context.Context, loan model.Loan) error {
	s := loan.Snapshot()
	const query = `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			title                 = EXCLUDED.title,
			loaned_value          = EXCLUDED.loaned_value,
			loan_balance          = EXCLUDED.loan_balance,
			interest_rate         = EXCLUDED.interest_rate,
			installments_quantity = EXCLUDED.installments_quantity,
			daily_fine_value      = EXCLUDED.daily_fine_value,
			status                = EXCLUDED.status,
			description           = EXCLUDED.description,
			version               = loans.version + 1,
			updated_at            = EXCLUDED.updated_at
		WHERE loans.version = $16
	`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.CreditorID, s.ClientID, s.Code, s.Title, s.LoanedValue, s.LoanBalance,
		s.InterestRate, s.InterestModel.String(), s.InstallmentsQuantity, s.Recurrence.String(),
		s.DailyFineValue, s.Status.String(), s.LoanDate, s.Description, s.Version, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindConflict, "loan %s was modified concurrently", s.ID)
	}
	return nil
}

func (r *LoanRepo) FindByID(ctx context.Context, id string) (model.Loan, error) {
	return r.findOne(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
}

// FindByIDForUpdate locks the loan row until the transaction ends.
func (r *LoanRepo) FindByIDForUpdate(ctx context.Context, id string) (model.Loan, error) {
	return r.findOne(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id)
}

func (r *LoanRepo) ListByCreditor(ctx context.Context, creditorID string) ([]model.Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans WHERE creditor_id = $1 ORDER BY created_at DESC, code`, creditorID)
}

func (r *LoanRepo) ListByClient(ctx context.Context, clientID string) ([]model.Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans WHERE client_id = $1 ORDER BY created_at DESC, code`, clientID)
}

func (r *LoanRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("loan", id)
	}
	return nil
}

func (r *LoanRepo) findOne(ctx context.Context, query, id string) (model.Loan, error) {
	loan, err := scanLoan(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return model.Loan{}, notFoundOr(err, "loan", id)
	}
	return loan, nil
}

func (r *LoanRepo) list(ctx context.Context, query string, args ...any) ([]model.Loan, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	return collect(rows, scanLoan)
}

func scanLoan(row rowScanner) (model.Loan, error) {
	var (
		s                     model.LoanSnapshot
		interestModel, period string
		status                string
	)
	if err := row.Scan(
		&s.ID, &s.CreditorID, &s.ClientID, &s.Code, &s.Title, &s.LoanedValue, &s.LoanBalance,
		&s.InterestRate, &interestModel, &s.InstallmentsQuantity, &period,
		&s.DailyFineValue, &status, &s.LoanDate, &s.Description, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return model.Loan{}, err
	}

	var err error
	if s.InterestModel, err = valueobject.NewInterestModel(interestModel); err != nil {
		s.InterestModel = valueobject.UnknownInterestModel(interestModel)
	}
	if s.Recurrence, err = valueobject.NewRecurrencePeriod(period); err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", s.ID, err)
	}
	if s.Status, err = valueobject.NewLoanStatus(status); err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", s.ID, err)
	}
	return model.ReconstructLoan(s), nil
}
