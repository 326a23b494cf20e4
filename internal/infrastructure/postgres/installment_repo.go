package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	pgutil "github.com/bibbank/lenderledger/pkg/postgres"
)

const installmentColumns = `
	i.id, i.loan_id, i.code, i.due_value, i.original_due_value, i.paid_value,
	i.status, i.due_date, i.days_late, i.total_fine, i.paid_at, i.created_at, i.updated_at`

// InstallmentRepo implements port.InstallmentRepository.
type InstallmentRepo struct {
	q pgutil.Querier
}

// NewInstallmentRepo creates an installment repository over q.
func NewInstallmentRepo(q pgutil.Querier) *InstallmentRepo {
	return &InstallmentRepo{q: q}
}

func (r *InstallmentRepo) Save(ctx context.Context, inst model.Installment) error {
	s := inst.Snapshot()
	const query = `
		INSERT INTO installments (
			id, loan_id, code, due_value, original_due_value, paid_value,
			status, due_date, days_late, total_fine, paid_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			due_value          = EXCLUDED.due_value,
			original_due_value = EXCLUDED.original_due_value,
			paid_value         = EXCLUDED.paid_value,
			status             = EXCLUDED.status,
			days_late          = EXCLUDED.days_late,
			total_fine         = EXCLUDED.total_fine,
			paid_at            = EXCLUDED.paid_at,
			updated_at         = EXCLUDED.updated_at
	`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.LoanID, s.Code, s.DueValue, s.OriginalDueValue, s.PaidValue,
		s.Status.String(), s.DueDate, s.DaysLate, s.TotalFine, s.PaidAt, s.CreatedAt, s.UpdatedAt,
	)
	if pgutil.IsUniqueViolation(err, "installments_loan_code_key") {
		return apperror.New(apperror.KindConflict, "installment code %q already exists on loan %s", s.Code, s.LoanID)
	}
	if err != nil {
		return fmt.Errorf("save installment %s: %w", s.Code, err)
	}
	return nil
}

func (r *InstallmentRepo) SaveAll(ctx context.Context, insts []model.Installment) error {
	for _, inst := range insts {
		if err := r.Save(ctx, inst); err != nil {
			return err
		}
	}
	return nil
}

func (r *InstallmentRepo) FindByID(ctx context.Context, id string) (model.Installment, error) {
	return r.findOne(ctx, `SELECT `+installmentColumns+` FROM installments i WHERE i.id = $1`, id)
}

// FindByIDForUpdate locks the installment row until the transaction ends.
func (r *InstallmentRepo) FindByIDForUpdate(ctx context.Context, id string) (model.Installment, error) {
	return r.findOne(ctx, `SELECT `+installmentColumns+` FROM installments i WHERE i.id = $1 FOR UPDATE`, id)
}

func (r *InstallmentRepo) ListByLoan(ctx context.Context, loanID string) ([]model.Installment, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+installmentColumns+` FROM installments i WHERE i.loan_id = $1 ORDER BY i.due_date, i.code`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	return collect(rows, scanInstallment)
}

func (r *InstallmentRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM installments WHERE id = ANY($1::uuid[])`, ids); err != nil {
		return fmt.Errorf("delete installments: %w", err)
	}
	return nil
}

func (r *InstallmentRepo) DeleteByLoan(ctx context.Context, loanID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM installments WHERE loan_id = $1`, loanID); err != nil {
		return fmt.Errorf("delete installments of loan: %w", err)
	}
	return nil
}

// ListAccrualCandidates locks the late rows. A payment committed while the
// lock was awaited is re-checked against the WHERE clause, so a row that
// became Paid drops out of the result.
// ListAccrualCandidates locks every Pending or Overdue installment due before
// asOf. Overdue rows are included so their fine keeps growing from the base
// captured on first accrual.
func (r *InstallmentRepo) ListAccrualCandidates(ctx context.Context, asOf time.Time) ([]port.AccrualRow, error) {
	const query = `
		SELECT ` + installmentColumns + `, l.creditor_id, l.status, l.daily_fine_value
		FROM installments i
		JOIN loans l ON l.id = i.loan_id
		WHERE i.status IN ('PENDING', 'OVERDUE') AND i.due_date < $1
		ORDER BY i.due_date, i.id
		FOR UPDATE OF i
	`
	rows, err := r.q.Query(ctx, query, valueobject.StartOfDay(asOf))
	if err != nil {
		return nil, fmt.Errorf("query accrual candidates: %w", err)
	}
	return collect(rows, func(row rowScanner) (port.AccrualRow, error) {
		var (
			s          model.InstallmentSnapshot
			status     string
			loanStatus string
			ar         port.AccrualRow
		)
		dest := append(installmentDest(&s, &status), &ar.CreditorID, &loanStatus, &ar.DailyFine)
		if err := row.Scan(dest...); err != nil {
			return port.AccrualRow{}, err
		}
		inst, err := reconstructInstallment(s, status)
		if err != nil {
			return port.AccrualRow{}, err
		}
		if ar.LoanStatus, err = valueobject.NewLoanStatus(loanStatus); err != nil {
			return port.AccrualRow{}, err
		}
		ar.Installment = inst
		return ar, nil
	})
}

func (r *InstallmentRepo) ListByCreditorAndStatus(
	ctx context.Context,
	creditorID string,
	status valueobject.InstallmentStatus,
	from, to time.Time,
) ([]port.InstallmentView, error) {
	const query = `
		SELECT ` + installmentColumns + `, l.code, l.title, c.id, c.name, c.whatsapp
		FROM installments i
		JOIN loans l ON l.id = i.loan_id
		JOIN clients c ON c.id = l.client_id
		WHERE l.creditor_id = $1
		  AND i.status = $2
		  AND ($3::date IS NULL OR i.due_date >= $3)
		  AND ($4::date IS NULL OR i.due_date < $4)
		ORDER BY i.due_date, i.code
	`
	rows, err := r.q.Query(ctx, query, creditorID, status.String(), nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("query installments by status: %w", err)
	}
	return collect(rows, func(row rowScanner) (port.InstallmentView, error) {
		var (
			s         model.InstallmentSnapshot
			rawStatus string
			v         port.InstallmentView
		)
		dest := append(installmentDest(&s, &rawStatus), &v.LoanCode, &v.LoanTitle, &v.ClientID, &v.ClientName, &v.ClientWhatsApp)
		if err := row.Scan(dest...); err != nil {
			return port.InstallmentView{}, err
		}
		inst, err := reconstructInstallment(s, rawStatus)
		if err != nil {
			return port.InstallmentView{}, err
		}
		v.Installment = inst
		return v, nil
	})
}

func (r *InstallmentRepo) findOne(ctx context.Context, query, id string) (model.Installment, error) {
	inst, err := scanInstallment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return model.Installment{}, notFoundOr(err, "installment", id)
	}
	return inst, nil
}

func installmentDest(s *model.InstallmentSnapshot, status *string) []any {
	return []any{
		&s.ID, &s.LoanID, &s.Code, &s.DueValue, &s.OriginalDueValue, &s.PaidValue,
		status, &s.DueDate, &s.DaysLate, &s.TotalFine, &s.PaidAt, &s.CreatedAt, &s.UpdatedAt,
	}
}

func scanInstallment(row rowScanner) (model.Installment, error) {
	var (
		s      model.InstallmentSnapshot
		status string
	)
	if err := row.Scan(installmentDest(&s, &status)...); err != nil {
		return model.Installment{}, err
	}
	return reconstructInstallment(s, status)
}

func reconstructInstallment(s model.InstallmentSnapshot, status string) (model.Installment, error) {
	st, err := valueobject.NewInstallmentStatus(status)
	if err != nil {
		return model.Installment{}, fmt.Errorf("installment %s: %w", s.ID, err)
	}
	s.Status = st
	return model.ReconstructInstallment(s), nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
