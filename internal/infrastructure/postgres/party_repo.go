package postgres

import (
	"context"
	"fmt"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	pgutil "github.com/bibbank/lenderledger/pkg/postgres"
)

// ---------------------------------------------------------------------------
// Creditors
// ---------------------------------------------------------------------------

const creditorColumns = `id, name, email, password_hash, unique_code, pix_key, city, state, created_at`

// CreditorRepo implements port.CreditorRepository.
type CreditorRepo struct {
	q pgutil.Querier
}

// NewCreditorRepo creates a creditor repository over q.
func NewCreditorRepo(q pgutil.Querier) *CreditorRepo {
	return &CreditorRepo{q: q}
}

func (r *CreditorRepo) Create(ctx context.Context, c model.Creditor) error {
	s := c.Snapshot()
	_, err := r.q.Exec(ctx, `
		INSERT INTO creditors (`+creditorColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.Name, s.Email, s.PasswordHash, s.UniqueCode, s.PixKey, s.City, s.State, s.CreatedAt,
	)
	switch {
	case pgutil.IsUniqueViolation(err, "creditors_email_key"):
		return apperror.New(apperror.KindConflict, "email %s is already registered", s.Email)
	case pgutil.IsUniqueViolation(err, "creditors_unique_code_key"):
		return apperror.New(apperror.KindConflict, "unique code %s is taken", s.UniqueCode)
	case err != nil:
		return fmt.Errorf("create creditor: %w", err)
	}
	return nil
}

func (r *CreditorRepo) FindByID(ctx context.Context, id string) (model.Creditor, error) {
	return r.findOne(ctx, `SELECT `+creditorColumns+` FROM creditors WHERE id = $1`, id)
}

func (r *CreditorRepo) FindByUniqueCode(ctx context.Context, code string) (model.Creditor, error) {
	return r.findOne(ctx, `SELECT `+creditorColumns+` FROM creditors WHERE unique_code = $1`, code)
}

func (r *CreditorRepo) FindByEmail(ctx context.Context, email string) (model.Creditor, error) {
	return r.findOne(ctx, `SELECT `+creditorColumns+` FROM creditors WHERE email = LOWER($1)`, email)
}

func (r *CreditorRepo) findOne(ctx context.Context, query, key string) (model.Creditor, error) {
	var s model.CreditorSnapshot
	err := r.q.QueryRow(ctx, query, key).Scan(
		&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.UniqueCode, &s.PixKey, &s.City, &s.State, &s.CreatedAt,
	)
	if err != nil {
		return model.Creditor{}, notFoundOr(err, "creditor", key)
	}
	return model.ReconstructCreditor(s), nil
}

// ---------------------------------------------------------------------------
// Clients
// ---------------------------------------------------------------------------

const clientColumns = `
	id, creditor_id, name, cpf, whatsapp, address, city, state, observations, created_at, updated_at`

// ClientRepo implements port.ClientRepository.
type ClientRepo struct {
	q pgutil.Querier
}

// NewClientRepo creates a client repository over q.
func NewClientRepo(q pgutil.Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

func (r *ClientRepo) Save(ctx context.Context, c model.Client) error {
	s := c.Snapshot()
	_, err := r.q.Exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			name         = EXCLUDED.name,
			cpf          = EXCLUDED.cpf,
			whatsapp     = EXCLUDED.whatsapp,
			address      = EXCLUDED.address,
			city         = EXCLUDED.city,
			state        = EXCLUDED.state,
			observations = EXCLUDED.observations,
			updated_at   = EXCLUDED.updated_at`,
		s.ID, s.CreditorID, s.Name, s.CPF.String(), s.WhatsApp.String(), s.Address,
		s.City, s.State, s.Observations, s.CreatedAt, s.UpdatedAt,
	)
	if pgutil.IsUniqueViolation(err, "clients_creditor_cpf_key") {
		return apperror.New(apperror.KindConflict, "a client with CPF %s already exists", s.CPF.Formatted())
	}
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

func (r *ClientRepo) FindByID(ctx context.Context, id string) (model.Client, error) {
	c, err := scanClient(r.q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		return model.Client{}, notFoundOr(err, "client", id)
	}
	return c, nil
}

func (r *ClientRepo) FindByCPF(ctx context.Context, creditorID, cpf string) (model.Client, error) {
	c, err := scanClient(r.q.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE creditor_id = $1 AND cpf = $2`, creditorID, cpf))
	if err != nil {
		return model.Client{}, notFoundOr(err, "client", cpf)
	}
	return c, nil
}

func (r *ClientRepo) ListByCreditor(ctx context.Context, creditorID string) ([]model.Client, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE creditor_id = $1 ORDER BY name, id`, creditorID)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	return collect(rows, scanClient)
}

func (r *ClientRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("client", id)
	}
	return nil
}

func scanClient(row rowScanner) (model.Client, error) {
	var (
		s             model.ClientSnapshot
		cpf, whatsApp string
	)
	if err := row.Scan(
		&s.ID, &s.CreditorID, &s.Name, &cpf, &whatsApp, &s.Address,
		&s.City, &s.State, &s.Observations, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return model.Client{}, err
	}
	var err error
	if s.CPF, err = valueobject.NewCPF(cpf); err != nil {
		return model.Client{}, fmt.Errorf("client %s: %w", s.ID, err)
	}
	if whatsApp != "" {
		if s.WhatsApp, err = valueobject.NewPhone(whatsApp, valueobject.DefaultPhoneRegion); err != nil {
			return model.Client{}, fmt.Errorf("client %s: %w", s.ID, err)
		}
	}
	return model.ReconstructClient(s), nil
}
