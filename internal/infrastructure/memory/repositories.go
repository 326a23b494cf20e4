package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/domain/service"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Loans
// ---------------------------------------------------------------------------

type loanRepo struct{ st *state }

func (r *loanRepo) Save(_ context.Context, loan model.Loan) error {
	r.st.loans[loan.ID()] = loan.ClearEvents()
	return nil
}

func (r *loanRepo) FindByID(_ context.Context, id string) (model.Loan, error) {
	l, ok := r.st.loans[id]
	if !ok {
		return model.Loan{}, apperror.NotFound("loan", id)
	}
	return l, nil
}

func (r *loanRepo) FindByIDForUpdate(ctx context.Context, id string) (model.Loan, error) {
	return r.FindByID(ctx, id)
}

func (r *loanRepo) ListByCreditor(_ context.Context, creditorID string) ([]model.Loan, error) {
	return r.filter(func(l model.Loan) bool { return l.CreditorID() == creditorID }), nil
}

func (r *loanRepo) ListByClient(_ context.Context, clientID string) ([]model.Loan, error) {
	return r.filter(func(l model.Loan) bool { return l.ClientID() == clientID }), nil
}

func (r *loanRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.loans[id]; !ok {
		return apperror.NotFound("loan", id)
	}
	delete(r.st.loans, id)
	return nil
}

func (r *loanRepo) filter(keep func(model.Loan) bool) []model.Loan {
	var out []model.Loan
	for _, l := range r.st.loans {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().After(out[j].CreatedAt())
		}
		return out[i].Code() < out[j].Code()
	})
	return out
}

// ---------------------------------------------------------------------------
// Installments
// ---------------------------------------------------------------------------

type installmentRepo struct{ st *state }

func (r *installmentRepo) Save(_ context.Context, inst model.Installment) error {
	for id, other := range r.st.installments {
		if id != inst.ID() && other.LoanID() == inst.LoanID() && other.Code() == inst.Code() {
			return apperror.New(apperror.KindConflict, "installment code %q already exists on loan %s", inst.Code(), inst.LoanID())
		}
	}
	r.st.installments[inst.ID()] = inst
	return nil
}

func (r *installmentRepo) SaveAll(ctx context.Context, insts []model.Installment) error {
	for _, i := range insts {
		if err := r.Save(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *installmentRepo) FindByID(_ context.Context, id string) (model.Installment, error) {
	i, ok := r.st.installments[id]
	if !ok {
		return model.Installment{}, apperror.NotFound("installment", id)
	}
	return i, nil
}

func (r *installmentRepo) FindByIDForUpdate(ctx context.Context, id string) (model.Installment, error) {
	return r.FindByID(ctx, id)
}

func (r *installmentRepo) ListByLoan(_ context.Context, loanID string) ([]model.Installment, error) {
	var out []model.Installment
	for _, i := range r.st.installments {
		if i.LoanID() == loanID {
			out = append(out, i)
		}
	}
	service.SortByDueDate(out)
	return out, nil
}

func (r *installmentRepo) DeleteByIDs(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(r.st.installments, id)
	}
	return nil
}

func (r *installmentRepo) DeleteByLoan(_ context.Context, loanID string) error {
	for id, i := range r.st.installments {
		if i.LoanID() == loanID {
			delete(r.st.installments, id)
		}
	}
	return nil
}

func (r *installmentRepo) ListAccrualCandidates(_ context.Context, asOf time.Time) ([]port.AccrualRow, error) {
	cutoff := valueobject.StartOfDay(asOf)
	var out []port.AccrualRow
	for _, i := range r.st.installments {
		if !i.Status().IsOpen() || !i.DueDate().Before(cutoff) {
			continue
		}
		loan, ok := r.st.loans[i.LoanID()]
		if !ok {
			continue
		}
		out = append(out, port.AccrualRow{
			Installment: i,
			CreditorID:  loan.CreditorID(),
			LoanStatus:  loan.Status(),
			DailyFine:   loan.DailyFineValue(),
		})
	}
	sort.Slice(out, func(a, b int) bool {
		ia, ib := out[a].Installment, out[b].Installment
		if !ia.DueDate().Equal(ib.DueDate()) {
			return ia.DueDate().Before(ib.DueDate())
		}
		return ia.ID() < ib.ID()
	})
	return out, nil
}

func (r *installmentRepo) ListByCreditorAndStatus(
	_ context.Context,
	creditorID string,
	status valueobject.InstallmentStatus,
	from, to time.Time,
) ([]port.InstallmentView, error) {
	var out []port.InstallmentView
	for _, i := range r.st.installments {
		if !i.Status().Equal(status) {
			continue
		}
		if !from.IsZero() && i.DueDate().Before(from) {
			continue
		}
		if !to.IsZero() && !i.DueDate().Before(to) {
			continue
		}
		loan, ok := r.st.loans[i.LoanID()]
		if !ok || loan.CreditorID() != creditorID {
			continue
		}
		view := port.InstallmentView{
			Installment: i,
			LoanCode:    loan.Code(),
			LoanTitle:   loan.Title(),
			ClientID:    loan.ClientID(),
		}
		if c, ok := r.st.clients[loan.ClientID()]; ok {
			view.ClientName = c.Name()
			view.ClientWhatsApp = c.WhatsApp().String()
		}
		out = append(out, view)
	}
	sort.Slice(out, func(a, b int) bool {
		ia, ib := out[a].Installment, out[b].Installment
		if !ia.DueDate().Equal(ib.DueDate()) {
			return ia.DueDate().Before(ib.DueDate())
		}
		return ia.Code() < ib.Code()
	})
	return out, nil
}

// ---------------------------------------------------------------------------
// Accounts and transactions
// ---------------------------------------------------------------------------

type accountRepo struct{ st *state }

func (r *accountRepo) Save(_ context.Context, a model.Account) error {
	r.st.accounts[a.ID()] = a.ClearEvents()
	return nil
}

func (r *accountRepo) FindByID(_ context.Context, id string) (model.Account, error) {
	a, ok := r.st.accounts[id]
	if !ok {
		return model.Account{}, apperror.NotFound("account", id)
	}
	return a, nil
}

func (r *accountRepo) FindByIDForUpdate(ctx context.Context, id string) (model.Account, error) {
	return r.FindByID(ctx, id)
}

func (r *accountRepo) ListByCreditor(_ context.Context, creditorID string) ([]model.Account, error) {
	var out []model.Account
	for _, a := range r.st.accounts {
		if a.CreditorID() == creditorID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().Before(out[j].CreatedAt())
		}
		return out[i].Name() < out[j].Name()
	})
	return out, nil
}

type transactionRepo struct{ st *state }

func (r *transactionRepo) Append(_ context.Context, tx model.Transaction) error {
	if ref := tx.ExternalReference(); ref != "" {
		if _, dup := r.st.references[ref]; dup {
			return apperror.New(apperror.KindDuplicatePayment, "external reference %s already registered", ref)
		}
		r.st.references[ref] = tx.ID()
	}
	r.st.transactions = append(r.st.transactions, tx)
	return nil
}

func (r *transactionRepo) ListByAccount(_ context.Context, accountID string) ([]model.Transaction, error) {
	var out []model.Transaction
	for i := len(r.st.transactions) - 1; i >= 0; i-- {
		if t := r.st.transactions[i]; t.AccountID() == accountID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date().After(out[j].Date()) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Creditors and clients
// ---------------------------------------------------------------------------

type creditorRepo struct{ st *state }

func (r *creditorRepo) Create(_ context.Context, c model.Creditor) error {
	for _, other := range r.st.creditors {
		if other.Email() == c.Email() {
			return apperror.New(apperror.KindConflict, "email %s is already registered", c.Email())
		}
		if other.UniqueCode() == c.UniqueCode() {
			return apperror.New(apperror.KindConflict, "unique code %s is taken", c.UniqueCode())
		}
	}
	r.st.creditors[c.ID()] = c
	return nil
}

func (r *creditorRepo) FindByID(_ context.Context, id string) (model.Creditor, error) {
	c, ok := r.st.creditors[id]
	if !ok {
		return model.Creditor{}, apperror.NotFound("creditor", id)
	}
	return c, nil
}

func (r *creditorRepo) FindByUniqueCode(_ context.Context, code string) (model.Creditor, error) {
	for _, c := range r.st.creditors {
		if c.UniqueCode() == code {
			return c, nil
		}
	}
	return model.Creditor{}, apperror.NotFound("creditor", code)
}

func (r *creditorRepo) FindByEmail(_ context.Context, email string) (model.Creditor, error) {
	for _, c := range r.st.creditors {
		if strings.EqualFold(c.Email(), email) {
			return c, nil
		}
	}
	return model.Creditor{}, apperror.NotFound("creditor", email)
}

type clientRepo struct{ st *state }

func (r *clientRepo) Save(_ context.Context, c model.Client) error {
	r.st.clients[c.ID()] = c
	return nil
}

func (r *clientRepo) FindByID(_ context.Context, id string) (model.Client, error) {
	c, ok := r.st.clients[id]
	if !ok {
		return model.Client{}, apperror.NotFound("client", id)
	}
	return c, nil
}

func (r *clientRepo) FindByCPF(_ context.Context, creditorID, cpf string) (model.Client, error) {
	for _, c := range r.st.clients {
		if c.CreditorID() == creditorID && c.CPF().String() == cpf {
			return c, nil
		}
	}
	return model.Client{}, apperror.NotFound("client", cpf)
}

func (r *clientRepo) ListByCreditor(_ context.Context, creditorID string) ([]model.Client, error) {
	var out []model.Client
	for _, c := range r.st.clients {
		if c.CreditorID() == creditorID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}

func (r *clientRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.clients[id]; !ok {
		return apperror.NotFound("client", id)
	}
	delete(r.st.clients, id)
	return nil
}

// ---------------------------------------------------------------------------
// Provider events
// ---------------------------------------------------------------------------

type providerEventRepo struct{ st *state }

func (r *providerEventRepo) Save(_ context.Context, e model.ProviderEvent) error {
	for _, other := range r.st.providerEvents {
		if other.EventType == e.EventType && other.ExternalReference == e.ExternalReference {
			return apperror.New(apperror.KindDuplicatePayment,
				"%s for %s already recorded", e.EventType, e.ExternalReference)
		}
	}
	r.st.providerEvents[e.ID] = e
	return nil
}
