package rest

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/application/usecase"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/pkg/auth"
)

// Handler serves the /api/v1 routes. The creditor of every call is the
// authenticated caller; request bodies never choose it.
type Handler struct {
	uc     usecase.Set
	logger *slog.Logger
}

// caller returns the creditor ID of the authenticated request, writing a 401
// when there is none.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Kind: "unauthenticated", Message: "missing credentials"})
		return "", false
	}
	return claims.CreditorID.String(), true
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Kind: "unauthenticated", Message: "missing credentials"})
		return false
	}
	if !claims.HasRole(auth.RoleLedgerAdmin) {
		writeJSON(w, http.StatusForbidden, errorBody{Kind: "forbidden", Message: "required role: " + auth.RoleLedgerAdmin})
		return false
	}
	return true
}

func (h *Handler) reply(w http.ResponseWriter, status int, resp any, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, status, resp)
}

// ---------------------------------------------------------------------------
// Creditors
// ---------------------------------------------------------------------------

func (h *Handler) registerCreditor(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterCreditorRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp, err := h.uc.RegisterCreditor.Execute(r.Context(), req)
	h.reply(w, http.StatusCreated, resp, err)
}

func (h *Handler) resolveCreditor(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.ResolveCreditor.Execute(r.Context(), dto.ResolveCreditorRequest{UniqueCode: mux.Vars(r)["code"]})
	h.reply(w, http.StatusOK, resp, err)
}

// ---------------------------------------------------------------------------
// Clients
// ---------------------------------------------------------------------------

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req dto.CreateClientRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.CreditorID = creditorID
	resp, err := h.uc.CreateClient.Execute(r.Context(), req)
	h.reply(w, http.StatusCreated, resp, err)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	resp, err := h.uc.ListClients.Execute(r.Context(), dto.ListClientsRequest{CreditorID: creditorID, ActiveOnly: activeOnly})
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	resp, err := h.uc.GetClient.Execute(r.Context(), dto.ClientRequest{CreditorID: creditorID, ClientID: mux.Vars(r)["id"]})
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) getClientByCPF(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	resp, err := h.uc.GetClient.ExecuteByCPF(r.Context(), dto.ClientByCPFRequest{CreditorID: creditorID, CPF: mux.Vars(r)["cpf"]})
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req dto.UpdateClientRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.CreditorID = creditorID
	req.ClientID = mux.Vars(r)["id"]
	resp, err := h.uc.UpdateClient.Execute(r.Context(), req)
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	resp, err := h.uc.DeleteClient.Execute(r.Context(), dto.ClientRequest{CreditorID: creditorID, ClientID: mux.Vars(r)["id"]})
	h.reply(w, http.StatusOK, resp, err)
}

// ---------------------------------------------------------------------------
// Loans
// ---------------------------------------------------------------------------

func (h *Handler) createLoan(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req dto.CreateLoanRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.CreditorID = creditorID
	resp, err := h.uc.CreateLoan.Execute(r.Context(), req)
	h.reply(w, http.StatusCreated, resp, err)
}

func (h *Handler) previewSchedule(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	var req dto.PreviewScheduleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp, err := h.uc.PreviewSchedule.Execute(r.Context(), req)
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) getLoan(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	resp, err := h.uc.GetLoan.Execute(r.Context(), dto.LoanRequest{CreditorID: creditorID, LoanID: mux.Vars(r)["id"]})
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) updateLoan(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req dto.UpdateLoanRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.CreditorID = creditorID
	req.LoanID = mux.Vars(r)["id"]
	resp, err := h.uc.UpdateLoanPrincipal.Execute(r.Context(), req)
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) deleteLoan(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	resp, err := h.uc.DeleteLoan.Execute(r.Context(), dto.LoanRequest{CreditorID: creditorID, LoanID: mux.Vars(r)["id"]})
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) amortizeLoan(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req dto.AmortizeLoanRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.CreditorID = creditorID
	req.LoanID = mux.Vars(r)["id"]
	resp, err := h.uc.AmortizeLoan.Execute(r.Context(), req)
	h.reply(w, http.StatusOK, resp, err)
}

// ---------------------------------------------------------------------------
// Payments and batches
// ---------------------------------------------------------------------------

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req dto.RegisterPaymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.CreditorID = creditorID
	resp, err := h.uc.RegisterPayment.Execute(r.Context(), req)
	h.reply(w, http.StatusCreated, resp, err)
}

func (h *Handler) accrueOverdueFines(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req dto.AccrueOverdueFinesRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp, err := h.uc.AccrueOverdueFines.Execute(r.Context(), req)
	h.reply(w, http.StatusOK, resp, err)
}

// recordProviderEvent accepts a raw provider notification. Redelivered
// charges answer 200 with duplicate set.
func (h *Handler) recordProviderEvent(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, h.logger, apperror.Wrap(apperror.KindValidation, err, "read body"))
		return
	}
	resp, err := h.uc.RecordProviderEvent.Execute(r.Context(), payload)
	h.reply(w, http.StatusOK, resp, err)
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

func (h *Handler) setupAccounts(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req dto.SetupAccountsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.CreditorID = creditorID
	resp, err := h.uc.SetupAccounts.Execute(r.Context(), req)
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	resp, err := h.uc.ListAccounts.Execute(r.Context(), dto.CreditorRequest{CreditorID: creditorID})
	h.reply(w, http.StatusOK, map[string]any{"accounts": resp}, err)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	resp, err := h.uc.ListTransactions.Execute(r.Context(), dto.AccountRequest{CreditorID: creditorID, AccountID: mux.Vars(r)["id"]})
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) exportStatement(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	resp, err := h.uc.ExportStatement.Execute(r.Context(), dto.AccountRequest{CreditorID: creditorID, AccountID: mux.Vars(r)["id"]})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resp.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Content) //nolint:errcheck
}

// ---------------------------------------------------------------------------
// Portfolio
// ---------------------------------------------------------------------------

func (h *Handler) portfolioSummary(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	resp, err := h.uc.Portfolio.Summary(r.Context(), dto.CreditorRequest{CreditorID: creditorID})
	h.reply(w, http.StatusOK, resp, err)
}

func (h *Handler) listOverdue(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	resp, err := h.uc.Portfolio.ListOverdue(r.Context(), dto.CreditorRequest{CreditorID: creditorID})
	h.reply(w, http.StatusOK, resp, err)
}

// listDue takes an optional as_of=YYYY-MM-DD query parameter.
func (h *Handler) listDue(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := h.caller(w, r)
	if !ok {
		return
	}
	req := dto.DueInstallmentsRequest{CreditorID: creditorID}
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, h.logger, apperror.Validation("as_of must be YYYY-MM-DD"))
			return
		}
		req.AsOf = asOf
	}
	resp, err := h.uc.Portfolio.ListDue(r.Context(), req)
	h.reply(w, http.StatusOK, resp, err)
}
