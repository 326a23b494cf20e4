// Package rest exposes the ledger over JSON/HTTP.
package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/bibbank/lenderledger/internal/application/usecase"
	"github.com/bibbank/lenderledger/pkg/auth"
)

// RegistrationPath is the only API route reachable without a token.
const RegistrationPath = "/api/v1/creditors"

// RouterConfig carries the collaborators of the HTTP router.
type RouterConfig struct {
	UseCases    usecase.Set
	JWT         *auth.JWTService
	Metrics     http.Handler
	Readiness   map[string]ReadinessCheck
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter builds the HTTP handler: probes, metrics and the authenticated
// /api/v1 routes, wrapped in CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	NewHealthHandler(cfg.Readiness, cfg.Logger).RegisterRoutes(r)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	h := &Handler{uc: cfg.UseCases, logger: cfg.Logger}
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.HTTPMiddleware(cfg.JWT, []string{RegistrationPath}))

	api.HandleFunc("/creditors", h.registerCreditor).Methods(http.MethodPost)
	api.HandleFunc("/creditors/{code}", h.resolveCreditor).Methods(http.MethodGet)

	api.HandleFunc("/clients", h.createClient).Methods(http.MethodPost)
	api.HandleFunc("/clients", h.listClients).Methods(http.MethodGet)
	api.HandleFunc("/clients/by-cpf/{cpf}", h.getClientByCPF).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id}", h.getClient).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id}", h.updateClient).Methods(http.MethodPut)
	api.HandleFunc("/clients/{id}", h.deleteClient).Methods(http.MethodDelete)

	api.HandleFunc("/loans", h.createLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/schedule-preview", h.previewSchedule).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}", h.getLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}", h.updateLoan).Methods(http.MethodPut)
	api.HandleFunc("/loans/{id}", h.deleteLoan).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{id}/amortize", h.amortizeLoan).Methods(http.MethodPost)

	api.HandleFunc("/payments", h.registerPayment).Methods(http.MethodPost)
	api.HandleFunc("/accrual", h.accrueOverdueFines).Methods(http.MethodPost)
	api.HandleFunc("/provider-events", h.recordProviderEvent).Methods(http.MethodPost)

	api.HandleFunc("/accounts", h.listAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/setup", h.setupAccounts).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}/transactions", h.listTransactions).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/statement", h.exportStatement).Methods(http.MethodGet)

	api.HandleFunc("/portfolio/summary", h.portfolioSummary).Methods(http.MethodGet)
	api.HandleFunc("/installments/overdue", h.listOverdue).Methods(http.MethodGet)
	api.HandleFunc("/installments/due", h.listDue).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
