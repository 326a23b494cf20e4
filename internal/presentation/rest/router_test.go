package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/application/usecase"
	"github.com/bibbank/lenderledger/internal/infrastructure/export"
	"github.com/bibbank/lenderledger/internal/infrastructure/memory"
	"github.com/bibbank/lenderledger/internal/infrastructure/security"
	"github.com/bibbank/lenderledger/internal/presentation/rest"
	"github.com/bibbank/lenderledger/pkg/auth"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type apiHarness struct {
	t      *testing.T
	server *httptest.Server
	jwt    *auth.JWTService
	token  string
}

func newAPI(t *testing.T, readiness map[string]rest.ReadinessCheck) *apiHarness {
	t.Helper()
	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Expiration: time.Hour})
	require.NoError(t, err)

	router := rest.NewRouter(rest.RouterConfig{
		UseCases:  usecase.NewSet(memory.NewStore(), security.NewBcryptHasher(4), export.NewXLSXRenderer(), discard),
		JWT:       jwtService,
		Metrics:   http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "# metrics\n") }),
		Readiness: readiness,
		Logger:    discard,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiHarness{t: t, server: srv, jwt: jwtService}
}

func (a *apiHarness) do(method, path string, body any, token string) (*http.Response, []byte) {
	a.t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, a.server.URL+path, rdr)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, out
}

func (a *apiHarness) decode(raw []byte, v any) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(raw, v), string(raw))
}

// signUp registers a creditor and keeps a token for it.
func (a *apiHarness) signUp(roles ...string) dto.CreditorResponse {
	a.t.Helper()
	resp, body := a.do(http.MethodPost, "/api/v1/creditors", map[string]any{
		"name":     "Lender",
		"email":    "lender@example.com",
		"password": "s3cret-pass",
		"pix_key":  "lender@pix.example",
	}, "")
	require.Equal(a.t, http.StatusCreated, resp.StatusCode, string(body))
	var creditor dto.CreditorResponse
	a.decode(body, &creditor)

	token, err := a.jwt.GenerateToken(uuid.MustParse(creditor.ID), roles)
	require.NoError(a.t, err)
	a.token = token
	return creditor
}

type errBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func TestProbesAndMetrics(t *testing.T) {
	api := newAPI(t, map[string]rest.ReadinessCheck{
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	})

	resp, _ := api.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := api.do(http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "connection refused")

	resp, body = api.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "# metrics")
}

func TestAPIRequiresToken(t *testing.T) {
	api := newAPI(t, nil)

	resp, body := api.do(http.MethodGet, "/api/v1/portfolio/summary", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "unauthenticated")

	resp, _ = api.do(http.MethodGet, "/api/v1/portfolio/summary", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoanLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t, nil)
	creditor := api.signUp()

	resp, body := api.do(http.MethodGet, "/api/v1/creditors/"+creditor.UniqueCode, nil, api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = api.do(http.MethodPost, "/api/v1/clients", map[string]any{
		"name": "Maria Souza", "cpf": "529.982.247-25", "whatsapp": "(11) 98765-4321",
	}, api.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var client dto.ClientResponse
	api.decode(body, &client)

	resp, body = api.do(http.MethodPost, "/api/v1/clients", map[string]any{
		"name": "Maria Again", "cpf": "52998224725",
	}, api.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	resp, body = api.do(http.MethodPost, "/api/v1/accounts/setup", map[string]any{"names": []string{"Main"}}, api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var accounts dto.SetupAccountsResponse
	api.decode(body, &accounts)
	accountID := accounts.Accounts[0].ID

	resp, body = api.do(http.MethodPost, "/api/v1/loans", map[string]any{
		"client_id":             client.ID,
		"code":                  "H1",
		"title":                 "HTTP loan",
		"loaned_value":          "1000",
		"interest_model":        "SIMPLE_INTEREST",
		"installments_quantity": 2,
		"recurrence_period":     "MONTHLY",
		"first_due_date":        "2024-01-01T00:00:00Z",
		"installments": []map[string]any{
			{"due_value": "600", "due_date": "2024-01-01T00:00:00Z"},
			{"due_value": "600", "due_date": "2024-02-01T00:00:00Z"},
		},
	}, api.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var loan dto.LoanResponse
	api.decode(body, &loan)
	require.Len(t, loan.Installments, 2)

	payment := map[string]any{
		"installment_id":     loan.Installments[0].ID,
		"account_id":         accountID,
		"amount_paid":        "600",
		"payment_date":       "2024-01-01T00:00:00Z",
		"external_reference": "charge-1",
	}
	resp, body = api.do(http.MethodPost, "/api/v1/payments", payment, api.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var paid dto.PaymentResponse
	api.decode(body, &paid)
	assert.Equal(t, "full_payment", paid.PaymentType)
	assert.Equal(t, "lender@pix.example", paid.CreditorPixKey)

	payment["installment_id"] = loan.Installments[1].ID
	resp, body = api.do(http.MethodPost, "/api/v1/payments", payment, api.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var dup errBody
	api.decode(body, &dup)
	assert.Equal(t, "duplicate_payment", dup.Kind)

	resp, body = api.do(http.MethodPost, "/api/v1/loans/"+loan.ID+"/amortize", map[string]any{
		"account_id": accountID, "amount": "100",
	}, api.token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var missing errBody
	api.decode(body, &missing)
	assert.Equal(t, "missing_rate", missing.Kind)

	resp, body = api.do(http.MethodDelete, "/api/v1/loans/"+loan.ID, nil, api.token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))

	resp, body = api.do(http.MethodGet, "/api/v1/accounts/"+accountID+"/transactions", nil, api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var statement dto.TransactionListResponse
	api.decode(body, &statement)
	require.Len(t, statement.Transactions, 1)
	assert.Equal(t, "charge-1", statement.Transactions[0].ExternalReference)

	resp, body = api.do(http.MethodGet, "/api/v1/accounts/"+accountID+"/statement", nil, api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, body)

	resp, body = api.do(http.MethodGet, "/api/v1/clients?active=true", nil, api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var active dto.ClientListResponse
	api.decode(body, &active)
	assert.Len(t, active.Clients, 1)

	resp, body = api.do(http.MethodGet, "/api/v1/installments/due?as_of=2024-01-25", nil, api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var due dto.InstallmentListResponse
	api.decode(body, &due)
	require.Len(t, due.Installments, 1)
	assert.Equal(t, "Maria Souza", due.Installments[0].ClientName)
}

func TestErrorMapping(t *testing.T) {
	api := newAPI(t, nil)
	api.signUp()

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantKind   string
	}{
		{"unknown loan", http.MethodGet, "/api/v1/loans/" + uuid.NewString(), nil, http.StatusNotFound, "not_found"},
		{"malformed body", http.MethodPost, "/api/v1/payments", "{not json", http.StatusBadRequest, "validation"},
		{"missing fields", http.MethodPost, "/api/v1/payments", map[string]any{}, http.StatusBadRequest, "validation"},
		{"bad due date", http.MethodGet, "/api/v1/installments/due?as_of=tomorrow", nil, http.StatusBadRequest, "validation"},
		{"accrual without role", http.MethodPost, "/api/v1/accrual", nil, http.StatusForbidden, "forbidden"},
		{"provider event without role", http.MethodPost, "/api/v1/provider-events", map[string]any{}, http.StatusForbidden, "forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := api.do(tt.method, tt.path, tt.body, api.token)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
			var e errBody
			api.decode(body, &e)
			assert.Equal(t, tt.wantKind, e.Kind)
		})
	}
}

func TestAccrualWithAdminRole(t *testing.T) {
	api := newAPI(t, nil)
	api.signUp(auth.RoleLedgerAdmin)

	resp, body := api.do(http.MethodPost, "/api/v1/accrual", map[string]any{"as_of": "2024-02-11T00:00:00Z"}, api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.AccrualResponse
	api.decode(body, &out)
	assert.Zero(t, out.UpdatedCount)
}

func TestSchedulePreview(t *testing.T) {
	api := newAPI(t, nil)
	api.signUp()

	resp, body := api.do(http.MethodPost, "/api/v1/loans/schedule-preview", map[string]any{
		"principal":             "1000",
		"interest_rate":         "10",
		"interest_model":        "SIMPLE_INTEREST",
		"installments_quantity": 2,
		"recurrence_period":     "MONTHLY",
		"first_due_date":        "2024-01-10T00:00:00Z",
	}, api.token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var schedule dto.ScheduleResponse
	api.decode(body, &schedule)
	require.Len(t, schedule.Installments, 2)
	assert.Equal(t, "600", schedule.Installments[0].DueValue.String())
	assert.Equal(t, "1200", schedule.Total.String())
}
