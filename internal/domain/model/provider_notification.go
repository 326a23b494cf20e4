package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
)

// Provider event names.
const (
	ProviderEventPixPaid     = "pix.paid"
	ProviderEventBillingPaid = "billing.paid"
)

// ---------------------------------------------------------------------------
// Provider notification: closed tagged variant
// ---------------------------------------------------------------------------

// ProviderNotification is a payment-confirmed notification from the payment
// provider. The set of implementations is closed: PixPaid and BillingPaid.
type ProviderNotification interface {
	EventName() string
	Charge() ProviderCharge
	isProviderNotification()
}

// ProviderCharge is the body shared by every payment-confirmed notification.
type ProviderCharge struct {
	// Reference is the provider's charge id, used as the external reference
	// of the resulting ledger transaction.
	Reference     string
	Amount        decimal.Decimal
	CustomerID    string
	CustomerTaxID string
	CreditorID    string
	Plan          string
	InstallmentID string
	AccountID     string
}

// SettlesInstallment reports whether the charge carries enough metadata to
// register a ledger payment.
func (c ProviderCharge) SettlesInstallment() bool {
	return c.CreditorID != "" && c.InstallmentID != "" && c.AccountID != "" && c.Amount.IsPositive()
}

// PixPaid is an instant PIX transfer confirmation.
type PixPaid struct{ ProviderCharge }

// BillingPaid is a billing (boleto/card) settlement confirmation.
type BillingPaid struct{ ProviderCharge }

func (PixPaid) EventName() string            { return ProviderEventPixPaid }
func (p PixPaid) Charge() ProviderCharge     { return p.ProviderCharge }
func (PixPaid) isProviderNotification()      {}
func (BillingPaid) EventName() string        { return ProviderEventBillingPaid }
func (b BillingPaid) Charge() ProviderCharge { return b.ProviderCharge }
func (BillingPaid) isProviderNotification()  {}

type providerEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Customer struct {
			ID    string `json:"id"`
			TaxID string `json:"taxId"`
		} `json:"customer"`
		Metadata struct {
			UserID        string `json:"userId"`
			Plan          string `json:"plan"`
			InstallmentID string `json:"installment_id"`
			AccountID     string `json:"account_id"`
		} `json:"metadata"`
	} `json:"data"`
}

// ParseProviderNotification decodes a raw provider payload. Unknown event
// names and payloads without a charge id are rejected.
func ParseProviderNotification(payload []byte) (ProviderNotification, error) {
	var env providerEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, err, "decode provider notification")
	}
	if env.Data.ID == "" {
		return nil, apperror.Validation("provider notification %q has no charge id", env.Event)
	}

	charge := ProviderCharge{
		Reference:     env.Data.ID,
		Amount:        decimal.New(env.Data.Amount, -2),
		CustomerID:    env.Data.Customer.ID,
		CustomerTaxID: env.Data.Customer.TaxID,
		CreditorID:    env.Data.Metadata.UserID,
		Plan:          env.Data.Metadata.Plan,
		InstallmentID: env.Data.Metadata.InstallmentID,
		AccountID:     env.Data.Metadata.AccountID,
	}

	switch env.Event {
	case ProviderEventPixPaid:
		return PixPaid{charge}, nil
	case ProviderEventBillingPaid:
		return BillingPaid{charge}, nil
	default:
		return nil, apperror.Validation("unsupported provider event %q", env.Event)
	}
}

// ---------------------------------------------------------------------------
// ProviderEvent: persisted audit record
// ---------------------------------------------------------------------------

// ProviderEvent is the stored copy of a provider notification.
type ProviderEvent struct {
	ID                string
	EventType         string
	ExternalReference string
	Payload           []byte
	ReceivedAt        time.Time
}

// NewProviderEvent records a parsed notification together with its raw payload.
func NewProviderEvent(n ProviderNotification, payload []byte, now time.Time) (ProviderEvent, error) {
	if n == nil {
		return ProviderEvent{}, fmt.Errorf("provider notification is nil")
	}
	raw := make([]byte, len(payload))
	copy(raw, payload)
	return ProviderEvent{
		ID:                uuid.New().String(),
		EventType:         n.EventName(),
		ExternalReference: n.Charge().Reference,
		Payload:           raw,
		ReceivedAt:        now,
	}, nil
}
