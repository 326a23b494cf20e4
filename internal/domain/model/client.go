package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

// Client is a borrower registered by a creditor.
type Client struct {
	id           string
	creditorID   string
	name         string
	cpf          valueobject.CPF
	whatsApp     valueobject.Phone
	address      string
	city         string
	state        string
	observations string
	createdAt    time.Time
	updatedAt    time.Time
}

// ClientParams carries the editable client fields.
type ClientParams struct {
	Name         string
	CPF          valueobject.CPF
	WhatsApp     valueobject.Phone
	Address      string
	City         string
	State        string
	Observations string
}

// ClientSnapshot is the persisted shape of a Client.
type ClientSnapshot struct {
	ID           string
	CreditorID   string
	Name         string
	CPF          valueobject.CPF
	WhatsApp     valueobject.Phone
	Address      string
	City         string
	State        string
	Observations string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewClient registers a client for creditorID.
func NewClient(creditorID string, p ClientParams, now time.Time) (Client, error) {
	if creditorID == "" {
		return Client{}, apperror.Validation("creditor ID is required")
	}
	if err := validateClientParams(p); err != nil {
		return Client{}, err
	}
	c := Client{
		id:         uuid.New().String(),
		creditorID: creditorID,
		createdAt:  now,
	}
	return c.apply(p, now), nil
}

// ReconstructClient rebuilds a Client from persistence.
func ReconstructClient(s ClientSnapshot) Client {
	return Client{
		id:           s.ID,
		creditorID:   s.CreditorID,
		name:         s.Name,
		cpf:          s.CPF,
		whatsApp:     s.WhatsApp,
		address:      s.Address,
		city:         s.City,
		state:        s.State,
		observations: s.Observations,
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
	}
}

// Update replaces the editable fields.
func (c Client) Update(p ClientParams, now time.Time) (Client, error) {
	if err := validateClientParams(p); err != nil {
		return c, err
	}
	return c.apply(p, now), nil
}

func (c Client) apply(p ClientParams, now time.Time) Client {
	c.name = strings.TrimSpace(p.Name)
	c.cpf = p.CPF
	c.whatsApp = p.WhatsApp
	c.address = p.Address
	c.city = p.City
	c.state = p.State
	c.observations = p.Observations
	c.updatedAt = now
	return c
}

func validateClientParams(p ClientParams) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.Validation("client name is required")
	}
	if p.CPF.IsZero() {
		return apperror.Validation("client CPF is required")
	}
	return nil
}

// OwnedBy reports whether creditorID owns the client.
func (c Client) OwnedBy(creditorID string) bool { return c.creditorID == creditorID }

// Snapshot returns the persisted shape of the client.
func (c Client) Snapshot() ClientSnapshot {
	return ClientSnapshot{
		ID:           c.id,
		CreditorID:   c.creditorID,
		Name:         c.name,
		CPF:          c.cpf,
		WhatsApp:     c.whatsApp,
		Address:      c.address,
		City:         c.city,
		State:        c.state,
		Observations: c.observations,
		CreatedAt:    c.createdAt,
		UpdatedAt:    c.updatedAt,
	}
}

func (c Client) ID() string                  { return c.id }
func (c Client) CreditorID() string          { return c.creditorID }
func (c Client) Name() string                { return c.name }
func (c Client) CPF() valueobject.CPF        { return c.cpf }
func (c Client) WhatsApp() valueobject.Phone { return c.whatsApp }
func (c Client) Address() string             { return c.address }
func (c Client) City() string                { return c.city }
func (c Client) State() string               { return c.state }
func (c Client) Observations() string        { return c.observations }
func (c Client) CreatedAt() time.Time        { return c.createdAt }
func (c Client) UpdatedAt() time.Time        { return c.updatedAt }
