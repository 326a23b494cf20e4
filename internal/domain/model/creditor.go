package model

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
)

// UniqueCodeLength is the length of a creditor lookup code.
const UniqueCodeLength = 8

const uniqueCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Creditor is the lender operating the ledger. Clients, loans and accounts
// all belong to exactly one creditor.
type Creditor struct {
	id           string
	name         string
	email        string
	passwordHash string
	uniqueCode   string
	pixKey       string
	city         string
	state        string
	createdAt    time.Time
}

// CreditorParams describes a new creditor. PasswordHash is already hashed.
type CreditorParams struct {
	Name         string
	Email        string
	PasswordHash string
	UniqueCode   string
	PixKey       string
	City         string
	State        string
}

// CreditorSnapshot is the persisted shape of a Creditor.
type CreditorSnapshot struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	UniqueCode   string
	PixKey       string
	City         string
	State        string
	CreatedAt    time.Time
}

// NewCreditor validates and creates a creditor.
func NewCreditor(p CreditorParams, now time.Time) (Creditor, error) {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return Creditor{}, apperror.Validation("creditor name is required")
	case !strings.Contains(p.Email, "@"):
		return Creditor{}, apperror.Validation("creditor email is invalid")
	case p.PasswordHash == "":
		return Creditor{}, apperror.Validation("password hash is required")
	case len(p.UniqueCode) != UniqueCodeLength:
		return Creditor{}, apperror.Validation("unique code must have %d characters", UniqueCodeLength)
	}
	return Creditor{
		id:           uuid.New().String(),
		name:         strings.TrimSpace(p.Name),
		email:        strings.ToLower(strings.TrimSpace(p.Email)),
		passwordHash: p.PasswordHash,
		uniqueCode:   p.UniqueCode,
		pixKey:       strings.TrimSpace(p.PixKey),
		city:         p.City,
		state:        p.State,
		createdAt:    now,
	}, nil
}

// ReconstructCreditor rebuilds a Creditor from persistence.
func ReconstructCreditor(s CreditorSnapshot) Creditor {
	return Creditor{
		id:           s.ID,
		name:         s.Name,
		email:        s.Email,
		passwordHash: s.PasswordHash,
		uniqueCode:   s.UniqueCode,
		pixKey:       s.PixKey,
		city:         s.City,
		state:        s.State,
		createdAt:    s.CreatedAt,
	}
}

// GenerateUniqueCode draws a random lookup code from [A-Z0-9].
func GenerateUniqueCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(uniqueCodeAlphabet)))
	for i := 0; i < UniqueCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate unique code: %w", err)
		}
		b.WriteByte(uniqueCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// Snapshot returns the persisted shape of the creditor.
func (c Creditor) Snapshot() CreditorSnapshot {
	return CreditorSnapshot{
		ID:           c.id,
		Name:         c.name,
		Email:        c.email,
		PasswordHash: c.passwordHash,
		UniqueCode:   c.uniqueCode,
		PixKey:       c.pixKey,
		City:         c.city,
		State:        c.state,
		CreatedAt:    c.createdAt,
	}
}

func (c Creditor) ID() string           { return c.id }
func (c Creditor) Name() string         { return c.name }
func (c Creditor) Email() string        { return c.email }
func (c Creditor) PasswordHash() string { return c.passwordHash }
func (c Creditor) UniqueCode() string   { return c.uniqueCode }
func (c Creditor) PixKey() string       { return c.pixKey }
func (c Creditor) City() string         { return c.city }
func (c Creditor) State() string        { return c.state }
func (c Creditor) CreatedAt() time.Time { return c.createdAt }
