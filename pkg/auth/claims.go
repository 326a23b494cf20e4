package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles understood by the ledger.
const (
	// RoleCreditor is carried by lender-facing clients.
	RoleCreditor = "creditor"
	// RoleLedgerAdmin allows creditor-wide batches and payment-provider
	// notifications.
	RoleLedgerAdmin = "ledger-admin"
)

// Claims are the token claims of a ledger caller. CreditorID is the tenant
// every request is scoped to and travels as "user_id".
type Claims struct {
	jwt.RegisteredClaims
	CreditorID uuid.UUID `json:"user_id"`
	Roles      []string  `json:"roles"`
}

// HasRole reports whether the claims grant role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}
