package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrSigningDisabled is returned by GenerateToken on a service holding
	// only a public key.
	ErrSigningDisabled = errors.New("auth: token signing needs a private key or secret")
	// ErrNoCreditor marks a well-signed token that names no creditor.
	ErrNoCreditor = errors.New("auth: token carries no user_id")
)

// JWTConfig selects how tokens are verified. Exactly one key source is used,
// in the order PrivateKeyPEM, PublicKeyPEM, Secret.
type JWTConfig struct {
	// Secret is an HMAC-SHA256 key.
	Secret string
	// PrivateKeyPEM is an RSA key; the service can then both sign and verify.
	PrivateKeyPEM string
	// PublicKeyPEM is an RSA public key for verify-only deployments.
	PublicKeyPEM string
	// Issuer, when set, must match the iss claim.
	Issuer string
	// Expiration is the lifetime of tokens minted by GenerateToken.
	Expiration time.Duration
}

// JWTService verifies the bearer tokens presented to the ledger APIs.
// Tokens are minted by the identity provider in production; GenerateToken
// serves tooling and tests.
type JWTService struct {
	issuer     string
	expiration time.Duration
	method     jwt.SigningMethod
	signKey    any
	verifyKey  any
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	svc := &JWTService{issuer: cfg.Issuer, expiration: cfg.Expiration}

	switch {
	case cfg.PrivateKeyPEM != "":
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("auth: parse RSA private key: %w", err)
		}
		svc.method, svc.signKey, svc.verifyKey = jwt.SigningMethodRS256, key, &key.PublicKey
	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("auth: parse RSA public key: %w", err)
		}
		svc.method, svc.verifyKey = jwt.SigningMethodRS256, key
	case cfg.Secret != "":
		svc.method, svc.signKey, svc.verifyKey = jwt.SigningMethodHS256, []byte(cfg.Secret), []byte(cfg.Secret)
	default:
		return nil, errors.New("auth: one of PrivateKeyPEM, PublicKeyPEM or Secret is required")
	}
	return svc, nil
}

// GenerateToken mints a token acting for creditorID.
func (s *JWTService) GenerateToken(creditorID uuid.UUID, roles []string) (string, error) {
	if s.signKey == nil {
		return "", ErrSigningDisabled
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   creditorID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		CreditorID: creditorID,
		Roles:      roles,
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.signKey)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, algorithm, expiry and issuer, and
// requires a creditor id.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	if claims.CreditorID == uuid.Nil {
		return nil, ErrNoCreditor
	}
	return claims, nil
}
