package ports

import (
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
)

// PasswordHasher abstracts password hashing so application stays crypto-library agnostic.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Token kinds distinguish short-lived access tokens from stored refresh tokens.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// TokenClaims is the identity payload carried inside signed tokens.
type TokenClaims struct {
	UserID    uuid.UUID
	Email     string
	Role      domain.Role
	Kind      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenSigner signs and parses bearer tokens.
// Parse must fail on expired or tampered tokens.
type TokenSigner interface {
	Sign(claims TokenClaims) (string, error)
	Parse(token string) (TokenClaims, error)
}
