package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Principal is the validated identity of a caller.
type Principal struct {
	UserID    uuid.UUID
	Email     string
	Role      string
	ExpiresAt time.Time
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == "ADMIN"
}

// TokenValidator checks bearer tokens against the auth service.
// Invalid tokens map to domain.ErrUnauthorized and transport failures to
// domain.ErrDependencyFailure.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (Principal, error)
}
