package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/order/domain"
)

// UserClient looks up users in the user service. Failures, including an open
// circuit, surface as domain.ErrDependencyFailure; a missing user is
// domain.ErrNotFound.
type UserClient interface {
	GetUser(ctx context.Context, id uuid.UUID, token string) (domain.UserSummary, error)
}

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
type TokenValidator interface {
	Validate(ctx context.Context, token string) (Principal, error)
}
