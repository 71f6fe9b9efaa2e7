package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CreateProfileParams carries the profile fields forwarded to the user service.
// UserID is the credential's identity key; both stores share it.
type CreateProfileParams struct {
	UserID    uuid.UUID
	Email     string
	Name      string
	Surname   string
	BirthDate time.Time
}

// Profile is the remote profile record as returned by the user service.
type Profile struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Surname   string
	BirthDate time.Time
	Active    bool
}

// ProfileClient wraps the user service HTTP API for the registration and
// deletion coordinators. Implementations must normalize transport errors,
// timeouts and non-2xx responses into domain.ErrDependencyFailure.
type ProfileClient interface {
	CreateProfile(ctx context.Context, params CreateProfileParams, adminToken string) (Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID, callingService string) error
}
