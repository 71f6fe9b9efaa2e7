package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/user/domain"
)

// ProfileCache is a read-through cache for profile lookups. A miss is
// (zero, false, nil); cache errors are reported so callers can degrade to the
// repository.
type ProfileCache interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Profile, bool, error)
	Set(ctx context.Context, profile domain.Profile) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}
