package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/user/domain"
)

// UpdateProfileParams carries the mutable profile fields. Nil pointers leave
// the stored value untouched.
type UpdateProfileParams struct {
	ID        uuid.UUID
	Name      *string
	Surname   *string
	BirthDate *time.Time
	UpdatedAt time.Time
}

// ListProfilesParams pages through active profiles.
type ListProfilesParams struct {
	Limit  int
	Offset int
}

// ProfileRepository persists user profiles.
//
// Create must surface unique violations on id or email as
// domain.ErrDuplicateResource. SoftDelete on an inactive or missing row must
// return domain.ErrNotFound so repeated deletes stay observable.
type ProfileRepository interface {
	Create(ctx context.Context, profile domain.Profile) (domain.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (domain.Profile, error)
	List(ctx context.Context, params ListProfilesParams) ([]domain.Profile, error)
	Update(ctx context.Context, params UpdateProfileParams) (domain.Profile, error)
	SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error
}
