package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stoliar/commerce-mesh/internal/user/domain"
	"github.com/stoliar/commerce-mesh/internal/user/ports"
)

// ProfileRepository is the GORM-backed implementation of ports.ProfileRepository.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	model := toProfileModel(profile)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Profile{}, domain.ErrDuplicateResource
		}
		return domain.Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return toDomainProfile(model), nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error) {
	var model profileModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = TRUE", id).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Profile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile by id: %w", err)
	}
	return toDomainProfile(model), nil
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (domain.Profile, error) {
	var model profileModel
	err := r.db.WithContext(ctx).
		Where("email = ? AND active = TRUE", email).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Profile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile by email: %w", err)
	}
	return toDomainProfile(model), nil
}

func (r *ProfileRepository) List(ctx context.Context, params ports.ListProfilesParams) ([]domain.Profile, error) {
	var models []profileModel
	err := r.db.WithContext(ctx).
		Where("active = TRUE").
		Order("created_at ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	profiles := make([]domain.Profile, 0, len(models))
	for _, m := range models {
		profiles = append(profiles, toDomainProfile(m))
	}
	return profiles, nil
}

func (r *ProfileRepository) Update(ctx context.Context, params ports.UpdateProfileParams) (domain.Profile, error) {
	updates := map[string]any{"updated_at": params.UpdatedAt}
	if params.Name != nil {
		updates["name"] = *params.Name
	}
	if params.Surname != nil {
		updates["surname"] = *params.Surname
	}
	if params.BirthDate != nil {
		updates["birth_date"] = *params.BirthDate
	}

	res := r.db.WithContext(ctx).
		Model(&profileModel{}).
		Where("id = ? AND active = TRUE", params.ID).
		Updates(updates)
	if res.Error != nil {
		return domain.Profile{}, fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Profile{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, params.ID)
}

// SoftDelete deactivates an active profile. The active guard makes the second
// delete of the same profile report ErrNotFound.
func (r *ProfileRepository) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&profileModel{}).
		Where("id = ? AND active = TRUE", id).
		Updates(map[string]any{"active": false, "updated_at": deletedAt})
	if res.Error != nil {
		return fmt.Errorf("soft delete profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)
