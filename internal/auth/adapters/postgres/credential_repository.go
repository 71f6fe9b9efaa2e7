package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

type credentialRepository struct {
	db *gorm.DB
}

func (r *credentialRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&credentialModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *credentialRepository) CreateWithOutboxTx(ctx context.Context, params ports.CreateCredentialParams, event ports.OutboxEvent) (domain.Credential, error) {
	var result domain.Credential
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := credentialModel{
			Email:        params.Email,
			PasswordHash: params.PasswordHash,
			Role:         string(params.Role),
			IsActive:     true,
			CreatedAt:    params.CreatedAt,
			UpdatedAt:    params.CreatedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateResource
			}
			return err
		}

		outbox := toOutboxModel(event)
		// Re-key the event to the generated identity so consumers and the
		// compensating delete can correlate by user id.
		outbox.PartitionKey = rec.UserID.String()
		if err := tx.Create(&outbox).Error; err != nil {
			return err
		}

		result = toDomainCredential(rec)
		return nil
	})
	if err != nil {
		return domain.Credential{}, err
	}
	return result, nil
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (domain.Credential, error) {
	var rec credentialModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Credential{}, domain.ErrNotFound
		}
		return domain.Credential{}, err
	}
	return toDomainCredential(rec), nil
}

func (r *credentialRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Credential, error) {
	var rec credentialModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Credential{}, domain.ErrNotFound
		}
		return domain.Credential{}, err
	}
	return toDomainCredential(rec), nil
}

func (r *credentialRepository) CompensateCreate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", id).Delete(&credentialModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		// Drop events the rolled-back registration enqueued but the worker has
		// not shipped yet; a rolled-back user must not leak a registered event.
		return tx.Where("partition_key = ? AND published_at IS NULL", id.String()).
			Delete(&authOutboxModel{}).Error
	})
}

func (r *credentialRepository) DeleteWithOutboxTx(ctx context.Context, id uuid.UUID, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", id).Delete(&credentialModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		outbox := toOutboxModel(event)
		return tx.Create(&outbox).Error
	})
}

func (r *credentialRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time, updatedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&credentialModel{}).
		Where("user_id = ?", id).
		Updates(map[string]any{
			"refresh_token":        token,
			"refresh_token_expiry": expiry,
			"updated_at":           updatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
