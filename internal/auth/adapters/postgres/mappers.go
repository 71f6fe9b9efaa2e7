package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

func toDomainCredential(rec credentialModel) domain.Credential {
	return domain.Credential{
		ID:                 rec.UserID,
		Email:              rec.Email,
		PasswordHash:       rec.PasswordHash,
		Role:               domain.Role(rec.Role),
		Active:             rec.IsActive,
		RefreshToken:       rec.RefreshToken,
		RefreshTokenExpiry: rec.RefreshTokenExpiry,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
}

func toOutboxModel(event ports.OutboxEvent) authOutboxModel {
	payload := string(event.Payload)
	if payload == "" {
		payload = "{}"
	}
	return authOutboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		CreatedAt:    event.OccurredAt,
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
