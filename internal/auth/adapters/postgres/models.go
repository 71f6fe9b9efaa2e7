package postgres

import (
	"time"

	"github.com/google/uuid"
)

type credentialModel struct {
	UserID             uuid.UUID  `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email              string     `gorm:"column:email"`
	PasswordHash       string     `gorm:"column:password_hash"`
	Role               string     `gorm:"column:role"`
	IsActive           bool       `gorm:"column:is_active"`
	RefreshToken       string     `gorm:"column:refresh_token"`
	RefreshTokenExpiry *time.Time `gorm:"column:refresh_token_expiry"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (credentialModel) TableName() string { return "user_credentials" }

type authOutboxModel struct {
	OutboxID     uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload"`
	RetryCount   int        `gorm:"column:retry_count"`
	LastError    string     `gorm:"column:last_error"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	LastErrorAt  *time.Time `gorm:"column:last_error_at"`
}

func (authOutboxModel) TableName() string { return "auth_outbox" }
