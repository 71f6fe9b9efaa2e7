package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
)

// CreateCredentialParams carries the fields for a new credential row.
type CreateCredentialParams struct {
	Email        string
	PasswordHash string
	Role         domain.Role
	CreatedAt    time.Time
}

// CredentialRepository owns the credentials table. Create and the saga-driven
// delete run inside a local transaction together with their outbox event so
// the durable write and the event enqueue cannot diverge.
type CredentialRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateWithOutboxTx(ctx context.Context, params CreateCredentialParams, event OutboxEvent) (domain.Credential, error)
	GetByEmail(ctx context.Context, email string) (domain.Credential, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Credential, error)
	// CompensateCreate undoes a committed registration: it hard-deletes the
	// credential row together with its still-unpublished outbox events so a
	// rolled-back user never leaks a user.registered event. Returns
	// domain.ErrNotFound when no row exists.
	CompensateCreate(ctx context.Context, id uuid.UUID) error
	// DeleteWithOutboxTx hard-deletes a credential and enqueues the given
	// event in the same transaction. Returns domain.ErrNotFound when absent.
	DeleteWithOutboxTx(ctx context.Context, id uuid.UUID, event OutboxEvent) error
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time, updatedAt time.Time) error
}

// OutboxRepository persists events for the polling publisher.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, publishedAt time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, reason string, failedAt time.Time) error
}
