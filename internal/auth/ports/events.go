package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is an event at enqueue time.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord is a persisted outbox row as seen by the worker.
type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	LastError    string
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

// EventPublisher delivers outbox records to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
