package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

// DeleteUser removes a user from both stores in strict order: remote profile
// first, local credential second. Deleting remote-first can never produce a
// profile without a credential (undetectable from this side), only a
// credential without a profile (detectable and reconcilable).
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID, callingService string) error {
	if err := s.profiles.DeleteProfile(ctx, id, callingService); err != nil {
		// Local credential row intentionally untouched.
		slog.Default().ErrorContext(ctx, "remote profile delete failed, credential preserved",
			"module", "application",
			"layer", "service",
			"operation", "delete_user",
			"outcome", "failure",
			"user_id", id.String(),
			"calling_service", callingService,
			"error", err,
		)
		return fmt.Errorf("delete user profile: %w", err)
	}

	now := s.nowFn()
	payload, _ := json.Marshal(map[string]any{
		"user_id":    id,
		"deleted_at": now,
		"deleted_by": callingService,
	})
	err := s.credentials.DeleteWithOutboxTx(ctx, id, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    "user.deleted",
		PartitionKey: id.String(),
		Payload:      payload,
		OccurredAt:   now,
	})
	if err != nil {
		// Missing local row after a successful remote delete is the idempotent
		// case, not a fatal one: a previous call already finished the local step.
		return err
	}

	slog.Default().InfoContext(ctx, "user deleted from both stores",
		"module", "application",
		"layer", "service",
		"operation", "delete_user",
		"outcome", "success",
		"user_id", id.String(),
		"calling_service", callingService,
	)
	return nil
}
