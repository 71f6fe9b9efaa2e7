package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

const birthDateLayout = "2006-01-02"

// Register performs the two-phase, cross-service user creation: a committed
// credential insert followed by a remote profile create, with a compensating
// credential delete when the remote side fails. The caller token is the
// gateway-injected admin bearer; it authorizes the request locally and is
// forwarded to the user service unchanged.
//
// The steps are strictly sequential: the rollback decision after the remote
// call only makes sense against an already durable local row.
func (s *Service) Register(ctx context.Context, req RegisterRequest, callerToken string) (RegisterResponse, error) {
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return RegisterResponse{}, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return RegisterResponse{}, err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return RegisterResponse{}, err
	}
	birthDate, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("%w: birth_date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}

	caller, err := s.tokenSigner.Parse(callerToken)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if caller.Kind != ports.TokenKindAccess {
		return RegisterResponse{}, fmt.Errorf("%w: not an access token", domain.ErrUnauthorized)
	}
	if role == domain.RoleAdmin && caller.Role != domain.RoleAdmin {
		return RegisterResponse{}, fmt.Errorf("%w: only ADMIN callers may create ADMIN users", domain.ErrAuthorizationDenied)
	}

	// Fast path only. The unique constraint on email remains the authoritative
	// duplicate check; a concurrent registration can still slip past this read.
	exists, err := s.credentials.ExistsByEmail(ctx, email)
	if err != nil {
		return RegisterResponse{}, err
	}
	if exists {
		return RegisterResponse{}, fmt.Errorf("%w: email %s", domain.ErrDuplicateResource, email)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	payload, _ := json.Marshal(map[string]any{
		"email":         email,
		"role":          string(role),
		"registered_at": now,
	})
	cred, err := s.credentials.CreateWithOutboxTx(ctx, ports.CreateCredentialParams{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
	}, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    "user.registered",
		PartitionKey: email,
		Payload:      payload,
		OccurredAt:   now,
	})
	if err != nil {
		return RegisterResponse{}, err
	}
	s.logRegistration(ctx, cred.ID, email, domain.PhaseLocalCommitted, nil)

	s.logRegistration(ctx, cred.ID, email, domain.PhaseRemoteAttempted, nil)
	profile, remoteErr := s.profiles.CreateProfile(ctx, ports.CreateProfileParams{
		UserID:    cred.ID,
		Email:     email,
		Name:      req.Name,
		Surname:   req.Surname,
		BirthDate: birthDate,
	}, callerToken)
	if remoteErr != nil {
		return RegisterResponse{}, s.rollbackRegistration(ctx, cred, remoteErr)
	}
	s.logRegistration(ctx, cred.ID, email, domain.PhaseRemoteSucceeded, nil)

	return RegisterResponse{
		Credential: toCredentialView(cred),
		Profile:    toProfileView(profile),
	}, nil
}

// rollbackRegistration is the compensating action: remove the just-committed
// credential so the failed registration leaves no partial state. The delete is
// best-effort; when it fails too, the orphaned row is reported as
// ErrRollbackFailed so operators can reconcile, never as a plain dependency
// failure.
func (s *Service) rollbackRegistration(ctx context.Context, cred domain.Credential, remoteErr error) error {
	if delErr := s.credentials.CompensateCreate(ctx, cred.ID); delErr != nil && !errors.Is(delErr, domain.ErrNotFound) {
		s.logRegistration(ctx, cred.ID, cred.Email, domain.PhaseRollbackFailed, delErr)
		s.enqueueRollbackAlert(ctx, cred, remoteErr, delErr)
		return fmt.Errorf("%w: remote create failed (%v) and compensating delete failed: %v",
			domain.ErrRollbackFailed, remoteErr, delErr)
	}
	s.logRegistration(ctx, cred.ID, cred.Email, domain.PhaseRolledBack, remoteErr)
	return fmt.Errorf("create user profile: %w", remoteErr)
}

// enqueueRollbackAlert records the orphaned credential on the outbox so the
// alerting pipeline picks it up even if this process dies right after. The
// enqueue itself is best-effort; a log line is the last resort.
func (s *Service) enqueueRollbackAlert(ctx context.Context, cred domain.Credential, remoteErr, delErr error) {
	now := s.nowFn()
	payload, _ := json.Marshal(map[string]any{
		"user_id":        cred.ID,
		"email":          cred.Email,
		"remote_error":   remoteErr.Error(),
		"rollback_error": delErr.Error(),
		"occurred_at":    now,
	})
	event := ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    "registration.rollback_failed",
		PartitionKey: cred.ID.String(),
		Payload:      payload,
		OccurredAt:   now,
	}
	if err := s.outbox.Enqueue(ctx, event); err != nil {
		slog.Default().ErrorContext(ctx, "failed to enqueue rollback alert",
			"module", "application",
			"layer", "service",
			"operation", "enqueue_rollback_alert",
			"outcome", "failure",
			"user_id", cred.ID.String(),
			"error", err,
		)
	}
}

func (s *Service) logRegistration(ctx context.Context, id uuid.UUID, email string, phase domain.RegistrationPhase, err error) {
	fields := []any{
		"module", "application",
		"layer", "service",
		"operation", "register",
		"user_id", id.String(),
		"email", email,
		"phase", string(phase),
	}
	switch phase {
	case domain.PhaseRollbackFailed:
		fields = append(fields, "outcome", "failure", "error", err)
		slog.Default().ErrorContext(ctx, "registration rollback failed, credential row orphaned", fields...)
	case domain.PhaseRolledBack:
		fields = append(fields, "outcome", "failure", "error", err)
		slog.Default().WarnContext(ctx, "registration rolled back after remote failure", fields...)
	default:
		fields = append(fields, "outcome", "success")
		slog.Default().InfoContext(ctx, "registration phase reached", fields...)
	}
}

func toCredentialView(cred domain.Credential) CredentialView {
	return CredentialView{
		ID:        cred.ID,
		Email:     cred.Email,
		Role:      string(cred.Role),
		Active:    cred.Active,
		CreatedAt: cred.CreatedAt,
	}
}

func toProfileView(profile ports.Profile) ProfileView {
	return ProfileView{
		ID:        profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		Surname:   profile.Surname,
		BirthDate: profile.BirthDate.Format(birthDateLayout),
		Active:    profile.Active,
	}
}
