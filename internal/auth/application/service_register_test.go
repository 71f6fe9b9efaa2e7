package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

func TestRegisterSuccess(t *testing.T) {
	t.Parallel()
	f := newFixture()
	token := f.signer.mint(domain.RoleAdmin, ports.TokenKindAccess)

	res, err := f.service.Register(context.Background(), validRegisterRequest(), token)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if res.Credential.Email != "new.user@example.com" {
		t.Errorf("credential email = %q, want normalized lowercase", res.Credential.Email)
	}
	if res.Profile.ID != res.Credential.ID {
		t.Errorf("profile id %s != credential id %s, identity key must be shared", res.Profile.ID, res.Credential.ID)
	}
	if res.Profile.BirthDate != "1990-04-15" {
		t.Errorf("profile birth date = %q", res.Profile.BirthDate)
	}

	if len(f.creds.createCalls) != 1 {
		t.Fatalf("create calls = %d, want 1", len(f.creds.createCalls))
	}
	event := f.creds.createCalls[0].event
	if event.EventType != "user.registered" {
		t.Errorf("outbox event type = %q", event.EventType)
	}
	if len(f.profiles.createCalls) != 1 {
		t.Fatalf("profile create calls = %d, want 1", len(f.profiles.createCalls))
	}
	if f.profiles.createCalls[0].token != token {
		t.Errorf("profile create got token %q, want caller token forwarded", f.profiles.createCalls[0].token)
	}
	if len(f.creds.compensateCalls) != 0 {
		t.Errorf("compensate calls = %d, want 0", len(f.creds.compensateCalls))
	}
}

func TestRegisterRemoteFailureRollsBack(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.profiles.createErr = fmt.Errorf("%w: user service returned status 503", domain.ErrDependencyFailure)
	token := f.signer.mint(domain.RoleAdmin, ports.TokenKindAccess)

	_, err := f.service.Register(context.Background(), validRegisterRequest(), token)
	if !errors.Is(err, domain.ErrDependencyFailure) {
		t.Fatalf("err = %v, want ErrDependencyFailure", err)
	}

	if len(f.creds.compensateCalls) != 1 {
		t.Fatalf("compensate calls = %d, want 1", len(f.creds.compensateCalls))
	}
	created := f.creds.createCalls[0]
	if _, exists := f.creds.byEmail[created.params.Email]; exists {
		t.Error("credential row still present after rollback")
	}
	if len(f.outbox.enqueued) != 0 {
		t.Errorf("rollback alert enqueued = %d events, want 0 on clean rollback", len(f.outbox.enqueued))
	}
}

func TestRegisterRollbackFailureIsNeverDowngraded(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.profiles.createErr = fmt.Errorf("%w: user service unreachable", domain.ErrDependencyFailure)
	f.creds.compensateErr = errors.New("connection reset")
	token := f.signer.mint(domain.RoleAdmin, ports.TokenKindAccess)

	_, err := f.service.Register(context.Background(), validRegisterRequest(), token)
	if !errors.Is(err, domain.ErrRollbackFailed) {
		t.Fatalf("err = %v, want ErrRollbackFailed", err)
	}
	if errors.Is(err, domain.ErrDependencyFailure) {
		t.Error("rollback failure must not also match ErrDependencyFailure")
	}

	if len(f.outbox.enqueued) != 1 {
		t.Fatalf("alert events = %d, want 1", len(f.outbox.enqueued))
	}
	if f.outbox.enqueued[0].EventType != "registration.rollback_failed" {
		t.Errorf("alert event type = %q", f.outbox.enqueued[0].EventType)
	}
}

func TestRegisterAlreadyRolledBackCredentialIsNotAnOrphan(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.profiles.createErr = fmt.Errorf("%w: timeout", domain.ErrDependencyFailure)
	f.creds.compensateErr = domain.ErrNotFound
	token := f.signer.mint(domain.RoleAdmin, ports.TokenKindAccess)

	_, err := f.service.Register(context.Background(), validRegisterRequest(), token)
	if !errors.Is(err, domain.ErrDependencyFailure) {
		t.Fatalf("err = %v, want plain dependency failure when the row is already gone", err)
	}
	if errors.Is(err, domain.ErrRollbackFailed) {
		t.Error("missing row during compensation is not a failed rollback")
	}
}

func TestRegisterDuplicateEmailFastPath(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.creds.existing["new.user@example.com"] = true
	token := f.signer.mint(domain.RoleAdmin, ports.TokenKindAccess)

	_, err := f.service.Register(context.Background(), validRegisterRequest(), token)
	if !errors.Is(err, domain.ErrDuplicateResource) {
		t.Fatalf("err = %v, want ErrDuplicateResource", err)
	}
	if len(f.creds.createCalls) != 0 {
		t.Errorf("create calls = %d, want 0", len(f.creds.createCalls))
	}
}

func TestRegisterDuplicateEmailOnInsert(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.creds.createErr = domain.ErrDuplicateResource
	token := f.signer.mint(domain.RoleAdmin, ports.TokenKindAccess)

	_, err := f.service.Register(context.Background(), validRegisterRequest(), token)
	if !errors.Is(err, domain.ErrDuplicateResource) {
		t.Fatalf("err = %v, want ErrDuplicateResource", err)
	}
	if len(f.profiles.createCalls) != 0 {
		t.Errorf("remote create attempted after local insert failed")
	}
}

func TestRegisterAdminEscalationDenied(t *testing.T) {
	t.Parallel()
	f := newFixture()
	token := f.signer.mint(domain.RoleUser, ports.TokenKindAccess)

	req := validRegisterRequest()
	req.Role = "ADMIN"

	_, err := f.service.Register(context.Background(), req, token)
	if !errors.Is(err, domain.ErrAuthorizationDenied) {
		t.Fatalf("err = %v, want ErrAuthorizationDenied", err)
	}
	if len(f.creds.createCalls) != 0 {
		t.Errorf("credential created despite denied escalation")
	}
}

func TestRegisterUnknownCallerToken(t *testing.T) {
	t.Parallel()
	f := newFixture()

	_, err := f.service.Register(context.Background(), validRegisterRequest(), "garbage")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestRegisterRejectsRefreshTokenCaller(t *testing.T) {
	t.Parallel()
	f := newFixture()
	token := f.signer.mint(domain.RoleAdmin, ports.TokenKindRefresh)

	_, err := f.service.Register(context.Background(), validRegisterRequest(), token)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if len(f.creds.createCalls) != 0 {
		t.Errorf("credential created for a refresh-token caller")
	}
}

func TestRegisterInvalidInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }},
		{"unknown role", func(r *RegisterRequest) { r.Role = "SUPERUSER" }},
		{"bad birth date", func(r *RegisterRequest) { r.BirthDate = "15/04/1990" }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture()
			token := f.signer.mint(domain.RoleAdmin, ports.TokenKindAccess)

			req := validRegisterRequest()
			tc.mutate(&req)

			_, err := f.service.Register(context.Background(), req, token)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
