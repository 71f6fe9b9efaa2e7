package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
)

func TestDeleteUserRemovesRemoteThenLocal(t *testing.T) {
	t.Parallel()
	f := newFixture()
	id := uuid.New()

	if err := f.service.DeleteUser(context.Background(), id, "api-gateway"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	want := []string{"profile_delete", "credential_delete"}
	if len(f.sequence) != len(want) {
		t.Fatalf("sequence = %v, want %v", f.sequence, want)
	}
	for i := range want {
		if f.sequence[i] != want[i] {
			t.Fatalf("sequence = %v, want %v", f.sequence, want)
		}
	}

	if f.profiles.deleteCalls[0].callingService != "api-gateway" {
		t.Errorf("calling service = %q", f.profiles.deleteCalls[0].callingService)
	}
	event := f.creds.deleteCalls[0].event
	if event.EventType != "user.deleted" {
		t.Errorf("outbox event type = %q", event.EventType)
	}
	if event.PartitionKey != id.String() {
		t.Errorf("partition key = %q, want user id", event.PartitionKey)
	}
}

func TestDeleteUserRemoteFailurePreservesCredential(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.profiles.deleteErr = fmt.Errorf("%w: user service returned status 500", domain.ErrDependencyFailure)

	err := f.service.DeleteUser(context.Background(), uuid.New(), "api-gateway")
	if !errors.Is(err, domain.ErrDependencyFailure) {
		t.Fatalf("err = %v, want ErrDependencyFailure", err)
	}
	if len(f.creds.deleteCalls) != 0 {
		t.Errorf("local delete ran despite remote failure")
	}
}

func TestDeleteUserMissingLocalRowIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.creds.deleteErr = domain.ErrNotFound

	err := f.service.DeleteUser(context.Background(), uuid.New(), "api-gateway")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound passthrough", err)
	}
	// Remote delete still ran: the remote-first order holds even when the
	// local row is already gone.
	if len(f.profiles.deleteCalls) != 1 {
		t.Errorf("profile delete calls = %d, want 1", len(f.profiles.deleteCalls))
	}
}
