package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/user/domain"
)

func TestValidateAcceptsValidToken(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/auth/validate" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer caller-token" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"valid":      true,
				"user_id":    userID.String(),
				"email":      "caller@example.com",
				"role":       "ADMIN",
				"expires_at": time.Now().Add(time.Hour).UTC(),
			},
		})
	}))
	defer server.Close()

	c := NewAuthServiceClient(server.URL, time.Second)
	principal, err := c.Validate(context.Background(), "caller-token")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if principal.UserID != userID || principal.Role != "ADMIN" {
		t.Errorf("principal = %+v", principal)
	}
	if !principal.IsAdmin() {
		t.Error("ADMIN principal not recognized as admin")
	}
}

func TestValidateRejectsInvalidToken(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"valid": false},
		})
	}))
	defer server.Close()

	c := NewAuthServiceClient(server.URL, time.Second)
	if _, err := c.Validate(context.Background(), "stale"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestValidateTransportFailureIsDependencyFailure(t *testing.T) {
	t.Parallel()
	c := NewAuthServiceClient("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := c.Validate(context.Background(), "anything"); !errors.Is(err, domain.ErrDependencyFailure) {
		t.Fatalf("err = %v, want ErrDependencyFailure", err)
	}
}
