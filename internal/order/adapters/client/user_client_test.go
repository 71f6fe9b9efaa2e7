package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/order/domain"
)

func newTestClient(baseURL string) *UserServiceClient {
	return NewUserServiceClient(UserClientConfig{
		BaseURL:          baseURL,
		Timeout:          time.Second,
		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
		MaxAttempts:      3,
		RetryBase:        time.Millisecond,
		RetryCap:         5 * time.Millisecond,
	})
}

func TestGetUserSuccess(t *testing.T) {
	t.Parallel()
	id := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer caller-token" {
			t.Errorf("authorization header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"id":      id.String(),
				"email":   "owner@example.com",
				"name":    "Order",
				"surname": "Owner",
				"active":  true,
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	user, err := c.GetUser(context.Background(), id, "caller-token")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.ID != id || user.Email != "owner@example.com" || !user.Active {
		t.Errorf("user = %+v", user)
	}
}

func TestGetUserRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"id": id.String(), "email": "owner@example.com", "active": true},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	user, err := c.GetUser(context.Background(), id, "caller-token")
	if err != nil {
		t.Fatalf("GetUser after retries: %v", err)
	}
	if user.ID != id {
		t.Errorf("user id = %s", user.ID)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestGetUserNotFoundIsDefinitiveAndNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.GetUser(context.Background(), uuid.New(), "caller-token")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
	// A definitive answer must not count against the breaker.
	if c.breaker.State() != "closed" {
		t.Errorf("breaker state = %s, want closed", c.breaker.State())
	}
}

func TestGetUserExhaustedRetriesReturnDependencyFailure(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.GetUser(context.Background(), uuid.New(), "caller-token")
	if !errors.Is(err, domain.ErrDependencyFailure) {
		t.Fatalf("err = %v, want ErrDependencyFailure", err)
	}
}

func TestGetUserFailsFastWhenCircuitOpen(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewUserServiceClient(UserClientConfig{
		BaseURL:          server.URL,
		Timeout:          time.Second,
		BreakerThreshold: 2,
		BreakerCooldown:  time.Minute,
		MaxAttempts:      2,
		RetryBase:        time.Millisecond,
		RetryCap:         time.Millisecond,
	})

	// First call burns through the threshold and opens the circuit.
	if _, err := c.GetUser(context.Background(), uuid.New(), "t"); !errors.Is(err, domain.ErrDependencyFailure) {
		t.Fatalf("first call err = %v", err)
	}
	before := calls.Load()

	// Second call must not reach the server.
	_, err := c.GetUser(context.Background(), uuid.New(), "t")
	if !errors.Is(err, domain.ErrDependencyFailure) {
		t.Fatalf("second call err = %v", err)
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second call err = %v, want ErrCircuitOpen", err)
	}
	if calls.Load() != before {
		t.Errorf("open circuit still reached the server")
	}
}
