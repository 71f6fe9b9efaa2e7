package proxy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stoliar/commerce-mesh/internal/gateway/admintoken"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newSuppliedToken builds a supplier whose slot already holds a token.
func newSuppliedToken(t *testing.T, token string) *admintoken.Supplier {
	t.Helper()
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": token})
	}))
	t.Cleanup(auth.Close)

	s := admintoken.NewSupplier(admintoken.Config{
		AuthURL:  auth.URL,
		Email:    "gw@service.local",
		Password: "secret",
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := s.Token(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("supplier did not acquire token")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
	return s
}

func newEmptySupplier(t *testing.T) *admintoken.Supplier {
	t.Helper()
	return admintoken.NewSupplier(admintoken.Config{
		AuthURL:  "http://127.0.0.1:1",
		Email:    "gw@service.local",
		Password: "secret",
	}, discardLogger())
}

func TestForwardRegisterInjectsAdminHeaders(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer the-admin-token" {
			t.Errorf("authorization = %q, want injected admin token", got)
		}
		if got := r.Header.Get("X-Service-Name"); got != "api-gateway" {
			t.Errorf("service name = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}))
	defer upstream.Close()

	g, err := NewGateway(Config{
		AuthServiceURL:  upstream.URL,
		UserServiceURL:  upstream.URL,
		OrderServiceURL: upstream.URL,
	}, newSuppliedToken(t, "the-admin-token"), discardLogger())
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	router := g.Routes(NewRateLimiter(100, 100))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{}`))
	// A client-supplied token must be replaced, not forwarded.
	req.Header.Set("Authorization", "Bearer client-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestForwardRegisterAnswers503WhenSlotEmpty(t *testing.T) {
	t.Parallel()

	g, err := NewGateway(Config{
		AuthServiceURL:  "http://127.0.0.1:1",
		UserServiceURL:  "http://127.0.0.1:1",
		OrderServiceURL: "http://127.0.0.1:1",
	}, newEmptySupplier(t), discardLogger())
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	router := g.Routes(NewRateLimiter(100, 100))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "DEPENDENCY_FAILURE") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestOtherAuthRoutesForwardUntouched(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer client-token" {
			t.Errorf("authorization = %q, want client token preserved", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	g, err := NewGateway(Config{
		AuthServiceURL:  upstream.URL,
		UserServiceURL:  upstream.URL,
		OrderServiceURL: upstream.URL,
	}, newSuppliedToken(t, "the-admin-token"), discardLogger())
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	router := g.Routes(NewRateLimiter(100, 100))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer client-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGatewayStripsClientServiceIdentity(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Service-Name"); got != "" {
			t.Errorf("client-supplied X-Service-Name forwarded: %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	g, err := NewGateway(Config{
		AuthServiceURL:  upstream.URL,
		UserServiceURL:  upstream.URL,
		OrderServiceURL: upstream.URL,
	}, newEmptySupplier(t), discardLogger())
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	router := g.Routes(NewRateLimiter(100, 100))
	for _, path := range []string{"/api/v1/users/abc", "/api/v1/orders/abc", "/api/v1/auth/validate"} {
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req.Header.Set("X-Service-Name", "auth-service")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(1, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}

	// A different client IP has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("fresh ip status = %d, want 200", rec.Code)
	}
}
