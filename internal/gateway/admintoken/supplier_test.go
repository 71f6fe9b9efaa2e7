package admintoken

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractAccessTokenShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want string
	}{
		{"nested snake_case", `{"status":"success","data":{"access_token":"abc"}}`, "abc"},
		{"nested camelCase", `{"data":{"accessToken":"def"}}`, "def"},
		{"flat snake_case", `{"access_token":"ghi"}`, "ghi"},
		{"flat camelCase", `{"accessToken":"jkl"}`, "jkl"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := extractAccessToken([]byte(tc.body))
			if err != nil {
				t.Fatalf("extractAccessToken: %v", err)
			}
			if got != tc.want {
				t.Errorf("token = %q, want %q", got, tc.want)
			}
		})
	}

	if _, err := extractAccessToken([]byte(`{"status":"success","data":{}}`)); err == nil {
		t.Error("empty payload accepted")
	}
}

func TestSupplierAcquiresOnStartup(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body loginBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "gw@service.local" || body.Password != "secret" {
			t.Errorf("credentials = %+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"access_token": "admin-token-1"},
		})
	}))
	defer server.Close()

	s := NewSupplier(Config{
		AuthURL:  server.URL,
		Email:    "gw@service.local",
		Password: "secret",
	}, discardLogger())

	if _, ok := s.Token(); ok {
		t.Fatal("slot populated before acquisition")
	}

	s.acquireWithBackoff(context.Background())

	token, ok := s.Token()
	if !ok || token != "admin-token-1" {
		t.Fatalf("token = %q ok = %v", token, ok)
	}
}

func TestSupplierRetriesWithBackoffAndGivesUp(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := NewSupplier(Config{
		AuthURL:     server.URL,
		Email:       "gw@service.local",
		Password:    "secret",
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
		BackoffCap:  2 * time.Millisecond,
	}, discardLogger())

	s.acquireWithBackoff(context.Background())

	if got := calls.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if _, ok := s.Token(); ok {
		t.Error("slot populated despite all attempts failing")
	}
}

func TestSupplierRecoversOnLaterAttempt(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "late-token"})
	}))
	defer server.Close()

	s := NewSupplier(Config{
		AuthURL:     server.URL,
		Email:       "gw@service.local",
		Password:    "secret",
		MaxAttempts: 5,
		BackoffBase: time.Millisecond,
		BackoffCap:  2 * time.Millisecond,
	}, discardLogger())

	s.acquireWithBackoff(context.Background())

	token, ok := s.Token()
	if !ok || token != "late-token" {
		t.Fatalf("token = %q ok = %v", token, ok)
	}
}
