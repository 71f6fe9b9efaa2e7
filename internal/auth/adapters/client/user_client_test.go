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

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

func testParams() ports.CreateProfileParams {
	return ports.CreateProfileParams{
		UserID:    uuid.New(),
		Email:     "new.user@example.com",
		Name:      "New",
		Surname:   "User",
		BirthDate: time.Date(1990, 4, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateProfileSuccess(t *testing.T) {
	t.Parallel()
	params := testParams()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/users" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer admin-token" {
			t.Errorf("authorization header = %q", got)
		}
		if got := r.Header.Get("X-Service-Name"); got != "auth-service" {
			t.Errorf("service name header = %q", got)
		}

		var body createProfileBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.UserID != params.UserID.String() {
			t.Errorf("user_id = %q, want credential id", body.UserID)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"id":         body.UserID,
				"email":      body.Email,
				"name":       body.Name,
				"surname":    body.Surname,
				"birth_date": body.BirthDate,
				"active":     true,
			},
		})
	}))
	defer server.Close()

	c := NewUserServiceClient(server.URL, "auth-service", time.Second)
	profile, err := c.CreateProfile(context.Background(), params, "admin-token")
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if profile.ID != params.UserID {
		t.Errorf("profile id = %s, want %s", profile.ID, params.UserID)
	}
	if !profile.Active {
		t.Error("profile not active")
	}
	if !profile.BirthDate.Equal(params.BirthDate) {
		t.Errorf("birth date = %s", profile.BirthDate)
	}
}

func TestCreateProfileNon2xxIsDependencyFailure(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewUserServiceClient(server.URL, "auth-service", time.Second)
	_, err := c.CreateProfile(context.Background(), testParams(), "admin-token")
	if !errors.Is(err, domain.ErrDependencyFailure) {
		t.Fatalf("err = %v, want ErrDependencyFailure", err)
	}
}

func TestCreateProfileTransportErrorIsDependencyFailure(t *testing.T) {
	t.Parallel()
	c := NewUserServiceClient("http://127.0.0.1:1", "auth-service", 200*time.Millisecond)
	_, err := c.CreateProfile(context.Background(), testParams(), "admin-token")
	if !errors.Is(err, domain.ErrDependencyFailure) {
		t.Fatalf("err = %v, want ErrDependencyFailure", err)
	}
}

func TestDeleteProfileTreatsNotFoundAsDeleted(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("X-Service-Name"); got != "api-gateway" {
			t.Errorf("service name header = %q", got)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewUserServiceClient(server.URL, "auth-service", time.Second)
	if err := c.DeleteProfile(context.Background(), uuid.New(), "api-gateway"); err != nil {
		t.Fatalf("DeleteProfile on 404: %v", err)
	}
}

func TestDeleteProfileServerError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewUserServiceClient(server.URL, "auth-service", time.Second)
	err := c.DeleteProfile(context.Background(), uuid.New(), "api-gateway")
	if !errors.Is(err, domain.ErrDependencyFailure) {
		t.Fatalf("err = %v, want ErrDependencyFailure", err)
	}
}
