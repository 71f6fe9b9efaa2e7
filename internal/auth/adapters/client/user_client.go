package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

const (
	birthDateLayout   = "2006-01-02"
	headerServiceName = "X-Service-Name"
)

// UserServiceClient wraps the user service profile API for the registration
// and deletion coordinators. Transport failures, timeouts and non-2xx
// responses are all normalized into domain.ErrDependencyFailure so the
// coordinators see a single remote-failure class.
//
// The create path deliberately has no retry: the remote contract carries no
// idempotency key, so a retried create could duplicate the profile.
type UserServiceClient struct {
	baseURL     string
	serviceName string
	httpClient  *http.Client
}

func NewUserServiceClient(baseURL, serviceName string, timeout time.Duration) *UserServiceClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &UserServiceClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		serviceName: serviceName,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type createProfileBody struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	BirthDate string `json:"birth_date"`
}

type profileBody struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	BirthDate string    `json:"birth_date"`
	Active    bool      `json:"active"`
}

type profileEnvelope struct {
	Status string      `json:"status"`
	Data   profileBody `json:"data"`
}

func (c *UserServiceClient) CreateProfile(ctx context.Context, params ports.CreateProfileParams, adminToken string) (ports.Profile, error) {
	payload, err := json.Marshal(createProfileBody{
		UserID:    params.UserID.String(),
		Email:     params.Email,
		Name:      params.Name,
		Surname:   params.Surname,
		BirthDate: params.BirthDate.Format(birthDateLayout),
	})
	if err != nil {
		return ports.Profile{}, fmt.Errorf("marshal create profile request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/users", bytes.NewReader(payload))
	if err != nil {
		return ports.Profile{}, fmt.Errorf("build create profile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set(headerServiceName, c.serviceName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.Profile{}, fmt.Errorf("%w: user service unreachable: %v", domain.ErrDependencyFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ports.Profile{}, fmt.Errorf("%w: user service returned status %d", domain.ErrDependencyFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ports.Profile{}, fmt.Errorf("%w: read user service response: %v", domain.ErrDependencyFailure, err)
	}
	var envelope profileEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ports.Profile{}, fmt.Errorf("%w: decode user service response: %v", domain.ErrDependencyFailure, err)
	}

	birthDate, err := time.Parse(birthDateLayout, envelope.Data.BirthDate)
	if err != nil {
		birthDate = params.BirthDate
	}
	return ports.Profile{
		ID:        envelope.Data.ID,
		Email:     envelope.Data.Email,
		Name:      envelope.Data.Name,
		Surname:   envelope.Data.Surname,
		BirthDate: birthDate,
		Active:    envelope.Data.Active,
	}, nil
}

func (c *UserServiceClient) DeleteProfile(ctx context.Context, id uuid.UUID, callingService string) error {
	url := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("build delete profile request: %w", err)
	}
	if callingService == "" {
		callingService = c.serviceName
	}
	req.Header.Set(headerServiceName, callingService)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: user service unreachable: %v", domain.ErrDependencyFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// A profile already gone counts as deleted; the local step decides
	// idempotency semantics for the credential side.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: user service returned status %d", domain.ErrDependencyFailure, resp.StatusCode)
	}
	return nil
}

var _ ports.ProfileClient = (*UserServiceClient)(nil)
