package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/user/domain"
	"github.com/stoliar/commerce-mesh/internal/user/ports"
)

// AuthServiceClient validates bearer tokens against the auth service.
// The auth validate endpoint answers 200 for well-formed requests and
// reports token validity in the body, so transport errors are the only
// dependency-failure case.
type AuthServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAuthServiceClient(baseURL string, timeout time.Duration) *AuthServiceClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AuthServiceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type validateEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		Valid     bool      `json:"valid"`
		UserID    string    `json:"user_id"`
		Email     string    `json:"email"`
		Role      string    `json:"role"`
		ExpiresAt time.Time `json:"expires_at"`
	} `json:"data"`
}

func (c *AuthServiceClient) Validate(ctx context.Context, token string) (ports.Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/validate", nil)
	if err != nil {
		return ports.Principal{}, fmt.Errorf("build validate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.Principal{}, fmt.Errorf("%w: auth service unreachable: %v", domain.ErrDependencyFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ports.Principal{}, fmt.Errorf("%w: auth service returned status %d", domain.ErrDependencyFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ports.Principal{}, fmt.Errorf("%w: read auth service response: %v", domain.ErrDependencyFailure, err)
	}
	var envelope validateEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ports.Principal{}, fmt.Errorf("%w: decode auth service response: %v", domain.ErrDependencyFailure, err)
	}
	if !envelope.Data.Valid {
		return ports.Principal{}, domain.ErrUnauthorized
	}

	userID, err := uuid.Parse(envelope.Data.UserID)
	if err != nil {
		return ports.Principal{}, domain.ErrUnauthorized
	}
	return ports.Principal{
		UserID:    userID,
		Email:     envelope.Data.Email,
		Role:      envelope.Data.Role,
		ExpiresAt: envelope.Data.ExpiresAt,
	}, nil
}

var _ ports.TokenValidator = (*AuthServiceClient)(nil)
