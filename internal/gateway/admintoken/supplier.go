package admintoken

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Supplier holds the gateway's service admin token in a single atomic slot.
//
// The token is acquired by logging in to the auth service with the gateway's
// service account. Startup acquisition retries with bounded exponential
// backoff but never blocks the gateway: routes that need the token answer
// 503 while the slot is empty.
type Supplier struct {
	authURL    string
	email      string
	password   string
	httpClient *http.Client
	logger     *slog.Logger

	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	refreshEach time.Duration

	slot atomic.Pointer[string]
}

type Config struct {
	AuthURL         string
	Email           string
	Password        string
	Timeout         time.Duration
	MaxAttempts     int
	BackoffBase     time.Duration
	BackoffCap      time.Duration
	RefreshInterval time.Duration
}

func NewSupplier(cfg Config, logger *slog.Logger) *Supplier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 10 * time.Second
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 30 * time.Minute
	}
	return &Supplier{
		authURL:     strings.TrimRight(cfg.AuthURL, "/"),
		email:       cfg.Email,
		password:    cfg.Password,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		backoffCap:  cfg.BackoffCap,
		refreshEach: cfg.RefreshInterval,
	}
}

// Token returns the current admin token, or false when the slot is empty.
func (s *Supplier) Token() (string, bool) {
	p := s.slot.Load()
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

// Run performs the startup acquisition and then refreshes periodically. It
// returns when ctx is cancelled.
func (s *Supplier) Run(ctx context.Context) {
	s.acquireWithBackoff(ctx)

	ticker := time.NewTicker(s.refreshEach)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.acquireWithBackoff(ctx)
		}
	}
}

func (s *Supplier) acquireWithBackoff(ctx context.Context) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		token, err := s.login(ctx)
		if err == nil {
			s.slot.Store(&token)
			s.logger.InfoContext(ctx, "admin token acquired",
				"module", "gateway.admintoken",
				"layer", "adapter",
				"operation", "acquire_token",
				"outcome", "success",
				"attempt", attempt,
			)
			return
		}

		s.logger.WarnContext(ctx, "admin token acquisition failed",
			"module", "gateway.admintoken",
			"layer", "adapter",
			"operation", "acquire_token",
			"outcome", "failure",
			"attempt", attempt,
			"error", err,
		)
		if attempt == s.maxAttempts {
			return
		}

		delay := s.backoffBase << (attempt - 1)
		if delay > s.backoffCap {
			delay = s.backoffCap
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Supplier) login(ctx context.Context) (string, error) {
	payload, err := json.Marshal(loginBody{Email: s.email, Password: s.password})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL+"/api/v1/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}
	token, err := extractAccessToken(body)
	if err != nil {
		return "", err
	}
	return token, nil
}

// extractAccessToken accepts both a flat token payload and one nested under
// a data envelope, in snake_case or camelCase.
func extractAccessToken(body []byte) (string, error) {
	var envelope struct {
		AccessToken  string `json:"access_token"`
		AccessTokenC string `json:"accessToken"`
		Data         struct {
			AccessToken  string `json:"access_token"`
			AccessTokenC string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}

	for _, candidate := range []string{
		envelope.Data.AccessToken,
		envelope.Data.AccessTokenC,
		envelope.AccessToken,
		envelope.AccessTokenC,
	} {
		if candidate != "" {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("login response carried no access token")
}
