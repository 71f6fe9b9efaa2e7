package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/order/domain"
	"github.com/stoliar/commerce-mesh/internal/order/ports"
)

// UserServiceClient fetches user summaries for order enrichment. Lookups run
// behind a circuit breaker with bounded retries; GET is safe to retry.
type UserServiceClient struct {
	baseURL     string
	httpClient  *http.Client
	breaker     *CircuitBreaker
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
}

type UserClientConfig struct {
	BaseURL          string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
	MaxAttempts      int
	RetryBase        time.Duration
	RetryCap         time.Duration
}

func NewUserServiceClient(cfg UserClientConfig) *UserServiceClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 100 * time.Millisecond
	}
	if cfg.RetryCap <= 0 {
		cfg.RetryCap = time.Second
	}
	return &UserServiceClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		breaker:     NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		maxAttempts: cfg.MaxAttempts,
		retryBase:   cfg.RetryBase,
		retryCap:    cfg.RetryCap,
	}
}

type userEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		ID      uuid.UUID `json:"id"`
		Email   string    `json:"email"`
		Name    string    `json:"name"`
		Surname string    `json:"surname"`
		Active  bool      `json:"active"`
	} `json:"data"`
}

func (c *UserServiceClient) GetUser(ctx context.Context, id uuid.UUID, token string) (domain.UserSummary, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.backoff(attempt)); err != nil {
				return domain.UserSummary{}, fmt.Errorf("%w: %v", domain.ErrDependencyFailure, err)
			}
		}

		if !c.breaker.Allow() {
			return domain.UserSummary{}, fmt.Errorf("%w: %w", domain.ErrDependencyFailure, ErrCircuitOpen)
		}

		user, err := c.getUserOnce(ctx, id, token)
		if err == nil {
			c.breaker.Record(true)
			return user, nil
		}
		// Missing users are a definitive answer, not a service failure.
		if errors.Is(err, domain.ErrNotFound) {
			c.breaker.Record(true)
			return domain.UserSummary{}, err
		}

		c.breaker.Record(false)
		lastErr = err
		slog.Default().WarnContext(ctx, "user lookup attempt failed",
			"module", "order.client",
			"layer", "adapter",
			"operation", "get_user",
			"outcome", "failure",
			"attempt", attempt+1,
			"breaker_state", c.breaker.State(),
			"error", err,
		)
	}
	return domain.UserSummary{}, lastErr
}

func (c *UserServiceClient) getUserOnce(ctx context.Context, id uuid.UUID, token string) (domain.UserSummary, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.UserSummary{}, fmt.Errorf("build get user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.UserSummary{}, fmt.Errorf("%w: user service unreachable: %v", domain.ErrDependencyFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return domain.UserSummary{}, domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.UserSummary{}, fmt.Errorf("%w: user service returned status %d", domain.ErrDependencyFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.UserSummary{}, fmt.Errorf("%w: read user service response: %v", domain.ErrDependencyFailure, err)
	}
	var envelope userEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.UserSummary{}, fmt.Errorf("%w: decode user service response: %v", domain.ErrDependencyFailure, err)
	}

	return domain.UserSummary{
		ID:      envelope.Data.ID,
		Email:   envelope.Data.Email,
		Name:    envelope.Data.Name,
		Surname: envelope.Data.Surname,
		Active:  envelope.Data.Active,
	}, nil
}

func (c *UserServiceClient) backoff(attempt int) time.Duration {
	d := c.retryBase << (attempt - 1)
	if d > c.retryCap {
		return c.retryCap
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ ports.UserClient = (*UserServiceClient)(nil)
