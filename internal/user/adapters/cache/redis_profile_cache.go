package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stoliar/commerce-mesh/internal/user/domain"
	"github.com/stoliar/commerce-mesh/internal/user/ports"
)

const profileKeyPrefix = "user:profile:"

// Connect builds a redis client from either a redis:// URL or a bare host:port.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

type cachedProfile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	BirthDate time.Time `json:"birth_date"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisProfileCache caches profile reads with a short TTL. Writes invalidate
// rather than refresh, keeping the repository authoritative.
type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProfileCache(client *redis.Client, ttl time.Duration) *RedisProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisProfileCache{client: client, ttl: ttl}
}

func (c *RedisProfileCache) Get(ctx context.Context, id uuid.UUID) (domain.Profile, bool, error) {
	raw, err := c.client.Get(ctx, profileKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Profile{}, false, nil
	}
	if err != nil {
		return domain.Profile{}, false, err
	}

	var cached cachedProfile
	if err := json.Unmarshal(raw, &cached); err != nil {
		_ = c.client.Del(ctx, profileKeyPrefix+id.String()).Err()
		return domain.Profile{}, false, nil
	}
	return domain.Profile{
		ID:        cached.ID,
		Email:     cached.Email,
		Name:      cached.Name,
		Surname:   cached.Surname,
		BirthDate: cached.BirthDate,
		Active:    cached.Active,
		CreatedAt: cached.CreatedAt,
		UpdatedAt: cached.UpdatedAt,
	}, true, nil
}

func (c *RedisProfileCache) Set(ctx context.Context, profile domain.Profile) error {
	raw, err := json.Marshal(cachedProfile{
		ID:        profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		Surname:   profile.Surname,
		BirthDate: profile.BirthDate,
		Active:    profile.Active,
		CreatedAt: profile.CreatedAt,
		UpdatedAt: profile.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, profileKeyPrefix+profile.ID.String(), raw, c.ttl).Err()
}

func (c *RedisProfileCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, profileKeyPrefix+id.String()).Err()
}

var _ ports.ProfileCache = (*RedisProfileCache)(nil)
