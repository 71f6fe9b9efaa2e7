package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the api gateway.
type Config struct {
	ServiceName string
	HTTPPort    int

	AuthServiceURL  string
	UserServiceURL  string
	OrderServiceURL string

	AdminEmail           string
	AdminPassword        string
	AdminTokenTimeout    time.Duration
	AdminMaxAttempts     int
	AdminBackoffBase     time.Duration
	AdminBackoffCap      time.Duration
	AdminRefreshInterval time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int
}

type configFile struct {
	Service struct {
		Name     string `yaml:"name"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Upstreams struct {
		AuthServiceURL  string `yaml:"auth_service_url"`
		UserServiceURL  string `yaml:"user_service_url"`
		OrderServiceURL string `yaml:"order_service_url"`
	} `yaml:"upstreams"`
	RateLimit struct {
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// The admin service account password is env-only.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceName:          "api-gateway",
		HTTPPort:             8080,
		AuthServiceURL:       "http://auth-service:8081",
		UserServiceURL:       "http://user-service:8082",
		OrderServiceURL:      "http://order-service:8083",
		AdminEmail:           "gateway@service.local",
		AdminTokenTimeout:    5 * time.Second,
		AdminMaxAttempts:     5,
		AdminBackoffBase:     2 * time.Second,
		AdminBackoffCap:      10 * time.Second,
		AdminRefreshInterval: 30 * time.Minute,
		RateLimitPerSecond:   10,
		RateLimitBurst:       20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.Name != "" {
			cfg.ServiceName = f.Service.Name
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Upstreams.AuthServiceURL != "" {
			cfg.AuthServiceURL = f.Upstreams.AuthServiceURL
		}
		if f.Upstreams.UserServiceURL != "" {
			cfg.UserServiceURL = f.Upstreams.UserServiceURL
		}
		if f.Upstreams.OrderServiceURL != "" {
			cfg.OrderServiceURL = f.Upstreams.OrderServiceURL
		}
		if f.RateLimit.PerSecond > 0 {
			cfg.RateLimitPerSecond = f.RateLimit.PerSecond
		}
		if f.RateLimit.Burst > 0 {
			cfg.RateLimitBurst = f.RateLimit.Burst
		}
	}

	cfg.AuthServiceURL = envOrDefault("AUTH_SERVICE_URL", cfg.AuthServiceURL)
	cfg.UserServiceURL = envOrDefault("USER_SERVICE_URL", cfg.UserServiceURL)
	cfg.OrderServiceURL = envOrDefault("ORDER_SERVICE_URL", cfg.OrderServiceURL)
	cfg.AdminEmail = envOrDefault("GATEWAY_ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPassword = os.Getenv("GATEWAY_ADMIN_PASSWORD")

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.AdminMaxAttempts = envInt("ADMIN_TOKEN_MAX_ATTEMPTS", cfg.AdminMaxAttempts)
	cfg.AdminRefreshInterval = time.Duration(envInt("ADMIN_TOKEN_REFRESH_MINUTES", int(cfg.AdminRefreshInterval.Minutes()))) * time.Minute
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	if raw := os.Getenv("RATE_LIMIT_PER_SECOND"); raw != "" {
		if v, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil && v > 0 {
			cfg.RateLimitPerSecond = v
		}
	}

	if cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("missing GATEWAY_ADMIN_PASSWORD")
	}

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
