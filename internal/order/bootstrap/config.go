package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the order service.
type Config struct {
	ServiceName string
	HTTPPort    int

	DatabaseURL string

	AuthServiceURL     string
	AuthServiceTimeout time.Duration
	UserServiceURL     string
	UserServiceTimeout time.Duration

	BreakerThreshold int
	BreakerCooldown  time.Duration
	RetryMaxAttempts int
	RetryBase        time.Duration
	RetryCap         time.Duration

	DefaultPageSize int
	MaxPageSize     int
	MaxDBConns      int32
}

type configFile struct {
	Service struct {
		Name     string `yaml:"name"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL    string `yaml:"postgres_url"`
		AuthServiceURL string `yaml:"auth_service_url"`
		UserServiceURL string `yaml:"user_service_url"`
	} `yaml:"dependencies"`
	Breaker struct {
		Threshold       int `yaml:"threshold"`
		CooldownSeconds int `yaml:"cooldown_seconds"`
	} `yaml:"breaker"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceName:        "order-service",
		HTTPPort:           8083,
		AuthServiceURL:     "http://auth-service:8081",
		AuthServiceTimeout: 3 * time.Second,
		UserServiceURL:     "http://user-service:8082",
		UserServiceTimeout: 3 * time.Second,
		BreakerThreshold:   5,
		BreakerCooldown:    30 * time.Second,
		RetryMaxAttempts:   3,
		RetryBase:          100 * time.Millisecond,
		RetryCap:           time.Second,
		DefaultPageSize:    20,
		MaxPageSize:        100,
		MaxDBConns:         20,
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
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.AuthServiceURL != "" {
			cfg.AuthServiceURL = f.Dependencies.AuthServiceURL
		}
		if f.Dependencies.UserServiceURL != "" {
			cfg.UserServiceURL = f.Dependencies.UserServiceURL
		}
		if f.Breaker.Threshold > 0 {
			cfg.BreakerThreshold = f.Breaker.Threshold
		}
		if f.Breaker.CooldownSeconds > 0 {
			cfg.BreakerCooldown = time.Duration(f.Breaker.CooldownSeconds) * time.Second
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.AuthServiceURL = envOrDefault("AUTH_SERVICE_URL", cfg.AuthServiceURL)
	cfg.UserServiceURL = envOrDefault("USER_SERVICE_URL", cfg.UserServiceURL)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BreakerThreshold = envInt("BREAKER_THRESHOLD", cfg.BreakerThreshold)
	cfg.BreakerCooldown = time.Duration(envInt("BREAKER_COOLDOWN_SECONDS", int(cfg.BreakerCooldown.Seconds()))) * time.Second
	cfg.RetryMaxAttempts = envInt("RETRY_MAX_ATTEMPTS", cfg.RetryMaxAttempts)
	cfg.DefaultPageSize = envInt("DEFAULT_PAGE_SIZE", cfg.DefaultPageSize)
	cfg.MaxPageSize = envInt("MAX_PAGE_SIZE", cfg.MaxPageSize)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
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
