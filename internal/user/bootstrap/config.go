package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the user service.
type Config struct {
	ServiceName string
	HTTPPort    int

	DatabaseURL string
	RedisURL    string

	AuthServiceURL     string
	AuthServiceTimeout time.Duration

	TrustedServices []string

	ProfileCacheTTL time.Duration
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
		PostgresURL    string   `yaml:"postgres_url"`
		RedisURL       string   `yaml:"redis_url"`
		AuthServiceURL string   `yaml:"auth_service_url"`
		Trusted        []string `yaml:"trusted_services"`
	} `yaml:"dependencies"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceName:        "user-service",
		HTTPPort:           8082,
		AuthServiceURL:     "http://auth-service:8081",
		AuthServiceTimeout: 3 * time.Second,
		TrustedServices:    []string{"auth-service"},
		ProfileCacheTTL:    5 * time.Minute,
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
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.AuthServiceURL != "" {
			cfg.AuthServiceURL = f.Dependencies.AuthServiceURL
		}
		if len(f.Dependencies.Trusted) > 0 {
			cfg.TrustedServices = f.Dependencies.Trusted
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.AuthServiceURL = envOrDefault("AUTH_SERVICE_URL", cfg.AuthServiceURL)
	cfg.TrustedServices = envCSV("TRUSTED_SERVICES", cfg.TrustedServices)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.DefaultPageSize = envInt("DEFAULT_PAGE_SIZE", cfg.DefaultPageSize)
	cfg.MaxPageSize = envInt("MAX_PAGE_SIZE", cfg.MaxPageSize)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.AuthServiceTimeout = time.Duration(envInt("AUTH_SERVICE_TIMEOUT_SECONDS", int(cfg.AuthServiceTimeout.Seconds()))) * time.Second
	cfg.ProfileCacheTTL = time.Duration(envInt("PROFILE_CACHE_TTL_SECONDS", int(cfg.ProfileCacheTTL.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
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

func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
