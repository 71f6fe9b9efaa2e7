package application

import (
	"time"

	"github.com/stoliar/commerce-mesh/internal/user/ports"
)

type Config struct {
	ServiceName     string
	DefaultPageSize int
	MaxPageSize     int
}

type Service struct {
	cfg      Config
	profiles ports.ProfileRepository
	cache    ports.ProfileCache
	nowFn    func() time.Time
}

type Dependencies struct {
	Config   Config
	Profiles ports.ProfileRepository
	Cache    ports.ProfileCache
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &Service{
		cfg:      cfg,
		profiles: deps.Profiles,
		cache:    deps.Cache,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}
