package application

import (
	"time"

	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

type Config struct {
	ServiceName          string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration
}

type Service struct {
	cfg         Config
	credentials ports.CredentialRepository
	outbox      ports.OutboxRepository
	profiles    ports.ProfileClient
	lockouts    ports.LockoutStore
	hasher      ports.PasswordHasher
	tokenSigner ports.TokenSigner
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Credentials ports.CredentialRepository
	Outbox      ports.OutboxRepository
	Profiles    ports.ProfileClient
	Lockouts    ports.LockoutStore
	Hasher      ports.PasswordHasher
	TokenSigner ports.TokenSigner
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:         deps.Config,
		credentials: deps.Credentials,
		outbox:      deps.Outbox,
		profiles:    deps.Profiles,
		lockouts:    deps.Lockouts,
		hasher:      deps.Hasher,
		tokenSigner: deps.TokenSigner,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}
