package postgres

import (
	"gorm.io/gorm"

	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

type Repositories struct {
	Credentials ports.CredentialRepository
	Outbox      ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Credentials: &credentialRepository{db: db},
		Outbox:      &outboxRepository{db: db},
	}
}
