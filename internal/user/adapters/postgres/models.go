package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/user/domain"
)

type profileModel struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey"`
	Email     string    `gorm:"column:email"`
	Name      string    `gorm:"column:name"`
	Surname   string    `gorm:"column:surname"`
	BirthDate time.Time `gorm:"column:birth_date"`
	Active    bool      `gorm:"column:active"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (profileModel) TableName() string { return "user_profiles" }

func toProfileModel(p domain.Profile) profileModel {
	return profileModel{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Surname:   p.Surname,
		BirthDate: p.BirthDate,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toDomainProfile(m profileModel) domain.Profile {
	return domain.Profile{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		Surname:   m.Surname,
		BirthDate: m.BirthDate.UTC(),
		Active:    m.Active,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}
