package application

import (
	"time"

	"github.com/google/uuid"
)

type CreateProfileRequest struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	BirthDate string `json:"birth_date"`
}

type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	Surname   *string `json:"surname"`
	BirthDate *string `json:"birth_date"`
}

type ProfileView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	BirthDate string    `json:"birth_date"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListProfilesRequest struct {
	Limit  int
	Offset int
}
