package application

import (
	"time"

	"github.com/google/uuid"
)

type CreateOrderRequest struct {
	UserID      string `json:"user_id"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UserView struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name,omitempty"`
	Surname string    `json:"surname,omitempty"`
	Active  bool      `json:"active"`
}

// OrderView is an order enriched with its owning user. Degraded is true when
// the user block is a placeholder because the user service was unavailable.
type OrderView struct {
	ID          uuid.UUID `json:"id"`
	User        UserView  `json:"user"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Degraded    bool      `json:"degraded,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListOrdersRequest struct {
	UserID uuid.UUID
	Limit  int
	Offset int
}
