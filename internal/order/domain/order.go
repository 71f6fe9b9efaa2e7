package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusPaid      OrderStatus = "PAID"
	StatusCancelled OrderStatus = "CANCELLED"
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusCreated:
		return StatusCreated, nil
	case StatusPaid:
		return StatusPaid, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, raw)
	}
}

// Order is a purchase placed by a user. AmountCents avoids floating point in
// money arithmetic.
type Order struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Description string
	AmountCents int64
	Currency    string
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const maxDescriptionLength = 500

// ValidateOrder checks the user-supplied order fields.
func ValidateOrder(description string, amountCents int64, currency string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if len(description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLength)
	}
	if amountCents <= 0 {
		return fmt.Errorf("%w: amount_cents must be positive", ErrInvalidInput)
	}
	if len(currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidInput)
	}
	return nil
}

// PlaceholderUserEmail is the sentinel address served when user lookups are
// degraded.
const PlaceholderUserEmail = "service@unavailable.com"

// UserSummary is the slice of user data orders are enriched with.
type UserSummary struct {
	ID      uuid.UUID
	Email   string
	Name    string
	Surname string
	Active  bool
}

// PlaceholderUser is the inactive stand-in returned when the user service
// cannot be reached.
func PlaceholderUser(id uuid.UUID) UserSummary {
	return UserSummary{
		ID:     id,
		Email:  PlaceholderUserEmail,
		Active: false,
	}
}
