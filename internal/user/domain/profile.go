package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Profile is the user-facing account record. Its ID is shared with the
// credential row in the auth service so both sides address the same user.
type Profile struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Surname   string
	BirthDate time.Time
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

const maxNameLength = 100

// NormalizeEmail lowercases and validates an address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return email, nil
}

// ValidateName checks a name or surname field.
func ValidateName(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidInput, field, maxNameLength)
	}
	return nil
}

// ValidateBirthDate rejects zero and future dates.
func ValidateBirthDate(birthDate, now time.Time) error {
	if birthDate.IsZero() {
		return fmt.Errorf("%w: birth_date is required", ErrInvalidInput)
	}
	if birthDate.After(now) {
		return fmt.Errorf("%w: birth_date must be in the past", ErrInvalidInput)
	}
	return nil
}
