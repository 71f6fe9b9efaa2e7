package domain

import "errors"

var (
	// ErrDuplicateResource signals a unique-constraint conflict on id or email.
	ErrDuplicateResource = errors.New("duplicate resource")

	// ErrNotFound covers missing or already soft-deleted profiles.
	ErrNotFound = errors.New("not found")

	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrDependencyFailure marks failures of the auth service token check.
	ErrDependencyFailure = errors.New("dependency failure")
)
