package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrDependencyFailure marks user service failures, including an open
	// circuit. Read paths degrade to a placeholder user instead of failing.
	ErrDependencyFailure = errors.New("dependency failure")
)
