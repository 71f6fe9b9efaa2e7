package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicateResource signals an email collision before or during insert.
	// The storage-layer unique violation is the authoritative source of this error;
	// the pre-insert existence check only short-circuits the common case.
	ErrDuplicateResource = errors.New("resource already exists")
	// ErrAuthorizationDenied is returned on role-escalation attempts.
	// Only an ADMIN caller may create another ADMIN credential.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrDependencyFailure covers remote profile-service failures: timeouts,
	// connection errors and non-2xx responses are all normalized into it.
	ErrDependencyFailure = errors.New("dependency failure")
	// ErrRollbackFailed means the compensating credential delete itself failed
	// after a remote failure. The credential row is orphaned and needs manual
	// reconciliation, so this must never be downgraded to ErrDependencyFailure.
	ErrRollbackFailed = errors.New("registration rollback failed")
	// ErrInvalidCredentials hides whether email or password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked signals temporary lockout after repeated failed attempts.
	ErrAccountLocked = errors.New("account locked")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidInput  = errors.New("invalid input")
)
