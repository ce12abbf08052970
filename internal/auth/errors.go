package auth

import "errors"

// Error taxonomy for the session and identity core. Callers branch with
// errors.Is; wrapped detail stays available for the audit sink.
var (
	// ErrInvalidCredentials covers a bad username or password. Presented to
	// callers identically to ErrAccountInactive to prevent username
	// enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountInactive means the credentials were correct but the identity
	// is inactive and must not establish a session.
	ErrAccountInactive = errors.New("account inactive")

	// ErrSessionExpired means the server-side session record outlived its
	// inactivity timeout. Both session artifacts are destroyed.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionInvalid means the client token is absent, malformed, forged,
	// or points at a missing server-side record. Both session artifacts are
	// destroyed.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrIdentityNotFound means the referenced identity record does not exist.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrPermissionDenied means the access resolver denied the operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidationFailed means malformed input to a CRUD operation.
	ErrValidationFailed = errors.New("validation failed")

	// ErrStorage wraps I/O failures from the blob store collaborator.
	ErrStorage = errors.New("storage failure")

	// ErrConfiguration is fatal: the owner bootstrap itself failed (e.g. the
	// configured owner password could not be hashed or persisted).
	ErrConfiguration = errors.New("configuration failure")
)
