package domain

import "errors"

// Authorization rejections. Every terminal rejection of the gate maps to
// exactly one of these.
var (
	ErrMissingCredential  = errors.New("missing credential")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrInsufficientRole   = errors.New("insufficient role")
)

// Provider errors. Transient provider failures are retryable by the caller
// and must never be reported as an invalid credential.
var (
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrRefreshFailed       = errors.New("token refresh failed")
)

// Token errors.
var (
	ErrTokenGeneration = errors.New("token generation failed")
	ErrSecretMissing   = errors.New("signing secret not configured")
)

// Directory errors.
var (
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrTokenRecordAbsent = errors.New("no oauth token record for account")
)
