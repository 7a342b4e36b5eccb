package errors

import "errors"

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrValidation             = errors.New("validation failed")
	ErrPasswordTooShort       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail           = errors.New("email address is malformed")
	ErrInvalidHandle          = errors.New("handle must be 3-30 characters of a-z, 0-9 or _")
	ErrInvalidRole            = errors.New("unknown role")
	ErrInvalidTargetState     = errors.New("unknown onboarding state")
	ErrEmailTaken             = errors.New("email already registered")
	ErrHandleTaken            = errors.New("handle already taken")
	ErrAccountNotFound        = errors.New("account not found")
	ErrInvalidToken           = errors.New("verification token is invalid or expired")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountSuspended       = errors.New("account is suspended")
	ErrInvalidStateForKYC     = errors.New("onboarding state does not allow a verification session")
	ErrInvalidState           = errors.New("operation not allowed in current onboarding state")
	ErrOpenSessionExists      = errors.New("an open verification session already exists")
	ErrSessionNotFound        = errors.New("verification session not found")
	ErrSessionForbidden       = errors.New("verification session belongs to another account")
	ErrInvalidVerdict         = errors.New("verdict must be APPROVED or REJECTED")
	ErrSessionCompleted       = errors.New("verification session already completed")
	ErrDuplicateSessionKey    = errors.New("verification session already exists for idempotency key")
	ErrStateConflict          = errors.New("onboarding state changed concurrently")
	ErrUnknownAction          = errors.New("unknown creator action")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrDependencyUnavailable  = errors.New("dependency unavailable")
)
