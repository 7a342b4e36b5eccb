package errors

import "errors"

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidToken      = errors.New("invalid session token")
	ErrInvalidUserID     = errors.New("invalid user id")
	ErrInvalidCapability = errors.New("invalid capability")
	ErrUserNotFound      = errors.New("user not found")
	ErrForbidden         = errors.New("forbidden")
	ErrAccountSuspended  = errors.New("account suspended")
	ErrCSRFTokenInvalid  = errors.New("csrf token invalid")
)
