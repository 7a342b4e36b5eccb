package ports

import (
	"context"
	"time"

	"fanvault/contexts/identity-access/authorization-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SessionClaims is what the session token carries. Role is informational
// for clients; authorization always re-reads it from the directory.
type SessionClaims struct {
	UserID    string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenSigner signs and validates session tokens.
type TokenSigner interface {
	Sign(claims SessionClaims) (string, error)
	Parse(raw string) (SessionClaims, error)
}

// SecretSource produces random CSRF values.
type SecretSource interface {
	NewSecret() (string, error)
}

// PrincipalRecord is the directory's view of one account.
type PrincipalRecord struct {
	UserID          string
	Role            entities.Role
	OnboardingState string
	Suspended       bool
}

// PrincipalDirectory is the read boundary onto the account store.
// Lookups return ErrUserNotFound for unknown accounts.
type PrincipalDirectory interface {
	LookupPrincipal(ctx context.Context, userID string) (PrincipalRecord, error)
}
