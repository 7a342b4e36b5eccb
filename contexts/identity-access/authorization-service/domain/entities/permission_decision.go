package entities

import "time"

// AuthMethod records how a request carried its session token.
type AuthMethod string

const (
	AuthMethodCookie AuthMethod = "cookie"
	AuthMethodBearer AuthMethod = "bearer"
)

// Principal is the authenticated caller with its role re-read from the
// account store.
type Principal struct {
	UserID          string     `json:"user_id"`
	Role            Role       `json:"role"`
	OnboardingState string     `json:"onboarding_state"`
	Suspended       bool       `json:"suspended"`
	Method          AuthMethod `json:"-"`
}

// PermissionDecision is returned by capability checks.
type PermissionDecision struct {
	UserID     string     `json:"user_id"`
	Capability Capability `json:"capability"`
	Allowed    bool       `json:"allowed"`
	Reason     string     `json:"reason"`
	CheckedAt  time.Time  `json:"checked_at"`
}
