package entities

import (
	"strings"
	"time"
)

// OnboardingState is the creator verification lifecycle position.
type OnboardingState string

const (
	StateCreated       OnboardingState = "CREATED"
	StateEmailVerified OnboardingState = "EMAIL_VERIFIED"
	StateKYCPending    OnboardingState = "KYC_PENDING"
	StateKYCApproved   OnboardingState = "KYC_APPROVED"
	StateKYCRejected   OnboardingState = "KYC_REJECTED"
	StateSuspended     OnboardingState = "SUSPENDED"
)

// AllStates lists every lifecycle state in declaration order.
var AllStates = []OnboardingState{
	StateCreated,
	StateEmailVerified,
	StateKYCPending,
	StateKYCApproved,
	StateKYCRejected,
	StateSuspended,
}

func ParseOnboardingState(raw string) (OnboardingState, bool) {
	state := OnboardingState(strings.ToUpper(strings.TrimSpace(raw)))
	switch state {
	case StateCreated, StateEmailVerified, StateKYCPending, StateKYCApproved, StateKYCRejected, StateSuspended:
		return state, true
	default:
		return "", false
	}
}

// Role is the account role as stored by onboarding.
type Role string

const (
	RoleFan     Role = "fan"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
	RoleDeleted Role = "deleted"
)

func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleFan, RoleCreator, RoleAdmin, RoleDeleted:
		return role, true
	default:
		return "", false
	}
}

// CreatorAccount is the registration record every user owns, fans included.
type CreatorAccount struct {
	UserID          string
	Email           string
	Handle          string
	PasswordHash    string
	Role            Role
	OnboardingState OnboardingState
	SuspendedFrom   OnboardingState
	Discoverable    bool
	VerifiedBadge   bool
	Featured        bool
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a CreatorAccount) IsDeleted() bool {
	return a.Role == RoleDeleted
}

func (a CreatorAccount) IsSuspended() bool {
	return a.OnboardingState == StateSuspended
}

// WithState returns a copy moved to next. It records the state held before a
// suspension and recomputes discoverability.
func (a CreatorAccount) WithState(next OnboardingState, now time.Time) CreatorAccount {
	switch {
	case next == StateSuspended && a.OnboardingState != StateSuspended:
		a.SuspendedFrom = a.OnboardingState
	case next != StateSuspended:
		a.SuspendedFrom = ""
	}
	a.OnboardingState = next
	a.Discoverable = next == StateKYCApproved
	a.UpdatedAt = now.UTC()
	return a
}

// VerificationToken is a one-time email verification credential. Only the
// sha256 of the token is stored.
type VerificationToken struct {
	TokenHash  string
	UserID     string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

func (t VerificationToken) Usable(now time.Time) bool {
	return t.ConsumedAt == nil && now.UTC().Before(t.ExpiresAt.UTC())
}
