package entities

import "time"

const (
	AuditActionRegistered       = "account.registered"
	AuditActionEmailVerified    = "account.email_verified"
	AuditActionKYCStarted       = "kyc.session_created"
	AuditActionKYCCompleted     = "kyc.session_completed"
	AuditActionForceState       = "admin.force_state"
	AuditActionForceVerifyEmail = "admin.force_verify_email"
	AuditActionForceRole        = "admin.force_role"
	AuditActionCreatorPrefix    = "admin.creator."
	AuditActionTestBypass       = "test.force_state"
)

type AuditEntry struct {
	AuditID      string
	ActorID      string
	Action       string
	TargetUserID string
	FromState    OnboardingState
	ToState      OnboardingState
	Reason       string
	OccurredAt   time.Time
}
