package entities

import (
	"strings"
	"time"
)

type SessionStatus string

const (
	SessionStatusCreated   SessionStatus = "CREATED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	// SessionStatusNone is reported by status reads when no session exists.
	SessionStatusNone SessionStatus = "NONE"
)

type Verdict string

const (
	VerdictApproved Verdict = "APPROVED"
	VerdictRejected Verdict = "REJECTED"
	// VerdictVoided closes a session that an admin override made obsolete.
	VerdictVoided Verdict = "VOIDED"
)

// ParseVerdict accepts only the verdicts a verification provider may report.
func ParseVerdict(raw string) (Verdict, bool) {
	verdict := Verdict(strings.ToUpper(strings.TrimSpace(raw)))
	switch verdict {
	case VerdictApproved, VerdictRejected:
		return verdict, true
	default:
		return "", false
	}
}

type IdentitySession struct {
	SessionID      string
	CreatorUserID  string
	Status         SessionStatus
	Verdict        Verdict
	IdempotencyKey string
	RedirectURL    string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

func (s IdentitySession) IsOpen() bool {
	return s.Status == SessionStatusCreated
}
