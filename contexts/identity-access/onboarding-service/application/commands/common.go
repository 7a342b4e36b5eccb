package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	"fanvault/contexts/identity-access/onboarding-service/ports"
	"fanvault/internal/shared/events"
)

const (
	sourceService = "onboarding-service"

	EventTypeAccountRegistered = "onboarding.account_registered"
	EventTypeStateChanged      = "onboarding.state_changed"
	EventTypeSessionCreated    = "onboarding.kyc_session_created"
	EventTypeSessionCompleted  = "onboarding.kyc_session_completed"
	EventTypeAccountUpdated    = "onboarding.account_updated"
)

func resolveNow(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}

// HashToken is the storage form of a verification token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type accountUpdatedPayload struct {
	UserID        string `json:"user_id"`
	ActorID       string `json:"actor_id"`
	Action        string `json:"action"`
	Role          string `json:"role,omitempty"`
	VerifiedBadge *bool  `json:"verified_badge,omitempty"`
	Featured      *bool  `json:"featured,omitempty"`
}

type stateChangedPayload struct {
	UserID    string `json:"user_id"`
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	ActorID   string `json:"actor_id"`
	Action    string `json:"action"`
	SessionID string `json:"session_id,omitempty"`
	Verdict   string `json:"verdict,omitempty"`
}

func buildOutbox(
	ctx context.Context,
	ids ports.IDGenerator,
	eventType string,
	userID string,
	occurredAt time.Time,
	payload any,
) (*ports.OutboxEvent, error) {
	outboxID, err := ids.NewID(ctx)
	if err != nil {
		return nil, err
	}
	envelope, err := events.NewEnvelope(outboxID, eventType, sourceService, "creator_account", userID, occurredAt, payload)
	if err != nil {
		return nil, err
	}
	return &ports.OutboxEvent{OutboxID: outboxID, Envelope: envelope}, nil
}

func buildAudit(
	ctx context.Context,
	ids ports.IDGenerator,
	actorID string,
	action string,
	account entities.CreatorAccount,
	to entities.OnboardingState,
	reason string,
	now time.Time,
) (entities.AuditEntry, error) {
	auditID, err := ids.NewID(ctx)
	if err != nil {
		return entities.AuditEntry{}, err
	}
	return entities.AuditEntry{
		AuditID:      auditID,
		ActorID:      actorID,
		Action:       action,
		TargetUserID: account.UserID,
		FromState:    account.OnboardingState,
		ToState:      to,
		Reason:       reason,
		OccurredAt:   now,
	}, nil
}

// transition bundles the audit and outbox rows shared by every lifecycle write.
func transition(
	ctx context.Context,
	ids ports.IDGenerator,
	actorID string,
	action string,
	account entities.CreatorAccount,
	next entities.OnboardingState,
	reason string,
	now time.Time,
) (ports.TransitionInput, error) {
	audit, err := buildAudit(ctx, ids, actorID, action, account, next, reason, now)
	if err != nil {
		return ports.TransitionInput{}, err
	}
	event, err := buildOutbox(ctx, ids, EventTypeStateChanged, account.UserID, now, stateChangedPayload{
		UserID:    account.UserID,
		FromState: string(account.OnboardingState),
		ToState:   string(next),
		ActorID:   actorID,
		Action:    action,
	})
	if err != nil {
		return ports.TransitionInput{}, err
	}
	return ports.TransitionInput{
		UserID:        account.UserID,
		ExpectedState: account.OnboardingState,
		Next:          account.WithState(next, now),
		Audit:         audit,
		Outbox:        event,
	}, nil
}
