package ports

import (
	"context"
	"time"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	"fanvault/internal/shared/events"
	"fanvault/internal/shared/outbox"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for accounts, sessions, audit and outbox rows.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// PasswordHasher keeps the application layer independent of the hashing library.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
}

// TokenSource produces opaque one-time verification tokens.
type TokenSource interface {
	NewToken() (string, error)
}

// EmailSender hands verification mail to the delivery collaborator.
type EmailSender interface {
	SendVerification(ctx context.Context, email string, token string) error
}

// OutboxEvent is written in the same transaction as the state change it describes.
type OutboxEvent struct {
	OutboxID string
	Envelope events.Envelope
}

type CreateAccountInput struct {
	Account entities.CreatorAccount
	Token   entities.VerificationToken
	Audit   entities.AuditEntry
	Outbox  *OutboxEvent
}

// SessionCompletion closes an open session. The repository applies it as a
// compare-and-swap from CREATED to COMPLETED.
type SessionCompletion struct {
	SessionID   string
	Verdict     entities.Verdict
	CompletedAt time.Time
}

// TransitionInput is one atomic lifecycle write. The account row is updated
// only while its stored state still equals ExpectedState; every other part is
// committed or rolled back together with it.
type TransitionInput struct {
	UserID           string
	ExpectedState    entities.OnboardingState
	Next             entities.CreatorAccount
	ConsumeTokenHash string
	OpenSession      *entities.IdentitySession
	CompleteSession  *SessionCompletion
	CloseOpenSession entities.Verdict // completes any open session with this verdict
	Audit            entities.AuditEntry
	Outbox           *OutboxEvent
}

// AccountUpdateInput changes attributes outside the lifecycle state.
type AccountUpdateInput struct {
	UserID        string
	Role          *entities.Role
	VerifiedBadge *bool
	Featured      *bool
	UpdatedAt     time.Time
	Audit         entities.AuditEntry
	Outbox        *OutboxEvent
}

type AccountFilter struct {
	Role   entities.Role
	State  entities.OnboardingState
	Cursor string
	Limit  int
}

type AuditFilter struct {
	TargetUserID string
	Cursor       string
	Limit        int
}

// AccountRepository owns creator accounts and verification tokens.
type AccountRepository interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) error
	GetAccount(ctx context.Context, userID string) (entities.CreatorAccount, error)
	GetAccountByEmail(ctx context.Context, email string) (entities.CreatorAccount, error)
	GetAccountByHandle(ctx context.Context, handle string) (entities.CreatorAccount, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	ListAccounts(ctx context.Context, filter AccountFilter) ([]entities.CreatorAccount, string, error)
	GetVerificationToken(ctx context.Context, tokenHash string) (entities.VerificationToken, error)
	ApplyTransition(ctx context.Context, input TransitionInput) (entities.CreatorAccount, error)
	UpdateAccount(ctx context.Context, input AccountUpdateInput) (entities.CreatorAccount, error)
}

// SessionRepository reads identity verification sessions.
type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (entities.IdentitySession, error)
	FindSessionByKey(ctx context.Context, creatorUserID string, idempotencyKey string) (entities.IdentitySession, bool, error)
	FindOpenSession(ctx context.Context, creatorUserID string) (entities.IdentitySession, bool, error)
	LatestSession(ctx context.Context, creatorUserID string) (entities.IdentitySession, bool, error)
}

type AuditRepository interface {
	ListAudit(ctx context.Context, filter AuditFilter) ([]entities.AuditEntry, string, error)
}

// OutboxMessage is the shared outbox row shape.
type OutboxMessage = outbox.Message

// OutboxRepository supports worker relay polling and acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventPublisher emits lifecycle events to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}
