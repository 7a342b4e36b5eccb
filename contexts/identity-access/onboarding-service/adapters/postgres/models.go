package postgresadapter

import (
	"time"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
)

type accountModel struct {
	UserID          string     `gorm:"column:user_id;primaryKey"`
	Email           string     `gorm:"column:email;uniqueIndex:creator_accounts_email_key"`
	Handle          string     `gorm:"column:handle;uniqueIndex:creator_accounts_handle_key"`
	PasswordHash    string     `gorm:"column:password_hash"`
	Role            string     `gorm:"column:role;index"`
	OnboardingState string     `gorm:"column:onboarding_state;index"`
	SuspendedFrom   string     `gorm:"column:suspended_from"`
	Discoverable    bool       `gorm:"column:discoverable"`
	VerifiedBadge   bool       `gorm:"column:verified_badge"`
	Featured        bool       `gorm:"column:featured"`
	EmailVerifiedAt *time.Time `gorm:"column:email_verified_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (accountModel) TableName() string {
	return "creator_accounts"
}

func accountModelFromEntity(item entities.CreatorAccount) accountModel {
	return accountModel{
		UserID:          item.UserID,
		Email:           item.Email,
		Handle:          item.Handle,
		PasswordHash:    item.PasswordHash,
		Role:            string(item.Role),
		OnboardingState: string(item.OnboardingState),
		SuspendedFrom:   string(item.SuspendedFrom),
		Discoverable:    item.Discoverable,
		VerifiedBadge:   item.VerifiedBadge,
		Featured:        item.Featured,
		EmailVerifiedAt: normalizeOptionalTime(item.EmailVerifiedAt),
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}
}

func (m accountModel) toEntity() entities.CreatorAccount {
	return entities.CreatorAccount{
		UserID:          m.UserID,
		Email:           m.Email,
		Handle:          m.Handle,
		PasswordHash:    m.PasswordHash,
		Role:            entities.Role(m.Role),
		OnboardingState: entities.OnboardingState(m.OnboardingState),
		SuspendedFrom:   entities.OnboardingState(m.SuspendedFrom),
		Discoverable:    m.Discoverable,
		VerifiedBadge:   m.VerifiedBadge,
		Featured:        m.Featured,
		EmailVerifiedAt: normalizeOptionalTime(m.EmailVerifiedAt),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type verificationTokenModel struct {
	TokenHash  string     `gorm:"column:token_hash;primaryKey"`
	UserID     string     `gorm:"column:user_id;index"`
	ExpiresAt  time.Time  `gorm:"column:expires_at"`
	ConsumedAt *time.Time `gorm:"column:consumed_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (verificationTokenModel) TableName() string {
	return "email_verification_tokens"
}

func (m verificationTokenModel) toEntity() entities.VerificationToken {
	return entities.VerificationToken{
		TokenHash:  m.TokenHash,
		UserID:     m.UserID,
		ExpiresAt:  m.ExpiresAt.UTC(),
		ConsumedAt: normalizeOptionalTime(m.ConsumedAt),
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

type sessionModel struct {
	SessionID      string     `gorm:"column:session_id;primaryKey"`
	CreatorUserID  string     `gorm:"column:creator_user_id;uniqueIndex:identity_sessions_creator_key,priority:1"`
	IdempotencyKey string     `gorm:"column:idempotency_key;uniqueIndex:identity_sessions_creator_key,priority:2"`
	Status         string     `gorm:"column:status"`
	Verdict        string     `gorm:"column:verdict"`
	RedirectURL    string     `gorm:"column:redirect_url"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
}

func (sessionModel) TableName() string {
	return "identity_sessions"
}

func sessionModelFromEntity(item entities.IdentitySession) sessionModel {
	return sessionModel{
		SessionID:      item.SessionID,
		CreatorUserID:  item.CreatorUserID,
		IdempotencyKey: item.IdempotencyKey,
		Status:         string(item.Status),
		Verdict:        string(item.Verdict),
		RedirectURL:    item.RedirectURL,
		CreatedAt:      item.CreatedAt.UTC(),
		CompletedAt:    normalizeOptionalTime(item.CompletedAt),
	}
}

func (m sessionModel) toEntity() entities.IdentitySession {
	return entities.IdentitySession{
		SessionID:      m.SessionID,
		CreatorUserID:  m.CreatorUserID,
		IdempotencyKey: m.IdempotencyKey,
		Status:         entities.SessionStatus(m.Status),
		Verdict:        entities.Verdict(m.Verdict),
		RedirectURL:    m.RedirectURL,
		CreatedAt:      m.CreatedAt.UTC(),
		CompletedAt:    normalizeOptionalTime(m.CompletedAt),
	}
}

type auditModel struct {
	AuditID      string    `gorm:"column:audit_id;primaryKey"`
	ActorID      string    `gorm:"column:actor_id"`
	Action       string    `gorm:"column:action"`
	TargetUserID string    `gorm:"column:target_user_id;index"`
	FromState    string    `gorm:"column:from_state"`
	ToState      string    `gorm:"column:to_state"`
	Reason       string    `gorm:"column:reason"`
	OccurredAt   time.Time `gorm:"column:occurred_at;index"`
}

func (auditModel) TableName() string {
	return "onboarding_audit_log"
}

func auditModelFromEntity(item entities.AuditEntry) auditModel {
	return auditModel{
		AuditID:      item.AuditID,
		ActorID:      item.ActorID,
		Action:       item.Action,
		TargetUserID: item.TargetUserID,
		FromState:    string(item.FromState),
		ToState:      string(item.ToState),
		Reason:       item.Reason,
		OccurredAt:   item.OccurredAt.UTC(),
	}
}

func (m auditModel) toEntity() entities.AuditEntry {
	return entities.AuditEntry{
		AuditID:      m.AuditID,
		ActorID:      m.ActorID,
		Action:       m.Action,
		TargetUserID: m.TargetUserID,
		FromState:    entities.OnboardingState(m.FromState),
		ToState:      entities.OnboardingState(m.ToState),
		Reason:       m.Reason,
		OccurredAt:   m.OccurredAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "onboarding_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}
