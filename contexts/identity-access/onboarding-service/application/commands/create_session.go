package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	application "fanvault/contexts/identity-access/onboarding-service/application"
	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/domain/services"
	"fanvault/contexts/identity-access/onboarding-service/ports"
	"fanvault/internal/shared/idempotency"
)

type CreateSessionCommand struct {
	CreatorUserID  string
	IdempotencyKey string
}

type CreateSessionResult struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
	Replayed    bool   `json:"-"`
}

// CreateSessionUseCase opens an identity verification session and moves the
// creator to KYC_PENDING in the same write.
type CreateSessionUseCase struct {
	Accounts    ports.AccountRepository
	Sessions    ports.SessionRepository
	Idempotency idempotency.Guard
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	ProviderURL string
	Logger      *slog.Logger
}

func (u CreateSessionUseCase) Execute(ctx context.Context, cmd CreateSessionCommand) (CreateSessionResult, error) {
	logger := application.ResolveLogger(u.Logger)
	creatorID := strings.TrimSpace(cmd.CreatorUserID)
	key := strings.TrimSpace(cmd.IdempotencyKey)
	if creatorID == "" {
		return CreateSessionResult{}, domainerrors.ErrInvalidRequest
	}
	if key == "" {
		return CreateSessionResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	logger.Info("kyc session create started",
		"event", "onboarding_kyc_session_create_started",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"creator_id", creatorID,
	)

	result, replayed, err := idempotency.RunJSON(ctx, u.Idempotency, idempotency.Request{
		Operation:   "kyc.create_session",
		Scope:       creatorID,
		Key:         key,
		RequestHash: creatorID,
	}, func(ctx context.Context) (CreateSessionResult, error) {
		return u.create(ctx, creatorID, key)
	})
	if err != nil {
		logger.Warn("kyc session create failed",
			"event", "onboarding_kyc_session_create_failed",
			"module", "identity-access/onboarding-service",
			"layer", "application",
			"creator_id", creatorID,
			"error", err.Error(),
		)
		return CreateSessionResult{}, err
	}
	result.Replayed = replayed

	logger.Info("kyc session create completed",
		"event", "onboarding_kyc_session_create_completed",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"creator_id", creatorID,
		"session_id", result.SessionID,
		"replayed", replayed,
	)
	return result, nil
}

func (u CreateSessionUseCase) create(ctx context.Context, creatorID string, key string) (CreateSessionResult, error) {
	// The guard record expires; the session row keyed by (creator, key) does not.
	if existing, found, err := u.Sessions.FindSessionByKey(ctx, creatorID, key); err != nil {
		return CreateSessionResult{}, err
	} else if found {
		return sessionResult(existing), nil
	}

	account, err := u.Accounts.GetAccount(ctx, creatorID)
	if err != nil {
		return CreateSessionResult{}, err
	}
	if account.IsDeleted() {
		return CreateSessionResult{}, domainerrors.ErrAccountNotFound
	}
	next, err := services.Transition(account, services.EventStartKYC)
	if err != nil {
		return CreateSessionResult{}, err
	}
	if _, found, err := u.Sessions.FindOpenSession(ctx, creatorID); err != nil {
		return CreateSessionResult{}, err
	} else if found {
		return CreateSessionResult{}, domainerrors.ErrOpenSessionExists
	}

	now := resolveNow(u.Clock)
	sessionID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return CreateSessionResult{}, err
	}
	session := entities.IdentitySession{
		SessionID:      sessionID,
		CreatorUserID:  creatorID,
		Status:         entities.SessionStatusCreated,
		IdempotencyKey: key,
		RedirectURL:    u.redirectURL(sessionID),
		CreatedAt:      now,
	}

	input, err := transition(ctx, u.IDGenerator, creatorID, entities.AuditActionKYCStarted, account, next, "", now)
	if err != nil {
		return CreateSessionResult{}, err
	}
	input.OpenSession = &session
	input.Outbox, err = buildOutbox(ctx, u.IDGenerator, EventTypeSessionCreated, creatorID, now, stateChangedPayload{
		UserID:    creatorID,
		FromState: string(account.OnboardingState),
		ToState:   string(next),
		ActorID:   creatorID,
		Action:    entities.AuditActionKYCStarted,
		SessionID: sessionID,
	})
	if err != nil {
		return CreateSessionResult{}, err
	}

	if _, err := u.Accounts.ApplyTransition(ctx, input); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateSessionKey) || errors.Is(err, domainerrors.ErrStateConflict) {
			// Another writer got there first. If it used the same key, converge on its session.
			if existing, found, findErr := u.Sessions.FindSessionByKey(ctx, creatorID, key); findErr == nil && found {
				return sessionResult(existing), nil
			}
			if errors.Is(err, domainerrors.ErrStateConflict) {
				if _, open, findErr := u.Sessions.FindOpenSession(ctx, creatorID); findErr == nil && open {
					return CreateSessionResult{}, domainerrors.ErrOpenSessionExists
				}
			}
		}
		return CreateSessionResult{}, err
	}
	return sessionResult(session), nil
}

func (u CreateSessionUseCase) redirectURL(sessionID string) string {
	base := strings.TrimSpace(u.ProviderURL)
	if base == "" {
		base = "https://kyc.example.invalid/start"
	}
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return base + separator + "session_id=" + url.QueryEscape(sessionID)
}

func sessionResult(session entities.IdentitySession) CreateSessionResult {
	return CreateSessionResult{SessionID: session.SessionID, RedirectURL: session.RedirectURL}
}
