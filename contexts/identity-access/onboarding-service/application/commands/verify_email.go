package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "fanvault/contexts/identity-access/onboarding-service/application"
	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/domain/services"
	"fanvault/contexts/identity-access/onboarding-service/ports"
	"fanvault/internal/shared/idempotency"
)

type VerifyEmailCommand struct {
	IdempotencyKey string
	Token          string
}

type VerifyEmailResult struct {
	UserID   string `json:"user_id"`
	State    string `json:"state"`
	Role     string `json:"role"`
	Replayed bool   `json:"-"`
}

type VerifyEmailUseCase struct {
	Accounts    ports.AccountRepository
	Idempotency idempotency.Guard
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u VerifyEmailUseCase) Execute(ctx context.Context, cmd VerifyEmailCommand) (VerifyEmailResult, error) {
	logger := application.ResolveLogger(u.Logger)
	token := strings.TrimSpace(cmd.Token)
	if token == "" {
		return VerifyEmailResult{}, domainerrors.ErrInvalidToken
	}
	tokenHash := HashToken(token)

	result, replayed, err := idempotency.RunJSON(ctx, u.Idempotency, idempotency.Request{
		Operation:   "auth.verify_email",
		Scope:       tokenHash,
		Key:         cmd.IdempotencyKey,
		RequestHash: tokenHash,
	}, func(ctx context.Context) (VerifyEmailResult, error) {
		return u.verify(ctx, tokenHash)
	})
	if err != nil {
		logger.Warn("email verification failed",
			"event", "onboarding_verify_email_failed",
			"module", "identity-access/onboarding-service",
			"layer", "application",
			"error", err.Error(),
		)
		return VerifyEmailResult{}, err
	}
	result.Replayed = replayed

	logger.Info("email verified",
		"event", "onboarding_email_verified",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"user_id", result.UserID,
		"state", result.State,
		"replayed", replayed,
	)
	return result, nil
}

func (u VerifyEmailUseCase) verify(ctx context.Context, tokenHash string) (VerifyEmailResult, error) {
	now := resolveNow(u.Clock)
	record, err := u.Accounts.GetVerificationToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidToken) {
			return VerifyEmailResult{}, domainerrors.ErrInvalidToken
		}
		return VerifyEmailResult{}, err
	}
	if !record.Usable(now) {
		return VerifyEmailResult{}, domainerrors.ErrInvalidToken
	}
	account, err := u.Accounts.GetAccount(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return VerifyEmailResult{}, domainerrors.ErrInvalidToken
		}
		return VerifyEmailResult{}, err
	}
	if account.IsDeleted() {
		return VerifyEmailResult{}, domainerrors.ErrInvalidToken
	}

	// Only CREATED moves forward. Any other state just burns the token so it
	// cannot be replayed later.
	next := account.OnboardingState
	if account.OnboardingState == entities.StateCreated {
		next, err = services.Transition(account, services.EventVerifyEmail)
		if err != nil {
			return VerifyEmailResult{}, err
		}
	}
	input, err := transition(ctx, u.IDGenerator, account.UserID, entities.AuditActionEmailVerified, account, next, "", now)
	if err != nil {
		return VerifyEmailResult{}, err
	}
	if next == account.OnboardingState {
		input.Next = account
		input.Outbox = nil
	}
	verifiedAt := now
	if input.Next.EmailVerifiedAt == nil {
		input.Next.EmailVerifiedAt = &verifiedAt
	}
	input.ConsumeTokenHash = tokenHash

	updated, err := u.Accounts.ApplyTransition(ctx, input)
	if err != nil {
		return VerifyEmailResult{}, err
	}
	return VerifyEmailResult{
		UserID: updated.UserID,
		State:  string(updated.OnboardingState),
		Role:   string(updated.Role),
	}, nil
}
