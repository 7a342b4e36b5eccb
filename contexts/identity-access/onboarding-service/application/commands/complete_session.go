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
)

type CompleteSessionCommand struct {
	SessionID string
	Verdict   string
	CallerID  string
}

type CompleteSessionResult struct {
	Ack   bool   `json:"ack"`
	State string `json:"state"`
}

type CompleteSessionUseCase struct {
	Accounts    ports.AccountRepository
	Sessions    ports.SessionRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u CompleteSessionUseCase) Execute(ctx context.Context, cmd CompleteSessionCommand) (CompleteSessionResult, error) {
	logger := application.ResolveLogger(u.Logger)
	sessionID := strings.TrimSpace(cmd.SessionID)
	if sessionID == "" {
		return CompleteSessionResult{}, domainerrors.ErrSessionNotFound
	}

	session, err := u.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return CompleteSessionResult{}, err
	}
	if session.CreatorUserID != strings.TrimSpace(cmd.CallerID) {
		return CompleteSessionResult{}, domainerrors.ErrSessionForbidden
	}
	verdict, ok := entities.ParseVerdict(cmd.Verdict)
	if !ok {
		return CompleteSessionResult{}, domainerrors.ErrInvalidVerdict
	}
	if !session.IsOpen() {
		return CompleteSessionResult{}, domainerrors.ErrSessionCompleted
	}

	account, err := u.Accounts.GetAccount(ctx, session.CreatorUserID)
	if err != nil {
		return CompleteSessionResult{}, err
	}
	event, err := services.VerdictEvent(verdict)
	if err != nil {
		return CompleteSessionResult{}, err
	}
	next, err := services.Transition(account, event)
	if err != nil {
		return CompleteSessionResult{}, domainerrors.ErrInvalidState
	}

	now := resolveNow(u.Clock)
	input, err := transition(ctx, u.IDGenerator, session.CreatorUserID, entities.AuditActionKYCCompleted, account, next, string(verdict), now)
	if err != nil {
		return CompleteSessionResult{}, err
	}
	input.CompleteSession = &ports.SessionCompletion{
		SessionID:   session.SessionID,
		Verdict:     verdict,
		CompletedAt: now,
	}
	input.Outbox, err = buildOutbox(ctx, u.IDGenerator, EventTypeSessionCompleted, session.CreatorUserID, now, stateChangedPayload{
		UserID:    session.CreatorUserID,
		FromState: string(account.OnboardingState),
		ToState:   string(next),
		ActorID:   session.CreatorUserID,
		Action:    entities.AuditActionKYCCompleted,
		SessionID: session.SessionID,
		Verdict:   string(verdict),
	})
	if err != nil {
		return CompleteSessionResult{}, err
	}

	updated, err := u.Accounts.ApplyTransition(ctx, input)
	if err != nil {
		if errors.Is(err, domainerrors.ErrStateConflict) {
			err = domainerrors.ErrInvalidState
		}
		logger.Warn("kyc session complete failed",
			"event", "onboarding_kyc_session_complete_failed",
			"module", "identity-access/onboarding-service",
			"layer", "application",
			"session_id", session.SessionID,
			"error", err.Error(),
		)
		return CompleteSessionResult{}, err
	}

	logger.Info("kyc session completed",
		"event", "onboarding_kyc_session_completed",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"session_id", session.SessionID,
		"creator_id", session.CreatorUserID,
		"verdict", string(verdict),
	)
	return CompleteSessionResult{Ack: true, State: string(updated.OnboardingState)}, nil
}
