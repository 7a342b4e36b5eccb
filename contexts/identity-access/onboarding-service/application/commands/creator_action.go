package commands

import (
	"context"
	"log/slog"
	"strings"

	application "fanvault/contexts/identity-access/onboarding-service/application"
	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/domain/services"
	"fanvault/contexts/identity-access/onboarding-service/ports"
)

// CreatorAction is a moderation verb on /admin/creators/{id}/action.
type CreatorAction string

const (
	CreatorActionApprove   CreatorAction = "approve"
	CreatorActionReject    CreatorAction = "reject"
	CreatorActionFeature   CreatorAction = "feature"
	CreatorActionUnfeature CreatorAction = "unfeature"
	CreatorActionVerify    CreatorAction = "verify"
	CreatorActionUnverify  CreatorAction = "unverify"
	CreatorActionSuspend   CreatorAction = "suspend"
	CreatorActionActivate  CreatorAction = "activate"
)

func ParseCreatorAction(raw string) (CreatorAction, bool) {
	action := CreatorAction(strings.ToLower(strings.TrimSpace(raw)))
	switch action {
	case CreatorActionApprove, CreatorActionReject, CreatorActionFeature, CreatorActionUnfeature,
		CreatorActionVerify, CreatorActionUnverify, CreatorActionSuspend, CreatorActionActivate:
		return action, true
	default:
		return "", false
	}
}

type CreatorActionCommand struct {
	ActorID   string
	CreatorID string
	Action    string
	Reason    string
}

type CreatorActionResult struct {
	UserID        string `json:"user_id"`
	Action        string `json:"action"`
	State         string `json:"state"`
	VerifiedBadge bool   `json:"verified_badge"`
	Featured      bool   `json:"featured"`
	Discoverable  bool   `json:"discoverable"`
}

type CreatorActionUseCase struct {
	Accounts    ports.AccountRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u CreatorActionUseCase) Execute(ctx context.Context, cmd CreatorActionCommand) (CreatorActionResult, error) {
	logger := application.ResolveLogger(u.Logger)
	action, ok := ParseCreatorAction(cmd.Action)
	if !ok {
		return CreatorActionResult{}, domainerrors.ErrUnknownAction
	}
	account, err := u.Accounts.GetAccount(ctx, strings.TrimSpace(cmd.CreatorID))
	if err != nil {
		return CreatorActionResult{}, err
	}
	if account.IsDeleted() {
		return CreatorActionResult{}, domainerrors.ErrAccountNotFound
	}

	auditAction := entities.AuditActionCreatorPrefix + string(action)
	now := resolveNow(u.Clock)

	var updated entities.CreatorAccount
	switch action {
	case CreatorActionApprove, CreatorActionReject:
		target, verdict := entities.StateKYCApproved, entities.VerdictApproved
		if action == CreatorActionReject {
			target, verdict = entities.StateKYCRejected, entities.VerdictRejected
		}
		input, err := transition(ctx, u.IDGenerator, cmd.ActorID, auditAction, account, target, cmd.Reason, now)
		if err != nil {
			return CreatorActionResult{}, err
		}
		input.CloseOpenSession = verdict
		updated, err = u.Accounts.ApplyTransition(ctx, input)
		if err != nil {
			return CreatorActionResult{}, err
		}
	case CreatorActionSuspend, CreatorActionActivate:
		event := services.EventSuspend
		if action == CreatorActionActivate {
			event = services.EventActivate
		}
		next, err := services.Transition(account, event)
		if err != nil {
			return CreatorActionResult{}, err
		}
		input, err := transition(ctx, u.IDGenerator, cmd.ActorID, auditAction, account, next, cmd.Reason, now)
		if err != nil {
			return CreatorActionResult{}, err
		}
		updated, err = u.Accounts.ApplyTransition(ctx, input)
		if err != nil {
			return CreatorActionResult{}, err
		}
	case CreatorActionFeature, CreatorActionUnfeature, CreatorActionVerify, CreatorActionUnverify:
		on := action == CreatorActionFeature || action == CreatorActionVerify
		audit, err := buildAudit(ctx, u.IDGenerator, cmd.ActorID, auditAction, account, account.OnboardingState, cmd.Reason, now)
		if err != nil {
			return CreatorActionResult{}, err
		}
		update := ports.AccountUpdateInput{UserID: account.UserID, UpdatedAt: now, Audit: audit}
		payload := accountUpdatedPayload{UserID: account.UserID, ActorID: cmd.ActorID, Action: auditAction}
		if action == CreatorActionFeature || action == CreatorActionUnfeature {
			update.Featured = &on
			payload.Featured = &on
		} else {
			update.VerifiedBadge = &on
			payload.VerifiedBadge = &on
		}
		update.Outbox, err = buildOutbox(ctx, u.IDGenerator, EventTypeAccountUpdated, account.UserID, now, payload)
		if err != nil {
			return CreatorActionResult{}, err
		}
		updated, err = u.Accounts.UpdateAccount(ctx, update)
		if err != nil {
			return CreatorActionResult{}, err
		}
	}

	logger.Info("creator action applied",
		"event", "onboarding_admin_creator_action",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"actor_id", cmd.ActorID,
		"user_id", updated.UserID,
		"action", string(action),
		"state", string(updated.OnboardingState),
	)
	return CreatorActionResult{
		UserID:        updated.UserID,
		Action:        string(action),
		State:         string(updated.OnboardingState),
		VerifiedBadge: updated.VerifiedBadge,
		Featured:      updated.Featured,
		Discoverable:  updated.Discoverable,
	}, nil
}
