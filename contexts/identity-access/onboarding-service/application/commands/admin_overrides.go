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

const (
	ForceVerifyStatusVerified        = "verified"
	ForceVerifyStatusAlreadyVerified = "already_verified"
)

type ForceStateCommand struct {
	ActorID string
	Email   string
	State   string
	Reason  string
}

type ForceVerifyEmailCommand struct {
	ActorID string
	Email   string
	Reason  string
}

type ForceRoleCommand struct {
	ActorID string
	Email   string
	Role    string
	Reason  string
}

type OverrideResult struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	State  string `json:"state"`
	Status string `json:"status,omitempty"`
}

// AdminOverrideUseCase applies operator overrides. Callers must already hold
// the admin capability.
type AdminOverrideUseCase struct {
	Accounts    ports.AccountRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u AdminOverrideUseCase) ForceState(ctx context.Context, cmd ForceStateCommand) (OverrideResult, error) {
	return u.forceState(ctx, cmd, entities.AuditActionForceState)
}

func (u AdminOverrideUseCase) forceState(ctx context.Context, cmd ForceStateCommand, action string) (OverrideResult, error) {
	logger := application.ResolveLogger(u.Logger)
	target, ok := entities.ParseOnboardingState(cmd.State)
	if !ok {
		return OverrideResult{}, domainerrors.ErrInvalidTargetState
	}
	account, err := u.accountByEmail(ctx, cmd.Email)
	if err != nil {
		return OverrideResult{}, err
	}
	next, voidSession, err := services.ForceState(account, target)
	if err != nil {
		return OverrideResult{}, err
	}

	now := resolveNow(u.Clock)
	input, err := transition(ctx, u.IDGenerator, cmd.ActorID, action, account, next, cmd.Reason, now)
	if err != nil {
		return OverrideResult{}, err
	}
	if voidSession {
		input.CloseOpenSession = entities.VerdictVoided
	}
	updated, err := u.Accounts.ApplyTransition(ctx, input)
	if err != nil {
		return OverrideResult{}, err
	}

	logger.Info("onboarding state forced",
		"event", "onboarding_admin_force_state",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"actor_id", cmd.ActorID,
		"user_id", updated.UserID,
		"from_state", string(account.OnboardingState),
		"to_state", string(updated.OnboardingState),
		"voided_session", voidSession,
		"audit_action", action,
	)
	return overrideResult(updated, ""), nil
}

func (u AdminOverrideUseCase) ForceVerifyEmail(ctx context.Context, cmd ForceVerifyEmailCommand) (OverrideResult, error) {
	logger := application.ResolveLogger(u.Logger)
	account, err := u.accountByEmail(ctx, cmd.Email)
	if err != nil {
		return OverrideResult{}, err
	}
	switch account.OnboardingState {
	case entities.StateCreated:
	case entities.StateSuspended:
		return OverrideResult{}, domainerrors.ErrInvalidState
	case entities.StateEmailVerified, entities.StateKYCPending, entities.StateKYCApproved, entities.StateKYCRejected:
		return overrideResult(account, ForceVerifyStatusAlreadyVerified), nil
	default:
		return OverrideResult{}, domainerrors.ErrInvalidTargetState
	}

	next, err := services.Transition(account, services.EventVerifyEmail)
	if err != nil {
		return OverrideResult{}, err
	}
	now := resolveNow(u.Clock)
	input, err := transition(ctx, u.IDGenerator, cmd.ActorID, entities.AuditActionForceVerifyEmail, account, next, cmd.Reason, now)
	if err != nil {
		return OverrideResult{}, err
	}
	verifiedAt := now
	input.Next.EmailVerifiedAt = &verifiedAt
	updated, err := u.Accounts.ApplyTransition(ctx, input)
	if err != nil {
		return OverrideResult{}, err
	}

	logger.Info("email verification forced",
		"event", "onboarding_admin_force_verify_email",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"actor_id", cmd.ActorID,
		"user_id", updated.UserID,
	)
	return overrideResult(updated, ForceVerifyStatusVerified), nil
}

func (u AdminOverrideUseCase) ForceRole(ctx context.Context, cmd ForceRoleCommand) (OverrideResult, error) {
	logger := application.ResolveLogger(u.Logger)
	role, ok := entities.ParseRole(cmd.Role)
	if !ok {
		return OverrideResult{}, domainerrors.ErrInvalidRole
	}
	account, err := u.accountByEmail(ctx, cmd.Email)
	if err != nil {
		return OverrideResult{}, err
	}

	now := resolveNow(u.Clock)
	audit, err := buildAudit(ctx, u.IDGenerator, cmd.ActorID, entities.AuditActionForceRole, account, account.OnboardingState, roleReason(account.Role, role, cmd.Reason), now)
	if err != nil {
		return OverrideResult{}, err
	}
	event, err := buildOutbox(ctx, u.IDGenerator, EventTypeAccountUpdated, account.UserID, now, accountUpdatedPayload{
		UserID:  account.UserID,
		ActorID: cmd.ActorID,
		Action:  entities.AuditActionForceRole,
		Role:    string(role),
	})
	if err != nil {
		return OverrideResult{}, err
	}
	updated, err := u.Accounts.UpdateAccount(ctx, ports.AccountUpdateInput{
		UserID:    account.UserID,
		Role:      &role,
		UpdatedAt: now,
		Audit:     audit,
		Outbox:    event,
	})
	if err != nil {
		return OverrideResult{}, err
	}

	logger.Info("role forced",
		"event", "onboarding_admin_force_role",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"actor_id", cmd.ActorID,
		"user_id", updated.UserID,
		"from_role", string(account.Role),
		"to_role", string(updated.Role),
	)
	return overrideResult(updated, ""), nil
}

// accountByEmail resolves the override target. The deleted role stays
// addressable so an operator can restore it with force-role.
func (u AdminOverrideUseCase) accountByEmail(ctx context.Context, raw string) (entities.CreatorAccount, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return entities.CreatorAccount{}, domainerrors.ErrInvalidEmail
	}
	return u.Accounts.GetAccountByEmail(ctx, email)
}

func roleReason(from entities.Role, to entities.Role, reason string) string {
	change := string(from) + "->" + string(to)
	if strings.TrimSpace(reason) == "" {
		return change
	}
	return change + ": " + reason
}

func overrideResult(account entities.CreatorAccount, status string) OverrideResult {
	return OverrideResult{
		UserID: account.UserID,
		Email:  account.Email,
		Role:   string(account.Role),
		State:  string(account.OnboardingState),
		Status: status,
	}
}
