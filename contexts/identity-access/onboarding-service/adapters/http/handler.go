package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"fanvault/contexts/identity-access/onboarding-service/application/commands"
	"fanvault/contexts/identity-access/onboarding-service/application/queries"
	httptransport "fanvault/contexts/identity-access/onboarding-service/transport/http"
)

// Handler adapts onboarding use cases to transport DTOs.
type Handler struct {
	Register        commands.RegisterUseCase
	VerifyEmail     commands.VerifyEmailUseCase
	Login           commands.LoginUseCase
	CreateSession   commands.CreateSessionUseCase
	CompleteSession commands.CompleteSessionUseCase
	Overrides       commands.AdminOverrideUseCase
	CreatorAction   commands.CreatorActionUseCase
	Status          queries.GetStatusUseCase
	Accounts        queries.GetAccountUseCase
	ListUsers       queries.ListUsersUseCase
	ListAudit       queries.ListAuditUseCase
	Logger          *slog.Logger
}

// RegisterHandler returns replayed=true when the response came from the
// idempotency store.
func (h Handler) RegisterHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.RegisterRequest,
) (httptransport.RegisterResponse, bool, error) {
	result, err := h.Register.Execute(ctx, commands.RegisterCommand{
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
		Email:          req.Email,
		Password:       req.Password,
		Handle:         req.Handle,
		Role:           req.Role,
	})
	if err != nil {
		return httptransport.RegisterResponse{}, false, err
	}
	return httptransport.RegisterResponse{
		CreatorID:           result.CreatorID,
		Email:               result.Email,
		Handle:              result.Handle,
		Role:                result.Role,
		OnboardingState:     result.OnboardingState,
		EmailDeliveryStatus: result.EmailDeliveryStatus,
	}, result.Replayed, nil
}

func (h Handler) VerifyEmailHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.VerifyEmailRequest,
) (httptransport.VerifyEmailResponse, error) {
	result, err := h.VerifyEmail.Execute(ctx, commands.VerifyEmailCommand{
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
		Token:          req.Token,
	})
	if err != nil {
		return httptransport.VerifyEmailResponse{}, err
	}
	return httptransport.VerifyEmailResponse{UserID: result.UserID, State: result.State, Role: result.Role}, nil
}

func (h Handler) LoginHandler(ctx context.Context, req httptransport.LoginRequest) (httptransport.LoginResponse, error) {
	result, err := h.Login.Execute(ctx, commands.LoginCommand{Email: req.Email, Password: req.Password})
	if err != nil {
		return httptransport.LoginResponse{}, err
	}
	return httptransport.LoginResponse{UserID: result.UserID, Role: result.Role, State: result.State}, nil
}

func (h Handler) CreateSessionHandler(
	ctx context.Context,
	creatorID string,
	idempotencyKey string,
) (httptransport.CreateSessionResponse, error) {
	result, err := h.CreateSession.Execute(ctx, commands.CreateSessionCommand{
		CreatorUserID:  creatorID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.CreateSessionResponse{}, err
	}
	return httptransport.CreateSessionResponse{SessionID: result.SessionID, RedirectURL: result.RedirectURL}, nil
}

func (h Handler) SessionStatusHandler(ctx context.Context, creatorID string) (httptransport.SessionStatusResponse, error) {
	result, err := h.Status.Execute(ctx, creatorID)
	if err != nil {
		return httptransport.SessionStatusResponse{}, err
	}
	return httptransport.SessionStatusResponse{
		SessionStatus: result.SessionStatus,
		CreatorState:  result.CreatorState,
		SessionID:     result.SessionID,
		Verdict:       result.Verdict,
	}, nil
}

func (h Handler) CompleteSessionHandler(
	ctx context.Context,
	callerID string,
	req httptransport.CompleteSessionRequest,
) (httptransport.CompleteSessionResponse, error) {
	result, err := h.CompleteSession.Execute(ctx, commands.CompleteSessionCommand{
		SessionID: req.SessionID,
		Verdict:   req.Status,
		CallerID:  callerID,
	})
	if err != nil {
		return httptransport.CompleteSessionResponse{}, err
	}
	return httptransport.CompleteSessionResponse{Ack: result.Ack, State: result.State}, nil
}

func (h Handler) ForceStateHandler(
	ctx context.Context,
	actorID string,
	req httptransport.ForceStateRequest,
) (httptransport.OverrideResponse, error) {
	result, err := h.Overrides.ForceState(ctx, commands.ForceStateCommand{
		ActorID: actorID,
		Email:   req.Email,
		State:   req.State,
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return httptransport.OverrideResponse{}, err
	}
	return overrideResponse(result), nil
}

func (h Handler) ForceVerifyEmailHandler(
	ctx context.Context,
	actorID string,
	email string,
	req httptransport.ForceVerifyEmailRequest,
) (httptransport.OverrideResponse, error) {
	result, err := h.Overrides.ForceVerifyEmail(ctx, commands.ForceVerifyEmailCommand{
		ActorID: actorID,
		Email:   email,
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return httptransport.OverrideResponse{}, err
	}
	return overrideResponse(result), nil
}

func (h Handler) ForceRoleHandler(
	ctx context.Context,
	actorID string,
	req httptransport.ForceRoleRequest,
) (httptransport.OverrideResponse, error) {
	result, err := h.Overrides.ForceRole(ctx, commands.ForceRoleCommand{
		ActorID: actorID,
		Email:   req.Email,
		Role:    req.Role,
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return httptransport.OverrideResponse{}, err
	}
	return overrideResponse(result), nil
}

func (h Handler) CreatorActionHandler(
	ctx context.Context,
	actorID string,
	creatorID string,
	req httptransport.CreatorActionRequest,
) (httptransport.CreatorActionResponse, error) {
	result, err := h.CreatorAction.Execute(ctx, commands.CreatorActionCommand{
		ActorID:   actorID,
		CreatorID: creatorID,
		Action:    req.Action,
		Reason:    strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return httptransport.CreatorActionResponse{}, err
	}
	return httptransport.CreatorActionResponse{
		UserID:        result.UserID,
		Action:        result.Action,
		State:         result.State,
		VerifiedBadge: result.VerifiedBadge,
		Featured:      result.Featured,
		Discoverable:  result.Discoverable,
	}, nil
}

func (h Handler) ListUsersHandler(
	ctx context.Context,
	role string,
	state string,
	cursor string,
	limit int,
) (httptransport.ListUsersResponse, error) {
	result, err := h.ListUsers.Execute(ctx, queries.ListUsersQuery{Role: role, State: state, Cursor: cursor, Limit: limit})
	if err != nil {
		return httptransport.ListUsersResponse{}, err
	}
	resp := httptransport.ListUsersResponse{
		Items:      make([]httptransport.UserResponse, 0, len(result.Items)),
		NextCursor: result.NextCursor,
	}
	for _, account := range result.Items {
		resp.Items = append(resp.Items, httptransport.UserResponse{
			UserID:          account.UserID,
			Email:           account.Email,
			Handle:          account.Handle,
			Role:            string(account.Role),
			OnboardingState: string(account.OnboardingState),
			Discoverable:    account.Discoverable,
			VerifiedBadge:   account.VerifiedBadge,
			Featured:        account.Featured,
			CreatedAt:       account.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (h Handler) ListAuditHandler(
	ctx context.Context,
	targetUserID string,
	cursor string,
	limit int,
) (httptransport.ListAuditResponse, error) {
	result, err := h.ListAudit.Execute(ctx, queries.ListAuditQuery{TargetUserID: targetUserID, Cursor: cursor, Limit: limit})
	if err != nil {
		return httptransport.ListAuditResponse{}, err
	}
	resp := httptransport.ListAuditResponse{
		Items:      make([]httptransport.AuditEntryResponse, 0, len(result.Items)),
		NextCursor: result.NextCursor,
	}
	for _, entry := range result.Items {
		resp.Items = append(resp.Items, httptransport.AuditEntryResponse{
			AuditID:      entry.AuditID,
			ActorID:      entry.ActorID,
			Action:       entry.Action,
			TargetUserID: entry.TargetUserID,
			FromState:    string(entry.FromState),
			ToState:      string(entry.ToState),
			Reason:       entry.Reason,
			OccurredAt:   entry.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func overrideResponse(result commands.OverrideResult) httptransport.OverrideResponse {
	return httptransport.OverrideResponse{
		UserID:          result.UserID,
		Email:           result.Email,
		Role:            result.Role,
		OnboardingState: result.State,
		Status:          result.Status,
	}
}
