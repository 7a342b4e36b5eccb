package queries

import (
	"context"
	"log/slog"
	"time"

	application "fanvault/contexts/identity-access/authorization-service/application"
	"fanvault/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/authorization-service/domain/errors"
	"fanvault/contexts/identity-access/authorization-service/domain/services"
	"fanvault/contexts/identity-access/authorization-service/ports"
)

// AuthorizeQuery is one guarded request. CSRF values are only consulted for
// cookie-authenticated mutations.
type AuthorizeQuery struct {
	Token      string
	Method     entities.AuthMethod
	Capability entities.Capability
	Mutating   bool
	CSRFCookie string
	CSRFHeader string
}

// AuthorizeUseCase runs the guard in a fixed order: authentication, CSRF,
// then the capability check.
type AuthorizeUseCase struct {
	Resolve ResolvePrincipalUseCase
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (u AuthorizeUseCase) Execute(ctx context.Context, query AuthorizeQuery) (entities.Principal, entities.PermissionDecision, error) {
	logger := application.ResolveLogger(u.Logger)
	principal, err := u.Resolve.Execute(ctx, ResolvePrincipalQuery{Token: query.Token, Method: query.Method})
	if err != nil {
		return entities.Principal{}, entities.PermissionDecision{}, err
	}

	if query.Mutating && principal.Method == entities.AuthMethodCookie &&
		!services.CSRFMatches(query.CSRFCookie, query.CSRFHeader) {
		logger.Warn("csrf check failed",
			"event", "authz_csrf_rejected",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", principal.UserID,
			"capability", string(query.Capability),
		)
		return entities.Principal{}, entities.PermissionDecision{}, domainerrors.ErrCSRFTokenInvalid
	}

	decision, err := CheckPermissionUseCase{Clock: u.Clock, Logger: u.Logger}.Execute(ctx, CheckPermissionQuery{
		Principal:  principal,
		Capability: query.Capability,
		Mutating:   query.Mutating,
	})
	if err != nil {
		return entities.Principal{}, decision, err
	}
	return principal, decision, nil
}

type CheckPermissionQuery struct {
	Principal  entities.Principal
	Capability entities.Capability
	Mutating   bool
}

// CheckPermissionUseCase evaluates a capability for an already resolved principal.
type CheckPermissionUseCase struct {
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u CheckPermissionUseCase) Execute(_ context.Context, query CheckPermissionQuery) (entities.PermissionDecision, error) {
	logger := application.ResolveLogger(u.Logger)
	reason, err := services.Evaluate(query.Principal, query.Capability, query.Mutating)
	decision := entities.PermissionDecision{
		UserID:     query.Principal.UserID,
		Capability: query.Capability,
		Allowed:    err == nil,
		Reason:     reason,
		CheckedAt:  u.now(),
	}
	if err != nil {
		logger.Warn("check permission denied",
			"event", "authz_check_denied",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", query.Principal.UserID,
			"role", string(query.Principal.Role),
			"capability", string(query.Capability),
			"reason", reason,
		)
		return decision, err
	}
	logger.Debug("check permission allowed",
		"event", "authz_check_allowed",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", query.Principal.UserID,
		"capability", string(query.Capability),
	)
	return decision, nil
}

func (u CheckPermissionUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
