package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "fanvault/contexts/identity-access/authorization-service/application"
	"fanvault/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/authorization-service/domain/errors"
	"fanvault/contexts/identity-access/authorization-service/ports"
)

type ResolvePrincipalQuery struct {
	Token  string
	Method entities.AuthMethod
}

// ResolvePrincipalUseCase turns a session token into a principal. The role
// in the token is ignored; the directory is the only source of truth.
type ResolvePrincipalUseCase struct {
	Signer    ports.TokenSigner
	Directory ports.PrincipalDirectory
	Logger    *slog.Logger
}

func (u ResolvePrincipalUseCase) Execute(ctx context.Context, query ResolvePrincipalQuery) (entities.Principal, error) {
	logger := application.ResolveLogger(u.Logger)
	raw := strings.TrimSpace(query.Token)
	if raw == "" {
		return entities.Principal{}, domainerrors.ErrUnauthenticated
	}

	claims, err := u.Signer.Parse(raw)
	if err != nil {
		logger.Debug("session token rejected",
			"event", "authz_session_token_rejected",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"error", err.Error(),
		)
		return entities.Principal{}, domainerrors.ErrUnauthenticated
	}

	record, err := u.Directory.LookupPrincipal(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			return entities.Principal{}, domainerrors.ErrUnauthenticated
		}
		logger.Error("principal lookup failed",
			"event", "authz_principal_lookup_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", claims.UserID,
			"error", err.Error(),
		)
		return entities.Principal{}, err
	}
	if record.Role == entities.RoleDeleted {
		return entities.Principal{}, domainerrors.ErrUnauthenticated
	}

	return entities.Principal{
		UserID:          record.UserID,
		Role:            record.Role,
		OnboardingState: record.OnboardingState,
		Suspended:       record.Suspended,
		Method:          query.Method,
	}, nil
}
