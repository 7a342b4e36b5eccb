package httpadapter

import (
	"context"
	"log/slog"

	"fanvault/contexts/identity-access/authorization-service/application/commands"
	"fanvault/contexts/identity-access/authorization-service/application/queries"
	"fanvault/contexts/identity-access/authorization-service/domain/entities"
	"fanvault/contexts/identity-access/authorization-service/domain/services"
	httptransport "fanvault/contexts/identity-access/authorization-service/transport/http"
)

// Handler maps HTTP-level requests to authorization commands and queries.
type Handler struct {
	IssueSession     commands.IssueSessionUseCase
	ResolvePrincipal queries.ResolvePrincipalUseCase
	Authorize        queries.AuthorizeUseCase
	Logger           *slog.Logger
}

func (h Handler) IssueSessionHandler(ctx context.Context, userID string, role string) (httptransport.SessionResponse, error) {
	issued, err := h.IssueSession.Execute(ctx, commands.IssueSessionCommand{UserID: userID, Role: role})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return httptransport.SessionResponse{
		Token:     issued.Token,
		CSRFToken: issued.CSRFToken,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// AuthenticateHandler resolves the caller without a capability check. Used
// by routes that render differently for anonymous viewers.
func (h Handler) AuthenticateHandler(
	ctx context.Context,
	token string,
	method entities.AuthMethod,
) (entities.Principal, error) {
	return h.ResolvePrincipal.Execute(ctx, queries.ResolvePrincipalQuery{Token: token, Method: method})
}

func (h Handler) AuthorizeHandler(ctx context.Context, query queries.AuthorizeQuery) (entities.Principal, error) {
	principal, _, err := h.Authorize.Execute(ctx, query)
	return principal, err
}

func (h Handler) PrincipalHandler(principal entities.Principal) httptransport.PrincipalResponse {
	capabilities := make([]string, 0, len(entities.Capabilities()))
	for _, capability := range entities.Capabilities() {
		if services.Allows(principal.Role, capability) {
			capabilities = append(capabilities, string(capability))
		}
	}
	return httptransport.PrincipalResponse{
		UserID:          principal.UserID,
		Role:            string(principal.Role),
		OnboardingState: principal.OnboardingState,
		Suspended:       principal.Suspended,
		Capabilities:    capabilities,
	}
}
