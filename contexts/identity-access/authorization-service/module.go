package authorization

import (
	"log/slog"
	"time"

	httpadapter "fanvault/contexts/identity-access/authorization-service/adapters/http"
	"fanvault/contexts/identity-access/authorization-service/application/commands"
	"fanvault/contexts/identity-access/authorization-service/application/queries"
	"fanvault/contexts/identity-access/authorization-service/ports"
)

// Module is the authorization-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
}

// Dependencies captures all runtime ports and config required by NewModule.
type Dependencies struct {
	Directory  ports.PrincipalDirectory
	Signer     ports.TokenSigner
	Secrets    ports.SecretSource
	Clock      ports.Clock
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// NewModule wires the session and guard use cases using explicit ports.
func NewModule(deps Dependencies) Module {
	resolve := queries.ResolvePrincipalUseCase{
		Signer:    deps.Signer,
		Directory: deps.Directory,
		Logger:    deps.Logger,
	}
	handler := httpadapter.Handler{
		IssueSession: commands.IssueSessionUseCase{
			Signer:  deps.Signer,
			Secrets: deps.Secrets,
			Clock:   deps.Clock,
			TTL:     deps.SessionTTL,
			Logger:  deps.Logger,
		},
		ResolvePrincipal: resolve,
		Authorize: queries.AuthorizeUseCase{
			Resolve: resolve,
			Clock:   deps.Clock,
			Logger:  deps.Logger,
		},
		Logger: deps.Logger,
	}
	return Module{Handler: handler}
}
