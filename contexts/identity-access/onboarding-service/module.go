package onboarding

import (
	"log/slog"
	"time"

	"fanvault/contexts/identity-access/onboarding-service/adapters/email"
	httpadapter "fanvault/contexts/identity-access/onboarding-service/adapters/http"
	"fanvault/contexts/identity-access/onboarding-service/adapters/memory"
	"fanvault/contexts/identity-access/onboarding-service/adapters/security"
	"fanvault/contexts/identity-access/onboarding-service/application/commands"
	"fanvault/contexts/identity-access/onboarding-service/application/queries"
	"fanvault/contexts/identity-access/onboarding-service/application/workers"
	"fanvault/contexts/identity-access/onboarding-service/ports"
	"fanvault/internal/shared/idempotency"
)

// Module is the onboarding-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Relay   workers.OutboxRelay
	Store   *memory.Store
	Mailer  *email.LogSender
}

// Dependencies captures all runtime ports and config required by NewModule.
type Dependencies struct {
	Accounts        ports.AccountRepository
	Sessions        ports.SessionRepository
	Audit           ports.AuditRepository
	Outbox          ports.OutboxRepository
	Publisher       ports.EventPublisher
	Idempotency     idempotency.Store
	Hasher          ports.PasswordHasher
	Tokens          ports.TokenSource
	Email           ports.EmailSender
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	AdminEmails     []string
	ProviderURL     string
	OutboxTopic     string
	VerificationTTL time.Duration
	IdempotencyTTL  time.Duration
	Logger          *slog.Logger
}

// NewModule wires onboarding use cases and the transport handler using explicit ports.
func NewModule(deps Dependencies) Module {
	guard := idempotency.Guard{
		Store:  deps.Idempotency,
		Clock:  deps.Clock,
		TTL:    deps.IdempotencyTTL,
		Logger: deps.Logger,
	}

	handler := httpadapter.Handler{
		Register: commands.RegisterUseCase{
			Accounts:        deps.Accounts,
			Hasher:          deps.Hasher,
			Tokens:          deps.Tokens,
			Email:           deps.Email,
			Idempotency:     guard,
			Clock:           deps.Clock,
			IDGenerator:     deps.IDGenerator,
			AdminEmails:     deps.AdminEmails,
			VerificationTTL: deps.VerificationTTL,
			Logger:          deps.Logger,
		},
		VerifyEmail: commands.VerifyEmailUseCase{
			Accounts:    deps.Accounts,
			Idempotency: guard,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		Login: commands.LoginUseCase{
			Accounts: deps.Accounts,
			Hasher:   deps.Hasher,
			Logger:   deps.Logger,
		},
		CreateSession: commands.CreateSessionUseCase{
			Accounts:    deps.Accounts,
			Sessions:    deps.Sessions,
			Idempotency: guard,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			ProviderURL: deps.ProviderURL,
			Logger:      deps.Logger,
		},
		CompleteSession: commands.CompleteSessionUseCase{
			Accounts:    deps.Accounts,
			Sessions:    deps.Sessions,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		Overrides: commands.AdminOverrideUseCase{
			Accounts:    deps.Accounts,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		CreatorAction: commands.CreatorActionUseCase{
			Accounts:    deps.Accounts,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		Status:    queries.GetStatusUseCase{Accounts: deps.Accounts, Sessions: deps.Sessions},
		Accounts:  queries.GetAccountUseCase{Accounts: deps.Accounts},
		ListUsers: queries.ListUsersUseCase{Accounts: deps.Accounts},
		ListAudit: queries.ListAuditUseCase{Audit: deps.Audit},
		Logger:    deps.Logger,
	}

	return Module{
		Handler: handler,
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Topic:     deps.OutboxTopic,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
// Verification tokens are captured by the log mailer instead of being sent.
func NewInMemoryModule(logger *slog.Logger, publisher ports.EventPublisher, adminEmails []string) Module {
	store := memory.NewStore()
	mailer := email.NewLogSender(logger)
	module := NewModule(Dependencies{
		Accounts:        store,
		Sessions:        store,
		Audit:           store,
		Outbox:          store,
		Publisher:       publisher,
		Idempotency:     idempotency.NewMemoryStore(),
		Hasher:          security.NewBcryptHasher(security.MinCost),
		Tokens:          security.RandomTokenSource{},
		Email:           mailer,
		Clock:           store,
		IDGenerator:     store,
		AdminEmails:     adminEmails,
		VerificationTTL: 24 * time.Hour,
		IdempotencyTTL:  24 * time.Hour,
		Logger:          logger,
	})
	module.Store = store
	module.Mailer = mailer
	return module
}
