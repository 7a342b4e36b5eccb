package entitlement

import (
	"log/slog"
	"time"

	"fanvault/contexts/content-access/entitlement-service/adapters/billing"
	httpadapter "fanvault/contexts/content-access/entitlement-service/adapters/http"
	"fanvault/contexts/content-access/entitlement-service/adapters/media"
	"fanvault/contexts/content-access/entitlement-service/adapters/memory"
	application "fanvault/contexts/content-access/entitlement-service/application"
	"fanvault/contexts/content-access/entitlement-service/application/commands"
	"fanvault/contexts/content-access/entitlement-service/application/queries"
	"fanvault/contexts/content-access/entitlement-service/ports"
	"fanvault/internal/shared/idempotency"
)

// Module is the entitlement-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Dependencies captures all runtime ports and config required by NewModule.
type Dependencies struct {
	Posts          ports.PostRepository
	Entitlements   ports.EntitlementRepository
	Creators       ports.CreatorDirectory
	Billing        ports.Billing
	Media          ports.Media
	Idempotency    idempotency.Store
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	LookupTimeout  time.Duration
	IdempotencyTTL time.Duration
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// NewModule wires entitlement use cases and the transport handler using explicit ports.
func NewModule(deps Dependencies) Module {
	resolver := application.Entitlements{
		Repository:    deps.Entitlements,
		LookupTimeout: deps.LookupTimeout,
		Logger:        deps.Logger,
	}
	guard := idempotency.Guard{
		Store:  deps.Idempotency,
		Clock:  deps.Clock,
		TTL:    deps.IdempotencyTTL,
		Logger: deps.Logger,
	}

	handler := httpadapter.Handler{
		CreatePost: commands.CreatePostUseCase{
			Posts:       deps.Posts,
			Creators:    deps.Creators,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		UpdatePost: commands.UpdatePostUseCase{
			Posts:    deps.Posts,
			Creators: deps.Creators,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
		Follows: commands.FollowUseCase{
			Follows:  deps.Entitlements,
			Creators: deps.Creators,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
		CreateIntent: commands.CreateIntentUseCase{
			Posts:        deps.Posts,
			Creators:     deps.Creators,
			Entitlements: deps.Entitlements,
			Billing:      deps.Billing,
			Idempotency:  guard,
			Logger:       deps.Logger,
		},
		BillingIngest: commands.BillingIngestUseCase{
			Entitlements: deps.Entitlements,
			Posts:        deps.Posts,
			Clock:        deps.Clock,
			Logger:       deps.Logger,
		},
		RegisterUpload: commands.RegisterUploadUseCase{
			Media:    deps.Media,
			MaxBytes: deps.MaxUploadBytes,
			Logger:   deps.Logger,
		},
		GetPost: queries.GetPostUseCase{
			Posts:        deps.Posts,
			Creators:     deps.Creators,
			Entitlements: resolver,
			Logger:       deps.Logger,
		},
		CreatorPosts: queries.ListCreatorPostsUseCase{
			Posts:        deps.Posts,
			Creators:     deps.Creators,
			Entitlements: resolver,
			Logger:       deps.Logger,
		},
		Feed: queries.FeedUseCase{
			Posts:        deps.Posts,
			Follows:      deps.Entitlements,
			Creators:     deps.Creators,
			Entitlements: resolver,
			Logger:       deps.Logger,
		},
		Vault: queries.VaultUseCase{
			Posts:        deps.Posts,
			Entitlements: resolver,
		},
		PPVStatus: queries.PPVStatusUseCase{
			Posts:        deps.Posts,
			Creators:     deps.Creators,
			Entitlements: resolver,
		},
		Logger: deps.Logger,
	}
	return Module{Handler: handler}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
// A nil creators directory falls back to the store's own directory.
func NewInMemoryModule(logger *slog.Logger, creators ports.CreatorDirectory) Module {
	store := memory.NewStore()
	if creators == nil {
		creators = store
	}
	module := NewModule(Dependencies{
		Posts:          store,
		Entitlements:   store,
		Creators:       creators,
		Billing:        billing.LocalBilling{Logger: logger},
		Media:          media.LocalMedia{Clock: store},
		Idempotency:    idempotency.NewMemoryStore(),
		Clock:          store,
		IDGenerator:    store,
		LookupTimeout:  application.DefaultLookupTimeout,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
