package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	entitlement "fanvault/contexts/content-access/entitlement-service"
	"fanvault/contexts/content-access/entitlement-service/adapters/billing"
	"fanvault/contexts/content-access/entitlement-service/adapters/media"
	entitlementpostgres "fanvault/contexts/content-access/entitlement-service/adapters/postgres"
	authorization "fanvault/contexts/identity-access/authorization-service"
	"fanvault/contexts/identity-access/authorization-service/adapters/token"
	onboarding "fanvault/contexts/identity-access/onboarding-service"
	"fanvault/contexts/identity-access/onboarding-service/adapters/email"
	onboardingpostgres "fanvault/contexts/identity-access/onboarding-service/adapters/postgres"
	"fanvault/contexts/identity-access/onboarding-service/adapters/security"
	"fanvault/contexts/identity-access/onboarding-service/application/workers"
	onboardingports "fanvault/contexts/identity-access/onboarding-service/ports"
	"fanvault/internal/app/directory"
	"fanvault/internal/platform/cache"
	"fanvault/internal/platform/config"
	"fanvault/internal/platform/db"
	"fanvault/internal/platform/httpserver"
	"fanvault/internal/platform/messaging"
	"fanvault/internal/platform/ratelimit"
	"fanvault/internal/shared/idempotency"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const (
	tokenIssuer     = "fanvault"
	verificationTTL = 24 * time.Hour
	outboxBatchSize = 100
	shutdownTimeout = 10 * time.Second
)

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	redis    *redis.Client
	// relay is set only for in-memory runs, where the API process delivers
	// outbox events to the in-process bus itself.
	relay        *workers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	kafka        *messaging.Kafka
	outboxRelay  workers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

// BuildAPI wires the HTTP process. An empty POSTGRES_DSN selects in-memory
// adapters so the API can run standalone in development.
func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	logger = logger.With("service", cfg.ServiceName, "process", "api")
	app := &APIApp{pollInterval: cfg.OutboxPollInterval, logger: logger}

	signer, err := buildSigner(cfg)
	if err != nil {
		return nil, err
	}

	var (
		redisClient  *redis.Client
		healthChecks []httpserver.HealthCheck
	)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.redis = redisClient
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	var (
		onboardingModule  onboarding.Module
		entitlementModule entitlement.Module
		accounts          onboardingports.AccountRepository
	)
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		if cfg.IsProduction() {
			_ = app.Close()
			return nil, errors.New("POSTGRES_DSN is required in production")
		}
		logger.Warn("running with in-memory storage",
			"event", "bootstrap_in_memory_storage",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		bus := messaging.NewBus(logger)
		onboardingModule = onboarding.NewInMemoryModule(logger, bus, cfg.AdminEmails)
		accounts = onboardingModule.Store
		entitlementModule = entitlement.NewInMemoryModule(logger, directory.Creators{Accounts: accounts})
		relay := onboardingModule.Relay
		relay.Topic = cfg.KafkaTopic
		relay.BatchSize = outboxBatchSize
		app.relay = &relay
	} else {
		pg, err := db.Connect(ctx, cfg.PostgresDSN, db.Options{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.postgres = pg
		healthChecks = append(healthChecks, httpserver.HealthCheck{Name: "postgres", Check: pg.Ping})

		onboardingRepo := onboardingpostgres.NewRepository(pg.DB, logger)
		accounts = onboardingRepo
		entitlementRepo := entitlementpostgres.NewRepository(pg.DB, logger)
		guardStore, err := buildIdempotencyStore(ctx, pg, redisClient)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		for _, migrate := range []func(context.Context) error{onboardingRepo.Migrate, entitlementRepo.Migrate} {
			if err := migrate(ctx); err != nil {
				_ = app.Close()
				return nil, err
			}
		}

		onboardingModule = onboarding.NewModule(onboarding.Dependencies{
			Accounts:        onboardingRepo,
			Sessions:        onboardingRepo,
			Audit:           onboardingRepo,
			Outbox:          onboardingRepo,
			Idempotency:     guardStore,
			Hasher:          security.NewBcryptHasher(cfg.BcryptCost),
			Tokens:          security.RandomTokenSource{},
			Email:           email.NewLogSender(logger),
			Clock:           onboardingpostgres.SystemClock{},
			IDGenerator:     onboardingpostgres.UUIDGenerator{},
			AdminEmails:     cfg.AdminEmails,
			ProviderURL:     cfg.KYCProviderURL,
			OutboxTopic:     cfg.KafkaTopic,
			VerificationTTL: verificationTTL,
			IdempotencyTTL:  cfg.IdempotencyTTL,
			Logger:          logger,
		})
		entitlementModule = entitlement.NewModule(entitlement.Dependencies{
			Posts:          entitlementRepo,
			Entitlements:   entitlementRepo,
			Creators:       directory.Creators{Accounts: accounts},
			Billing:        billing.LocalBilling{Logger: logger},
			Media:          media.LocalMedia{Clock: entitlementpostgres.SystemClock{}},
			Idempotency:    guardStore,
			Clock:          entitlementpostgres.SystemClock{},
			IDGenerator:    entitlementpostgres.UUIDGenerator{},
			LookupTimeout:  cfg.EntitlementLookupTimeout,
			IdempotencyTTL: cfg.IdempotencyTTL,
			Logger:         logger,
		})
	}

	authorizationModule := authorization.NewModule(authorization.Dependencies{
		Directory:  directory.Principals{Accounts: accounts},
		Signer:     signer,
		Secrets:    token.RandomSecrets{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	})

	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	app.server = httpserver.New(httpserver.Options{
		Addr:                 normalizeAddr(cfg.HTTPPort),
		Onboarding:           onboardingModule,
		Authorization:        authorizationModule,
		Entitlement:          entitlementModule,
		Limiter:              limiter,
		CookieSecure:         cfg.CookieSecure,
		InternalBillingToken: cfg.InternalBillingToken,
		CORSOrigins:          cfg.CORSOrigins,
		HealthChecks:         healthChecks,
		Logger:               logger,
	})
	return app, nil
}

// BuildWorker wires the outbox relay process. It always needs Postgres and
// Kafka.
func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	logger = logger.With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN, db.Options{MaxOpenConns: 5})
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := onboardingpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		kafka:    kafka,
		outboxRelay: workers.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     onboardingpostgres.SystemClock{},
			Topic:     cfg.KafkaTopic,
			BatchSize: outboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

// Run serves HTTP until ctx is canceled, then drains in-flight requests.
func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	if a.relay != nil {
		relay := *a.relay
		group.Go(func() error {
			return pollOutbox(groupCtx, relay, a.pollInterval, a.logger)
		})
	}
	return group.Wait()
}

func (a *APIApp) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)
	return pollOutbox(ctx, w.outboxRelay, w.pollInterval, w.logger)
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.kafka != nil {
		errs = append(errs, w.kafka.Close())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

// pollOutbox drains the outbox on every tick. Relay failures are logged and
// retried on the next tick; only cancellation stops the loop.
func pollOutbox(ctx context.Context, relay workers.OutboxRelay, interval time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := relay.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("outbox relay pass failed",
				"event", "bootstrap_outbox_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func buildSigner(cfg config.Config) (*token.HMACSigner, error) {
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return token.NewEphemeralHMACSigner(tokenIssuer)
	}
	return token.NewHMACSigner(tokenIssuer, cfg.SessionSecret)
}

// buildIdempotencyStore prefers Redis when configured and falls back to the
// Postgres table.
func buildIdempotencyStore(ctx context.Context, pg *db.Postgres, client *redis.Client) (idempotency.Store, error) {
	if client != nil {
		return cache.NewIdempotencyStore(client), nil
	}
	store := db.NewIdempotencyStore(pg.DB)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
