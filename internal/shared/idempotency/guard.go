// Package idempotency deduplicates state-mutating requests by a client-supplied key.
//
// A record is addressed by (operation, scope, key). The first caller reserves the
// record in pending state, runs the operation and stores its encoded result.
// Later callers with the same address replay the stored result; callers that
// arrive while the record is still pending poll until it completes.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

var (
	ErrKeyConflict  = errors.New("idempotency key reused with a different request")
	ErrInProgress   = errors.New("request with this idempotency key is still in progress")
	ErrKeyTooLong   = errors.New("idempotency key exceeds 255 characters")
	ErrStoreMissing = errors.New("idempotency store is not configured")
)

const maxKeyLength = 255

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RecordID addresses one idempotency record.
type RecordID struct {
	Operation string
	Scope     string
	Key       string
}

func (id RecordID) String() string {
	return id.Operation + ":" + id.Scope + ":" + id.Key
}

// Record stores the request fingerprint and, once completed, the encoded result.
type Record struct {
	ID          RecordID
	RequestHash string
	Status      string
	StatusCode  int
	Payload     []byte
	ExpiresAt   time.Time
}

// Store persists records. Reserve must be atomic: exactly one concurrent caller
// may observe reserved=true for a given RecordID.
type Store interface {
	Reserve(ctx context.Context, record Record, now time.Time) (reserved bool, existing Record, err error)
	Get(ctx context.Context, id RecordID, now time.Time) (Record, bool, error)
	Complete(ctx context.Context, record Record) error
	Release(ctx context.Context, id RecordID) error
}

// Request is one guarded invocation.
type Request struct {
	Operation   string
	Scope       string
	Key         string
	RequestHash string
}

// Outcome is the encoded result of a guarded invocation.
type Outcome struct {
	Payload    []byte
	StatusCode int
	Replayed   bool
}

type Guard struct {
	Store        Store
	Clock        Clock
	TTL          time.Duration
	PendingTTL   time.Duration
	WaitTimeout  time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Run executes exec at most once per (operation, scope, key) within the TTL.
// An empty key disables deduplication and runs exec directly.
func (g Guard) Run(
	ctx context.Context,
	req Request,
	exec func(ctx context.Context) (Outcome, error),
) (Outcome, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return exec(ctx)
	}
	if len(key) > maxKeyLength {
		return Outcome{}, ErrKeyTooLong
	}
	if g.Store == nil {
		return Outcome{}, ErrStoreMissing
	}
	id := RecordID{Operation: req.Operation, Scope: req.Scope, Key: key}
	logger := resolveLogger(g.Logger)

	deadline := g.now().Add(g.waitTimeout())
	for {
		now := g.now()
		reserved, existing, err := g.Store.Reserve(ctx, Record{
			ID:          id,
			RequestHash: req.RequestHash,
			Status:      StatusPending,
			ExpiresAt:   now.Add(g.pendingTTL()),
		}, now)
		if err != nil {
			logger.Error("idempotency reserve failed",
				"event", "idempotency_reserve_failed",
				"module", "internal/shared/idempotency",
				"layer", "shared",
				"operation", id.Operation,
				"error", err.Error(),
			)
			return Outcome{}, err
		}
		if reserved {
			return g.execute(ctx, id, req.RequestHash, exec)
		}
		if existing.RequestHash != req.RequestHash {
			return Outcome{}, ErrKeyConflict
		}
		if existing.Status == StatusCompleted {
			logger.Info("idempotent request replayed",
				"event", "idempotency_replayed",
				"module", "internal/shared/idempotency",
				"layer", "shared",
				"operation", id.Operation,
				"scope", id.Scope,
			)
			return Outcome{Payload: existing.Payload, StatusCode: existing.StatusCode, Replayed: true}, nil
		}

		outcome, done, err := g.awaitCompletion(ctx, id, req.RequestHash, deadline)
		if err != nil || done {
			return outcome, err
		}
		// The pending record vanished without completing, so the first caller
		// failed and released it. Try to reserve again.
	}
}

func (g Guard) execute(
	ctx context.Context,
	id RecordID,
	requestHash string,
	exec func(ctx context.Context) (Outcome, error),
) (Outcome, error) {
	logger := resolveLogger(g.Logger)
	outcome, err := exec(ctx)
	if err != nil {
		if releaseErr := g.Store.Release(context.WithoutCancel(ctx), id); releaseErr != nil {
			logger.Warn("idempotency release failed",
				"event", "idempotency_release_failed",
				"module", "internal/shared/idempotency",
				"layer", "shared",
				"operation", id.Operation,
				"error", releaseErr.Error(),
			)
		}
		return Outcome{}, err
	}
	if err := g.Store.Complete(context.WithoutCancel(ctx), Record{
		ID:          id,
		RequestHash: requestHash,
		Status:      StatusCompleted,
		StatusCode:  outcome.StatusCode,
		Payload:     outcome.Payload,
		ExpiresAt:   g.now().Add(g.ttl()),
	}); err != nil {
		logger.Error("idempotency complete failed",
			"event", "idempotency_complete_failed",
			"module", "internal/shared/idempotency",
			"layer", "shared",
			"operation", id.Operation,
			"error", err.Error(),
		)
		return Outcome{}, err
	}
	logger.Debug("idempotent operation committed",
		"event", "idempotency_committed",
		"module", "internal/shared/idempotency",
		"layer", "shared",
		"operation", id.Operation,
		"scope", id.Scope,
	)
	return outcome, nil
}

// awaitCompletion polls a pending record. done=false means the record was
// released and the caller should try to reserve it again.
func (g Guard) awaitCompletion(
	ctx context.Context,
	id RecordID,
	requestHash string,
	deadline time.Time,
) (Outcome, bool, error) {
	ticker := time.NewTicker(g.pollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return Outcome{}, true, ctx.Err()
		case <-ticker.C:
		}
		record, found, err := g.Store.Get(ctx, id, g.now())
		if err != nil {
			return Outcome{}, true, err
		}
		if !found {
			return Outcome{}, false, nil
		}
		if record.RequestHash != requestHash {
			return Outcome{}, true, ErrKeyConflict
		}
		if record.Status == StatusCompleted {
			return Outcome{Payload: record.Payload, StatusCode: record.StatusCode, Replayed: true}, true, nil
		}
		if g.now().After(deadline) {
			return Outcome{}, true, ErrInProgress
		}
	}
}

// RunJSON wraps Run for operations whose result is a JSON-encodable value.
func RunJSON[T any](
	ctx context.Context,
	g Guard,
	req Request,
	exec func(ctx context.Context) (T, error),
) (T, bool, error) {
	var out T
	outcome, err := g.Run(ctx, req, func(ctx context.Context) (Outcome, error) {
		value, err := exec(ctx)
		if err != nil {
			return Outcome{}, err
		}
		payload, err := json.Marshal(value)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Payload: payload}, nil
	})
	if err != nil {
		return out, false, err
	}
	if err := json.Unmarshal(outcome.Payload, &out); err != nil {
		return out, false, err
	}
	return out, outcome.Replayed, nil
}

// HashRequest fingerprints a request body for conflict detection.
func HashRequest(payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

func (g Guard) now() time.Time {
	if g.Clock == nil {
		return time.Now().UTC()
	}
	return g.Clock.Now().UTC()
}

func (g Guard) ttl() time.Duration {
	if g.TTL <= 0 {
		return 24 * time.Hour
	}
	return g.TTL
}

func (g Guard) pendingTTL() time.Duration {
	if g.PendingTTL <= 0 {
		return 30 * time.Second
	}
	return g.PendingTTL
}

func (g Guard) waitTimeout() time.Duration {
	if g.WaitTimeout <= 0 {
		return 5 * time.Second
	}
	return g.WaitTimeout
}

func (g Guard) pollInterval() time.Duration {
	if g.PollInterval <= 0 {
		return 25 * time.Millisecond
	}
	return g.PollInterval
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
