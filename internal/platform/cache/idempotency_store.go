package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fanvault/internal/shared/idempotency"

	"github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "fanvault:idem:"

// releasePending deletes the record only while it is still pending, so a
// completed result is never dropped by a late release.
var releasePending = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then return 0 end
local record = cjson.decode(raw)
if record.status == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisRecord struct {
	RequestHash string    `json:"request_hash"`
	Status      string    `json:"status"`
	StatusCode  int       `json:"status_code"`
	Payload     []byte    `json:"payload"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IdempotencyStore keeps guard records in Redis with native key expiry.
type IdempotencyStore struct {
	client redis.UniversalClient
}

var _ idempotency.Store = (*IdempotencyStore)(nil)

func NewIdempotencyStore(client redis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) Reserve(ctx context.Context, record idempotency.Record, now time.Time) (bool, idempotency.Record, error) {
	raw, err := encodeRecord(record)
	if err != nil {
		return false, idempotency.Record{}, err
	}
	ok, err := s.client.SetNX(ctx, redisKey(record.ID), raw, ttlUntil(record.ExpiresAt, now)).Result()
	if err != nil {
		return false, idempotency.Record{}, fmt.Errorf("reserve idempotency record: %w", err)
	}
	if ok {
		return true, idempotency.Record{}, nil
	}
	existing, found, err := s.Get(ctx, record.ID, now)
	if err != nil {
		return false, idempotency.Record{}, err
	}
	if !found {
		// Expired between SETNX and GET. Report it as pending so the guard polls.
		return false, idempotency.Record{ID: record.ID, RequestHash: record.RequestHash, Status: idempotency.StatusPending}, nil
	}
	return false, existing, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, id idempotency.RecordID, _ time.Time) (idempotency.Record, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return idempotency.Record{}, false, nil
	}
	if err != nil {
		return idempotency.Record{}, false, fmt.Errorf("get idempotency record: %w", err)
	}
	var stored redisRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return idempotency.Record{}, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return idempotency.Record{
		ID:          id,
		RequestHash: stored.RequestHash,
		Status:      stored.Status,
		StatusCode:  stored.StatusCode,
		Payload:     stored.Payload,
		ExpiresAt:   stored.ExpiresAt,
	}, true, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, record idempotency.Record) error {
	raw, err := encodeRecord(record)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(record.ID), raw, ttlUntil(record.ExpiresAt, time.Now())).Err(); err != nil {
		return fmt.Errorf("complete idempotency record: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, id idempotency.RecordID) error {
	if err := releasePending.Run(ctx, s.client, []string{redisKey(id)}, idempotency.StatusPending).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release idempotency record: %w", err)
	}
	return nil
}

func redisKey(id idempotency.RecordID) string {
	return idempotencyPrefix + id.String()
}

func encodeRecord(record idempotency.Record) ([]byte, error) {
	return json.Marshal(redisRecord{
		RequestHash: record.RequestHash,
		Status:      record.Status,
		StatusCode:  record.StatusCode,
		Payload:     record.Payload,
		ExpiresAt:   record.ExpiresAt.UTC(),
	})
}

func ttlUntil(expiresAt time.Time, now time.Time) time.Duration {
	ttl := expiresAt.Sub(now)
	if expiresAt.IsZero() || ttl <= 0 {
		return time.Second
	}
	return ttl
}
