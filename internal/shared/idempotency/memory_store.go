package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process. It is used by tests and by the API
// when no Redis or Postgres store is configured.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Reserve(_ context.Context, record Record, now time.Time) (bool, Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := record.ID.String()
	if existing, ok := s.records[key]; ok {
		if !isExpired(existing, now) {
			return false, cloneRecord(existing), nil
		}
		delete(s.records, key)
	}
	s.records[key] = cloneRecord(record)
	return true, Record{}, nil
}

func (s *MemoryStore) Get(_ context.Context, id RecordID, now time.Time) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id.String()]
	if !ok {
		return Record{}, false, nil
	}
	if isExpired(record, now) {
		delete(s.records, id.String())
		return Record{}, false, nil
	}
	return cloneRecord(record), true, nil
}

func (s *MemoryStore) Complete(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID.String()] = cloneRecord(record)
	return nil
}

func (s *MemoryStore) Release(_ context.Context, id RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[id.String()]; ok && record.Status == StatusPending {
		delete(s.records, id.String())
	}
	return nil
}

func isExpired(record Record, now time.Time) bool {
	return !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt.UTC())
}

func cloneRecord(record Record) Record {
	record.Payload = append([]byte(nil), record.Payload...)
	return record
}
