package memory

import (
	"context"
	"sync"
	"time"

	"fanvault/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/authorization-service/domain/errors"
	"fanvault/contexts/identity-access/authorization-service/ports"
)

// Store is an in-memory principal directory for tests and isolated wiring.
type Store struct {
	mu         sync.RWMutex
	principals map[string]ports.PrincipalRecord
}

func NewStore() *Store {
	return &Store{principals: make(map[string]ports.PrincipalRecord)}
}

// Put inserts or replaces one principal.
func (s *Store) Put(userID string, role entities.Role, state string, suspended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[userID] = ports.PrincipalRecord{
		UserID:          userID,
		Role:            role,
		OnboardingState: state,
		Suspended:       suspended,
	}
}

func (s *Store) LookupPrincipal(_ context.Context, userID string) (ports.PrincipalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.principals[userID]
	if !ok {
		return ports.PrincipalRecord{}, domainerrors.ErrUserNotFound
	}
	return record, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
