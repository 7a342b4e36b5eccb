package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/ports"
	"fanvault/internal/shared/outbox"
)

// Store is the in-process onboarding repository. Every write takes the
// single lock, so ApplyTransition validates all its compare-and-swap
// conditions before mutating anything.
type Store struct {
	mu sync.RWMutex

	accountsByID   map[string]entities.CreatorAccount
	userIDByEmail  map[string]string
	userIDByHandle map[string]string
	tokensByHash   map[string]entities.VerificationToken
	sessionsByID   map[string]entities.IdentitySession
	sessionOrder   []string
	audit          []entities.AuditEntry
	outbox         []outbox.Message
	sequence       uint64
}

func NewStore() *Store {
	return &Store{
		accountsByID:   make(map[string]entities.CreatorAccount),
		userIDByEmail:  make(map[string]string),
		userIDByHandle: make(map[string]string),
		tokensByHash:   make(map[string]entities.VerificationToken),
		sessionsByID:   make(map[string]entities.IdentitySession),
	}
}

func (s *Store) CreateAccount(ctx context.Context, input ports.CreateAccountInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := input.Account
	email := strings.ToLower(account.Email)
	handle := strings.ToLower(account.Handle)
	if _, exists := s.userIDByEmail[email]; exists {
		return domainerrors.ErrEmailTaken
	}
	if _, exists := s.userIDByHandle[handle]; exists {
		return domainerrors.ErrHandleTaken
	}
	if _, exists := s.accountsByID[account.UserID]; exists {
		return fmt.Errorf("create account %s: %w", account.UserID, domainerrors.ErrEmailTaken)
	}

	s.accountsByID[account.UserID] = account
	s.userIDByEmail[email] = account.UserID
	s.userIDByHandle[handle] = account.UserID
	if input.Token.TokenHash != "" {
		s.tokensByHash[input.Token.TokenHash] = input.Token
	}
	s.audit = append(s.audit, input.Audit)
	return s.appendOutboxLocked(input.Outbox)
}

func (s *Store) GetAccount(ctx context.Context, userID string) (entities.CreatorAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accountsByID[userID]
	if !ok {
		return entities.CreatorAccount{}, domainerrors.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (entities.CreatorAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.userIDByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return entities.CreatorAccount{}, domainerrors.ErrAccountNotFound
	}
	return cloneAccount(s.accountsByID[userID]), nil
}

func (s *Store) GetAccountByHandle(ctx context.Context, handle string) (entities.CreatorAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.userIDByHandle[strings.ToLower(strings.TrimSpace(handle))]
	if !ok {
		return entities.CreatorAccount{}, domainerrors.ErrAccountNotFound
	}
	return cloneAccount(s.accountsByID[userID]), nil
}

func (s *Store) HandleExists(ctx context.Context, handle string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.userIDByHandle[strings.ToLower(strings.TrimSpace(handle))]
	return ok, nil
}

func (s *Store) ListAccounts(ctx context.Context, filter ports.AccountFilter) ([]entities.CreatorAccount, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.CreatorAccount, 0, len(s.accountsByID))
	for _, account := range s.accountsByID {
		if filter.Role != "" && account.Role != filter.Role {
			continue
		}
		if filter.State != "" && account.OnboardingState != filter.State {
			continue
		}
		items = append(items, cloneAccount(account))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].UserID < items[j].UserID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return paginate(items, filter.Cursor, filter.Limit)
}

func (s *Store) GetVerificationToken(ctx context.Context, tokenHash string) (entities.VerificationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokensByHash[tokenHash]
	if !ok {
		return entities.VerificationToken{}, domainerrors.ErrInvalidToken
	}
	return token, nil
}

func (s *Store) ApplyTransition(ctx context.Context, input ports.TransitionInput) (entities.CreatorAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accountsByID[input.UserID]
	if !ok {
		return entities.CreatorAccount{}, domainerrors.ErrAccountNotFound
	}
	if input.CompleteSession != nil {
		session, ok := s.sessionsByID[input.CompleteSession.SessionID]
		if !ok {
			return entities.CreatorAccount{}, domainerrors.ErrSessionNotFound
		}
		if !session.IsOpen() {
			return entities.CreatorAccount{}, domainerrors.ErrSessionCompleted
		}
	}
	if account.OnboardingState != input.ExpectedState {
		return entities.CreatorAccount{}, domainerrors.ErrStateConflict
	}
	if input.ConsumeTokenHash != "" {
		token, ok := s.tokensByHash[input.ConsumeTokenHash]
		if !ok || token.ConsumedAt != nil {
			return entities.CreatorAccount{}, domainerrors.ErrInvalidToken
		}
	}
	if input.OpenSession != nil {
		for _, id := range s.sessionOrder {
			existing := s.sessionsByID[id]
			if existing.CreatorUserID != input.UserID {
				continue
			}
			if existing.IdempotencyKey == input.OpenSession.IdempotencyKey {
				return entities.CreatorAccount{}, domainerrors.ErrDuplicateSessionKey
			}
			if existing.IsOpen() {
				return entities.CreatorAccount{}, domainerrors.ErrOpenSessionExists
			}
		}
	}

	// Only lifecycle columns move here; attributes owned by UpdateAccount stay.
	account.OnboardingState = input.Next.OnboardingState
	account.SuspendedFrom = input.Next.SuspendedFrom
	account.Discoverable = input.Next.Discoverable
	account.UpdatedAt = input.Next.UpdatedAt
	if input.Next.EmailVerifiedAt != nil && account.EmailVerifiedAt == nil {
		verifiedAt := *input.Next.EmailVerifiedAt
		account.EmailVerifiedAt = &verifiedAt
	}
	s.accountsByID[account.UserID] = account

	now := input.Next.UpdatedAt
	if input.ConsumeTokenHash != "" {
		token := s.tokensByHash[input.ConsumeTokenHash]
		consumedAt := now
		token.ConsumedAt = &consumedAt
		s.tokensByHash[input.ConsumeTokenHash] = token
	}
	if input.CompleteSession != nil {
		s.completeSessionLocked(input.CompleteSession.SessionID, input.CompleteSession.Verdict, input.CompleteSession.CompletedAt)
	}
	if input.CloseOpenSession != "" {
		for _, id := range s.sessionOrder {
			session := s.sessionsByID[id]
			if session.CreatorUserID == input.UserID && session.IsOpen() {
				s.completeSessionLocked(id, input.CloseOpenSession, now)
			}
		}
	}
	if input.OpenSession != nil {
		s.sessionsByID[input.OpenSession.SessionID] = *input.OpenSession
		s.sessionOrder = append(s.sessionOrder, input.OpenSession.SessionID)
	}
	s.audit = append(s.audit, input.Audit)
	if err := s.appendOutboxLocked(input.Outbox); err != nil {
		return entities.CreatorAccount{}, err
	}
	return cloneAccount(account), nil
}

func (s *Store) UpdateAccount(ctx context.Context, input ports.AccountUpdateInput) (entities.CreatorAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accountsByID[input.UserID]
	if !ok {
		return entities.CreatorAccount{}, domainerrors.ErrAccountNotFound
	}
	if input.Role != nil {
		account.Role = *input.Role
	}
	if input.VerifiedBadge != nil {
		account.VerifiedBadge = *input.VerifiedBadge
	}
	if input.Featured != nil {
		account.Featured = *input.Featured
	}
	account.UpdatedAt = input.UpdatedAt
	s.accountsByID[account.UserID] = account
	s.audit = append(s.audit, input.Audit)
	if err := s.appendOutboxLocked(input.Outbox); err != nil {
		return entities.CreatorAccount{}, err
	}
	return cloneAccount(account), nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (entities.IdentitySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessionsByID[sessionID]
	if !ok {
		return entities.IdentitySession{}, domainerrors.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *Store) FindSessionByKey(ctx context.Context, creatorUserID string, idempotencyKey string) (entities.IdentitySession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.sessionOrder {
		session := s.sessionsByID[id]
		if session.CreatorUserID == creatorUserID && session.IdempotencyKey == idempotencyKey {
			return cloneSession(session), true, nil
		}
	}
	return entities.IdentitySession{}, false, nil
}

func (s *Store) FindOpenSession(ctx context.Context, creatorUserID string) (entities.IdentitySession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.sessionOrder {
		session := s.sessionsByID[id]
		if session.CreatorUserID == creatorUserID && session.IsOpen() {
			return cloneSession(session), true, nil
		}
	}
	return entities.IdentitySession{}, false, nil
}

func (s *Store) LatestSession(ctx context.Context, creatorUserID string) (entities.IdentitySession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.sessionOrder) - 1; i >= 0; i-- {
		session := s.sessionsByID[s.sessionOrder[i]]
		if session.CreatorUserID == creatorUserID {
			return cloneSession(session), true, nil
		}
	}
	return entities.IdentitySession{}, false, nil
}

func (s *Store) ListAudit(ctx context.Context, filter ports.AuditFilter) ([]entities.AuditEntry, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.AuditEntry, 0, len(s.audit))
	for i := len(s.audit) - 1; i >= 0; i-- {
		entry := s.audit[i]
		if filter.TargetUserID != "" && entry.TargetUserID != filter.TargetUserID {
			continue
		}
		items = append(items, entry)
	}
	return paginate(items, filter.Cursor, filter.Limit)
}

func (s *Store) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		if row.Status != outbox.StatusPending {
			continue
		}
		items = append(items, row)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].OutboxID != outboxID {
			continue
		}
		at := sentAt.UTC()
		s.outbox[i].Status = outbox.StatusSent
		s.outbox[i].SentAt = &at
		return nil
	}
	return nil
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	return s.nextID("id"), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) nextID(prefix string) string {
	n := atomic.AddUint64(&s.sequence, 1)
	return prefix + "_" + strconv.FormatUint(n, 10)
}

func (s *Store) completeSessionLocked(sessionID string, verdict entities.Verdict, at time.Time) {
	session := s.sessionsByID[sessionID]
	completedAt := at.UTC()
	session.Status = entities.SessionStatusCompleted
	session.Verdict = verdict
	session.CompletedAt = &completedAt
	s.sessionsByID[sessionID] = session
}

func (s *Store) appendOutboxLocked(event *ports.OutboxEvent) error {
	if event == nil {
		return nil
	}
	payload, err := json.Marshal(event.Envelope)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outbox.Message{
		OutboxID:     event.OutboxID,
		EventType:    event.Envelope.EventType,
		PartitionKey: event.Envelope.PartitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    event.Envelope.OccurredAtUTC,
	})
	return nil
}

func paginate[T any](items []T, cursor string, limit int) ([]T, string, error) {
	offset := 0
	if strings.TrimSpace(cursor) != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil || parsed < 0 {
			return nil, "", domainerrors.ErrInvalidRequest
		}
		offset = parsed
	}
	if limit <= 0 {
		limit = 50
	}
	if offset >= len(items) {
		return []T{}, "", nil
	}
	end := offset + limit
	if end >= len(items) {
		return items[offset:], "", nil
	}
	return items[offset:end], strconv.Itoa(end), nil
}

func cloneAccount(account entities.CreatorAccount) entities.CreatorAccount {
	if account.EmailVerifiedAt != nil {
		at := *account.EmailVerifiedAt
		account.EmailVerifiedAt = &at
	}
	return account
}

func cloneSession(session entities.IdentitySession) entities.IdentitySession {
	if session.CompletedAt != nil {
		at := *session.CompletedAt
		session.CompletedAt = &at
	}
	return session
}
