package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/ports"
)

func seedAccount(t *testing.T, store *Store, userID string, state entities.OnboardingState) entities.CreatorAccount {
	t.Helper()
	now := time.Now().UTC()
	account := entities.CreatorAccount{
		UserID:          userID,
		Email:           userID + "@example.com",
		Handle:          userID,
		Role:            entities.RoleCreator,
		OnboardingState: state,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := store.CreateAccount(context.Background(), ports.CreateAccountInput{Account: account}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func TestCreateAccountRejectsDuplicateEmailAndHandle(t *testing.T) {
	store := NewStore()
	seedAccount(t, store, "alice", entities.StateCreated)

	err := store.CreateAccount(context.Background(), ports.CreateAccountInput{Account: entities.CreatorAccount{
		UserID: "other", Email: "ALICE@example.com", Handle: "fresh",
	}})
	if !errors.Is(err, domainerrors.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	err = store.CreateAccount(context.Background(), ports.CreateAccountInput{Account: entities.CreatorAccount{
		UserID: "other", Email: "other@example.com", Handle: "alice",
	}})
	if !errors.Is(err, domainerrors.ErrHandleTaken) {
		t.Fatalf("expected ErrHandleTaken, got %v", err)
	}
}

func TestApplyTransitionCompareAndSwap(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "bob", entities.StateEmailVerified)
	now := time.Now().UTC()

	_, err := store.ApplyTransition(context.Background(), ports.TransitionInput{
		UserID:        account.UserID,
		ExpectedState: entities.StateCreated,
		Next:          account.WithState(entities.StateKYCPending, now),
	})
	if !errors.Is(err, domainerrors.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}

	updated, err := store.ApplyTransition(context.Background(), ports.TransitionInput{
		UserID:        account.UserID,
		ExpectedState: entities.StateEmailVerified,
		Next:          account.WithState(entities.StateKYCPending, now),
		OpenSession: &entities.IdentitySession{
			SessionID: "sess_1", CreatorUserID: account.UserID, Status: entities.SessionStatusCreated, IdempotencyKey: "k1",
		},
	})
	if err != nil {
		t.Fatalf("apply transition: %v", err)
	}
	if updated.OnboardingState != entities.StateKYCPending {
		t.Fatalf("expected KYC_PENDING, got %s", updated.OnboardingState)
	}
	if _, found, _ := store.FindOpenSession(context.Background(), account.UserID); !found {
		t.Fatal("expected open session")
	}
}

func TestApplyTransitionChecksSessionBeforeState(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "carol", entities.StateEmailVerified)
	now := time.Now().UTC()
	if _, err := store.ApplyTransition(context.Background(), ports.TransitionInput{
		UserID:        account.UserID,
		ExpectedState: entities.StateEmailVerified,
		Next:          account.WithState(entities.StateKYCPending, now),
		OpenSession: &entities.IdentitySession{
			SessionID: "sess_1", CreatorUserID: account.UserID, Status: entities.SessionStatusCreated, IdempotencyKey: "k1",
		},
	}); err != nil {
		t.Fatalf("open session: %v", err)
	}

	pending := account.WithState(entities.StateKYCPending, now)
	complete := ports.TransitionInput{
		UserID:          account.UserID,
		ExpectedState:   entities.StateKYCPending,
		Next:            pending.WithState(entities.StateKYCApproved, now),
		CompleteSession: &ports.SessionCompletion{SessionID: "sess_1", Verdict: entities.VerdictApproved, CompletedAt: now},
	}
	if _, err := store.ApplyTransition(context.Background(), complete); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if _, err := store.ApplyTransition(context.Background(), complete); !errors.Is(err, domainerrors.ErrSessionCompleted) {
		t.Fatalf("expected ErrSessionCompleted for the second writer, got %v", err)
	}
}

func TestApplyTransitionRejectsOnFailedCheckWithoutMutation(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "dave", entities.StateEmailVerified)
	now := time.Now().UTC()
	if _, err := store.ApplyTransition(context.Background(), ports.TransitionInput{
		UserID:           account.UserID,
		ExpectedState:    entities.StateEmailVerified,
		Next:             account.WithState(entities.StateKYCPending, now),
		ConsumeTokenHash: "missing",
	}); !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	stored, _ := store.GetAccount(context.Background(), account.UserID)
	if stored.OnboardingState != entities.StateEmailVerified {
		t.Fatalf("state changed despite failed check: %s", stored.OnboardingState)
	}
}

func TestCloseOpenSessionVoids(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "erin", entities.StateEmailVerified)
	now := time.Now().UTC()
	pending, err := store.ApplyTransition(context.Background(), ports.TransitionInput{
		UserID:        account.UserID,
		ExpectedState: entities.StateEmailVerified,
		Next:          account.WithState(entities.StateKYCPending, now),
		OpenSession: &entities.IdentitySession{
			SessionID: "sess_1", CreatorUserID: account.UserID, Status: entities.SessionStatusCreated, IdempotencyKey: "k1",
		},
	})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	if _, err := store.ApplyTransition(context.Background(), ports.TransitionInput{
		UserID:           account.UserID,
		ExpectedState:    entities.StateKYCPending,
		Next:             pending.WithState(entities.StateEmailVerified, now),
		CloseOpenSession: entities.VerdictVoided,
	}); err != nil {
		t.Fatalf("force state: %v", err)
	}
	session, err := store.GetSession(context.Background(), "sess_1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Status != entities.SessionStatusCompleted || session.Verdict != entities.VerdictVoided {
		t.Fatalf("expected voided session, got %s/%s", session.Status, session.Verdict)
	}
}

func TestOutboxPendingAndMarkSent(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "frank", entities.StateCreated)
	now := time.Now().UTC()
	if _, err := store.UpdateAccount(context.Background(), ports.AccountUpdateInput{
		UserID:    account.UserID,
		UpdatedAt: now,
		Outbox:    &ports.OutboxEvent{OutboxID: "out_1"},
	}); err != nil {
		t.Fatalf("update account: %v", err)
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending row, got %d err=%v", len(pending), err)
	}
	if err := store.MarkOutboxSent(context.Background(), "out_1", now); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	pending, _ = store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows, got %d", len(pending))
	}
}

func TestListAccountsPaginates(t *testing.T) {
	store := NewStore()
	for _, id := range []string{"u1", "u2", "u3"} {
		seedAccount(t, store, id, entities.StateCreated)
	}
	first, next, err := store.ListAccounts(context.Background(), ports.AccountFilter{Limit: 2})
	if err != nil || len(first) != 2 || next == "" {
		t.Fatalf("first page: len=%d next=%q err=%v", len(first), next, err)
	}
	second, next, err := store.ListAccounts(context.Background(), ports.AccountFilter{Limit: 2, Cursor: next})
	if err != nil || len(second) != 1 || next != "" {
		t.Fatalf("second page: len=%d next=%q err=%v", len(second), next, err)
	}
}
