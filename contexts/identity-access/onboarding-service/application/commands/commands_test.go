package commands

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fanvault/contexts/identity-access/onboarding-service/adapters/memory"
	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/ports"
	"fanvault/internal/shared/idempotency"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash string, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type sequenceTokens struct{ n atomic.Int64 }

func (s *sequenceTokens) NewToken() (string, error) {
	return "token_" + strconv.FormatInt(s.n.Add(1), 10), nil
}

type recordingEmail struct {
	mu     sync.Mutex
	tokens map[string]string
	fail   bool
}

func (r *recordingEmail) SendVerification(ctx context.Context, email string, token string) error {
	if r.fail {
		return errors.New("smtp down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tokens == nil {
		r.tokens = map[string]string{}
	}
	r.tokens[email] = token
	return nil
}

type fixture struct {
	store    *memory.Store
	email    *recordingEmail
	clock    fixedClock
	register RegisterUseCase
	verify   VerifyEmailUseCase
	create   CreateSessionUseCase
	complete CompleteSessionUseCase
	admin    AdminOverrideUseCase
	action   CreatorActionUseCase
	login    LoginUseCase
}

func newFixture() *fixture {
	store := memory.NewStore()
	clock := fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	guard := idempotency.Guard{Store: idempotency.NewMemoryStore(), Clock: clock, PollInterval: time.Millisecond}
	email := &recordingEmail{}
	return &fixture{
		store: store,
		email: email,
		clock: clock,
		register: RegisterUseCase{
			Accounts: store, Hasher: plainHasher{}, Tokens: &sequenceTokens{}, Email: email,
			Idempotency: guard, Clock: clock, IDGenerator: store, AdminEmails: []string{"root@example.com"},
		},
		verify:   VerifyEmailUseCase{Accounts: store, Idempotency: guard, Clock: clock, IDGenerator: store},
		create:   CreateSessionUseCase{Accounts: store, Sessions: store, Idempotency: guard, Clock: clock, IDGenerator: store, ProviderURL: "https://kyc.test/start"},
		complete: CompleteSessionUseCase{Accounts: store, Sessions: store, Clock: clock, IDGenerator: store},
		admin:    AdminOverrideUseCase{Accounts: store, Clock: clock, IDGenerator: store},
		action:   CreatorActionUseCase{Accounts: store, Clock: clock, IDGenerator: store},
		login:    LoginUseCase{Accounts: store, Hasher: plainHasher{}},
	}
}

func (f *fixture) verifiedCreator(t *testing.T, email string) string {
	t.Helper()
	registered, err := f.register.Execute(context.Background(), RegisterCommand{Email: email, Password: "password123"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	if _, err := f.verify.Execute(context.Background(), VerifyEmailCommand{Token: f.email.tokens[email]}); err != nil {
		t.Fatalf("verify %s: %v", email, err)
	}
	return registered.CreatorID
}

func TestRegisterValidatesInput(t *testing.T) {
	f := newFixture()
	cases := []struct {
		cmd  RegisterCommand
		want error
	}{
		{RegisterCommand{Email: "a@example.com", Password: "short"}, domainerrors.ErrPasswordTooShort},
		{RegisterCommand{Email: "not-an-email", Password: "password123"}, domainerrors.ErrInvalidEmail},
		{RegisterCommand{Email: "a@example.com", Password: "password123", Handle: "NO spaces"}, domainerrors.ErrInvalidHandle},
		{RegisterCommand{Email: "a@example.com", Password: "password123", Role: "admin"}, domainerrors.ErrInvalidRole},
	}
	for _, tc := range cases {
		if _, err := f.register.Execute(context.Background(), tc.cmd); !errors.Is(err, tc.want) {
			t.Fatalf("register %+v: expected %v, got %v", tc.cmd, tc.want, err)
		}
	}
}

func TestRegisterDerivesHandleAndRejectsDuplicateEmail(t *testing.T) {
	f := newFixture()
	first, err := f.register.Execute(context.Background(), RegisterCommand{Email: "Jane.Doe@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Handle != "jane_doe" || first.Role != "creator" || first.OnboardingState != "CREATED" {
		t.Fatalf("unexpected registration %+v", first)
	}
	if first.EmailDeliveryStatus != EmailDeliverySent {
		t.Fatalf("expected sent delivery, got %s", first.EmailDeliveryStatus)
	}
	second, err := f.register.Execute(context.Background(), RegisterCommand{Email: "jane.doe@other.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if second.Handle != "jane_doe2" {
		t.Fatalf("expected suffixed handle, got %s", second.Handle)
	}
	if _, err := f.register.Execute(context.Background(), RegisterCommand{Email: "jane.doe@example.com", Password: "password123"}); !errors.Is(err, domainerrors.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterIdempotentReplayAndAdminEmail(t *testing.T) {
	f := newFixture()
	cmd := RegisterCommand{IdempotencyKey: "reg-1", Email: "root@example.com", Password: "password123"}
	first, err := f.register.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Role != "admin" || first.Replayed {
		t.Fatalf("unexpected first result %+v", first)
	}
	second, err := f.register.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !second.Replayed || second.CreatorID != first.CreatorID {
		t.Fatalf("expected replay of %s, got %+v", first.CreatorID, second)
	}
}

func TestRegisterEmailFailureStillCreatesAccount(t *testing.T) {
	f := newFixture()
	f.email.fail = true
	result, err := f.register.Execute(context.Background(), RegisterCommand{Email: "quiet@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.EmailDeliveryStatus != EmailDeliveryFailed {
		t.Fatalf("expected failed delivery, got %s", result.EmailDeliveryStatus)
	}
	if _, err := f.store.GetAccount(context.Background(), result.CreatorID); err != nil {
		t.Fatalf("account missing: %v", err)
	}
}

func TestVerifyEmailConsumesToken(t *testing.T) {
	f := newFixture()
	if _, err := f.register.Execute(context.Background(), RegisterCommand{Email: "v@example.com", Password: "password123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	token := f.email.tokens["v@example.com"]
	result, err := f.verify.Execute(context.Background(), VerifyEmailCommand{Token: token})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.State != string(entities.StateEmailVerified) {
		t.Fatalf("expected EMAIL_VERIFIED, got %s", result.State)
	}
	if _, err := f.verify.Execute(context.Background(), VerifyEmailCommand{Token: token}); !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Fatalf("expected consumed token to be invalid, got %v", err)
	}
	if _, err := f.verify.Execute(context.Background(), VerifyEmailCommand{Token: "nope"}); !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestLoginOutcomes(t *testing.T) {
	f := newFixture()
	creatorID := f.verifiedCreator(t, "l@example.com")
	if _, err := f.login.Execute(context.Background(), LoginCommand{Email: "l@example.com", Password: "wrong-pass"}); !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.login.Execute(context.Background(), LoginCommand{Email: "ghost@example.com", Password: "password123"}); !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown account, got %v", err)
	}
	result, err := f.login.Execute(context.Background(), LoginCommand{Email: "l@example.com", Password: "password123"})
	if err != nil || result.UserID != creatorID {
		t.Fatalf("login: %+v err=%v", result, err)
	}
	if _, err := f.action.Execute(context.Background(), CreatorActionCommand{ActorID: "admin", CreatorID: creatorID, Action: "suspend"}); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, err := f.login.Execute(context.Background(), LoginCommand{Email: "l@example.com", Password: "password123"}); !errors.Is(err, domainerrors.ErrAccountSuspended) {
		t.Fatalf("expected ErrAccountSuspended, got %v", err)
	}
}

func TestCreateSessionIsIdempotentPerKey(t *testing.T) {
	f := newFixture()
	creatorID := f.verifiedCreator(t, "k@example.com")

	first, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: creatorID, IdempotencyKey: "key-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.RedirectURL != "https://kyc.test/start?session_id="+first.SessionID {
		t.Fatalf("unexpected redirect %s", first.RedirectURL)
	}
	again, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: creatorID, IdempotencyKey: "key-1"})
	if err != nil {
		t.Fatalf("repeat create: %v", err)
	}
	if again.SessionID != first.SessionID {
		t.Fatalf("expected same session, got %s and %s", first.SessionID, again.SessionID)
	}
	if _, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: creatorID, IdempotencyKey: "key-2"}); !errors.Is(err, domainerrors.ErrInvalidStateForKYC) {
		t.Fatalf("expected ErrInvalidStateForKYC for second key while pending, got %v", err)
	}
	if _, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: creatorID}); !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
}

func TestCreateSessionConcurrentSameKeyConverges(t *testing.T) {
	f := newFixture()
	creatorID := f.verifiedCreator(t, "c@example.com")

	const callers = 8
	var wg sync.WaitGroup
	ids := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: creatorID, IdempotencyKey: "same"})
			ids[i], errs[i] = result.SessionID, err
		}(i)
	}
	wg.Wait()
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("caller %d got session %s, want %s", i, ids[i], ids[0])
		}
	}
}

func TestCreateSessionRequiresVerifiedOrRejected(t *testing.T) {
	f := newFixture()
	registered, err := f.register.Execute(context.Background(), RegisterCommand{Email: "n@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: registered.CreatorID, IdempotencyKey: "k"}); !errors.Is(err, domainerrors.ErrInvalidStateForKYC) {
		t.Fatalf("expected ErrInvalidStateForKYC from CREATED, got %v", err)
	}
}

func TestCompleteSessionRejectLoopAndChecks(t *testing.T) {
	f := newFixture()
	creatorID := f.verifiedCreator(t, "r@example.com")
	otherID := f.verifiedCreator(t, "o@example.com")

	session, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: creatorID, IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.complete.Execute(context.Background(), CompleteSessionCommand{SessionID: "missing", Verdict: "APPROVED", CallerID: creatorID}); !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := f.complete.Execute(context.Background(), CompleteSessionCommand{SessionID: session.SessionID, Verdict: "APPROVED", CallerID: otherID}); !errors.Is(err, domainerrors.ErrSessionForbidden) {
		t.Fatalf("expected ErrSessionForbidden, got %v", err)
	}
	if _, err := f.complete.Execute(context.Background(), CompleteSessionCommand{SessionID: session.SessionID, Verdict: "MAYBE", CallerID: creatorID}); !errors.Is(err, domainerrors.ErrInvalidVerdict) {
		t.Fatalf("expected ErrInvalidVerdict, got %v", err)
	}
	rejected, err := f.complete.Execute(context.Background(), CompleteSessionCommand{SessionID: session.SessionID, Verdict: "REJECTED", CallerID: creatorID})
	if err != nil || rejected.State != string(entities.StateKYCRejected) {
		t.Fatalf("reject: %+v err=%v", rejected, err)
	}
	if _, err := f.complete.Execute(context.Background(), CompleteSessionCommand{SessionID: session.SessionID, Verdict: "APPROVED", CallerID: creatorID}); !errors.Is(err, domainerrors.ErrSessionCompleted) {
		t.Fatalf("expected ErrSessionCompleted, got %v", err)
	}

	retry, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: creatorID, IdempotencyKey: "k2"})
	if err != nil {
		t.Fatalf("retry create: %v", err)
	}
	approved, err := f.complete.Execute(context.Background(), CompleteSessionCommand{SessionID: retry.SessionID, Verdict: "APPROVED", CallerID: creatorID})
	if err != nil || approved.State != string(entities.StateKYCApproved) {
		t.Fatalf("approve: %+v err=%v", approved, err)
	}
	account, _ := f.store.GetAccount(context.Background(), creatorID)
	if !account.Discoverable {
		t.Fatal("expected approved creator to be discoverable")
	}
}

func TestCompleteSessionConcurrentCallersHaveOneWinner(t *testing.T) {
	const callers = 8
	for round := 0; round < 20; round++ {
		f := newFixture()
		creatorID := f.verifiedCreator(t, "race-"+strconv.Itoa(round)+"@example.com")
		session, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: creatorID, IdempotencyKey: "k"})
		if err != nil {
			t.Fatalf("round %d create: %v", round, err)
		}

		var wg sync.WaitGroup
		results := make([]CompleteSessionResult, callers)
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			verdict := "APPROVED"
			if i%2 == 1 {
				verdict = "REJECTED"
			}
			wg.Add(1)
			go func(i int, verdict string) {
				defer wg.Done()
				results[i], errs[i] = f.complete.Execute(context.Background(), CompleteSessionCommand{
					SessionID: session.SessionID, Verdict: verdict, CallerID: creatorID,
				})
			}(i, verdict)
		}
		wg.Wait()

		winner := -1
		for i := 0; i < callers; i++ {
			switch {
			case errs[i] == nil:
				if winner >= 0 {
					t.Fatalf("round %d: callers %d and %d both completed the session", round, winner, i)
				}
				winner = i
			case !errors.Is(errs[i], domainerrors.ErrSessionCompleted):
				t.Fatalf("round %d caller %d: expected ErrSessionCompleted, got %v", round, i, errs[i])
			}
		}
		if winner < 0 {
			t.Fatalf("round %d: no caller completed the session", round)
		}

		account, err := f.store.GetAccount(context.Background(), creatorID)
		if err != nil {
			t.Fatalf("round %d get account: %v", round, err)
		}
		if string(account.OnboardingState) != results[winner].State {
			t.Fatalf("round %d: account in %s, winner reported %s", round, account.OnboardingState, results[winner].State)
		}
	}
}

func TestCompleteSessionWhileSuspendedIsInvalidState(t *testing.T) {
	f := newFixture()
	creatorID := f.verifiedCreator(t, "s@example.com")
	session, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: creatorID, IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.action.Execute(context.Background(), CreatorActionCommand{ActorID: "admin", CreatorID: creatorID, Action: "suspend"}); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, err := f.complete.Execute(context.Background(), CompleteSessionCommand{SessionID: session.SessionID, Verdict: "APPROVED", CallerID: creatorID}); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	activated, err := f.action.Execute(context.Background(), CreatorActionCommand{ActorID: "admin", CreatorID: creatorID, Action: "activate"})
	if err != nil || activated.State != string(entities.StateKYCPending) {
		t.Fatalf("activate: %+v err=%v", activated, err)
	}
	if _, err := f.complete.Execute(context.Background(), CompleteSessionCommand{SessionID: session.SessionID, Verdict: "APPROVED", CallerID: creatorID}); err != nil {
		t.Fatalf("session should stay valid across suspension: %v", err)
	}
}

func TestAdminOverrides(t *testing.T) {
	f := newFixture()
	registered, err := f.register.Execute(context.Background(), RegisterCommand{Email: "a@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	verified, err := f.admin.ForceVerifyEmail(context.Background(), ForceVerifyEmailCommand{ActorID: "admin", Email: "a@example.com"})
	if err != nil || verified.Status != ForceVerifyStatusVerified {
		t.Fatalf("force verify: %+v err=%v", verified, err)
	}
	again, err := f.admin.ForceVerifyEmail(context.Background(), ForceVerifyEmailCommand{ActorID: "admin", Email: "a@example.com"})
	if err != nil || again.Status != ForceVerifyStatusAlreadyVerified {
		t.Fatalf("repeat force verify: %+v err=%v", again, err)
	}

	session, err := f.create.Execute(context.Background(), CreateSessionCommand{CreatorUserID: registered.CreatorID, IdempotencyKey: "k"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	forced, err := f.admin.ForceState(context.Background(), ForceStateCommand{ActorID: "admin", Email: "a@example.com", State: "EMAIL_VERIFIED", Reason: "redo"})
	if err != nil || forced.State != string(entities.StateEmailVerified) {
		t.Fatalf("force state: %+v err=%v", forced, err)
	}
	stored, _ := f.store.GetSession(context.Background(), session.SessionID)
	if stored.Verdict != entities.VerdictVoided {
		t.Fatalf("expected voided session, got %s", stored.Verdict)
	}
	if _, err := f.admin.ForceState(context.Background(), ForceStateCommand{ActorID: "admin", Email: "a@example.com", State: "LIMBO"}); !errors.Is(err, domainerrors.ErrInvalidTargetState) {
		t.Fatalf("expected ErrInvalidTargetState, got %v", err)
	}

	role, err := f.admin.ForceRole(context.Background(), ForceRoleCommand{ActorID: "admin", Email: "a@example.com", Role: "fan"})
	if err != nil || role.Role != "fan" {
		t.Fatalf("force role: %+v err=%v", role, err)
	}

	entries, _, err := f.store.ListAudit(context.Background(), ports.AuditFilter{TargetUserID: registered.CreatorID})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) < 4 || entries[0].Action != entities.AuditActionForceRole || entries[0].ActorID != "admin" {
		t.Fatalf("unexpected audit trail %+v", entries)
	}
	if entries[1].Action != entities.AuditActionForceState {
		t.Fatalf("expected force_state audit action, got %s", entries[1].Action)
	}
}

func TestCreatorActions(t *testing.T) {
	f := newFixture()
	creatorID := f.verifiedCreator(t, "m@example.com")

	if _, err := f.action.Execute(context.Background(), CreatorActionCommand{ActorID: "admin", CreatorID: creatorID, Action: "activate"}); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for activate on active account, got %v", err)
	}
	if _, err := f.action.Execute(context.Background(), CreatorActionCommand{ActorID: "admin", CreatorID: creatorID, Action: "promote"}); !errors.Is(err, domainerrors.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	approved, err := f.action.Execute(context.Background(), CreatorActionCommand{ActorID: "admin", CreatorID: creatorID, Action: "approve"})
	if err != nil || approved.State != string(entities.StateKYCApproved) || !approved.Discoverable {
		t.Fatalf("approve: %+v err=%v", approved, err)
	}
	featured, err := f.action.Execute(context.Background(), CreatorActionCommand{ActorID: "admin", CreatorID: creatorID, Action: "feature"})
	if err != nil || !featured.Featured {
		t.Fatalf("feature: %+v err=%v", featured, err)
	}
	badge, err := f.action.Execute(context.Background(), CreatorActionCommand{ActorID: "admin", CreatorID: creatorID, Action: "verify"})
	if err != nil || !badge.VerifiedBadge || !badge.Featured {
		t.Fatalf("verify badge: %+v err=%v", badge, err)
	}
	if _, err := f.action.Execute(context.Background(), CreatorActionCommand{ActorID: "admin", CreatorID: "missing", Action: "feature"}); !errors.Is(err, domainerrors.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
