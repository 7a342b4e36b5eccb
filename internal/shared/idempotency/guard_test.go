package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunReplaysCompletedResult(t *testing.T) {
	guard := Guard{Store: NewMemoryStore(), TTL: time.Hour}
	calls := 0
	exec := func(context.Context) (Outcome, error) {
		calls++
		return Outcome{Payload: []byte(`{"n":1}`), StatusCode: 201}, nil
	}
	req := Request{Operation: "op", Scope: "user_1", Key: "k1", RequestHash: "h"}

	first, err := guard.Run(context.Background(), req, exec)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := guard.Run(context.Background(), req, exec)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exec once, got %d", calls)
	}
	if first.Replayed || !second.Replayed {
		t.Fatalf("unexpected replay flags first=%v second=%v", first.Replayed, second.Replayed)
	}
	if string(second.Payload) != `{"n":1}` || second.StatusCode != 201 {
		t.Fatalf("unexpected replay payload %s status %d", second.Payload, second.StatusCode)
	}
}

func TestRunRejectsHashMismatch(t *testing.T) {
	guard := Guard{Store: NewMemoryStore()}
	exec := func(context.Context) (Outcome, error) { return Outcome{Payload: []byte(`{}`)}, nil }

	if _, err := guard.Run(context.Background(), Request{Operation: "op", Scope: "s", Key: "k", RequestHash: "a"}, exec); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	_, err := guard.Run(context.Background(), Request{Operation: "op", Scope: "s", Key: "k", RequestHash: "b"}, exec)
	if !errors.Is(err, ErrKeyConflict) {
		t.Fatalf("expected ErrKeyConflict, got %v", err)
	}
}

func TestRunScopesKeysByOperationAndScope(t *testing.T) {
	guard := Guard{Store: NewMemoryStore()}
	var calls int
	exec := func(context.Context) (Outcome, error) {
		calls++
		return Outcome{Payload: []byte(`{}`)}, nil
	}
	for _, req := range []Request{
		{Operation: "a", Scope: "u1", Key: "k", RequestHash: "h"},
		{Operation: "b", Scope: "u1", Key: "k", RequestHash: "h"},
		{Operation: "a", Scope: "u2", Key: "k", RequestHash: "h"},
	} {
		if _, err := guard.Run(context.Background(), req, exec); err != nil {
			t.Fatalf("run failed: %v", err)
		}
	}
	if calls != 3 {
		t.Fatalf("expected 3 independent executions, got %d", calls)
	}
}

func TestRunFailureReleasesReservation(t *testing.T) {
	guard := Guard{Store: NewMemoryStore()}
	req := Request{Operation: "op", Scope: "s", Key: "k", RequestHash: "h"}
	boom := errors.New("boom")

	_, err := guard.Run(context.Background(), req, func(context.Context) (Outcome, error) {
		return Outcome{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	out, err := guard.Run(context.Background(), req, func(context.Context) (Outcome, error) {
		return Outcome{Payload: []byte(`"ok"`)}, nil
	})
	if err != nil {
		t.Fatalf("retry after failure failed: %v", err)
	}
	if out.Replayed {
		t.Fatal("expected fresh execution after failed attempt")
	}
}

func TestRunEmptyKeyBypassesStore(t *testing.T) {
	guard := Guard{}
	calls := 0
	for i := 0; i < 2; i++ {
		if _, err := guard.Run(context.Background(), Request{Operation: "op"}, func(context.Context) (Outcome, error) {
			calls++
			return Outcome{}, nil
		}); err != nil {
			t.Fatalf("run failed: %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 executions without key, got %d", calls)
	}
}

func TestRunConcurrentCallersConverge(t *testing.T) {
	guard := Guard{Store: NewMemoryStore(), PollInterval: time.Millisecond, WaitTimeout: 2 * time.Second}
	req := Request{Operation: "op", Scope: "s", Key: "same", RequestHash: "h"}

	var executions atomic.Int32
	release := make(chan struct{})
	exec := func(context.Context) (Outcome, error) {
		executions.Add(1)
		<-release
		return Outcome{Payload: []byte(`"session_1"`)}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Outcome, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = guard.Run(context.Background(), req, exec)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if executions.Load() != 1 {
		t.Fatalf("expected single execution, got %d", executions.Load())
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if string(results[i].Payload) != `"session_1"` {
			t.Fatalf("caller %d got %s", i, results[i].Payload)
		}
	}
}

func TestRunPendingTimesOut(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now().UTC()
	_, _, _ = store.Reserve(context.Background(), Record{
		ID:          RecordID{Operation: "op", Scope: "s", Key: "k"},
		RequestHash: "h",
		Status:      StatusPending,
		ExpiresAt:   now.Add(time.Minute),
	}, now)

	guard := Guard{Store: store, PollInterval: time.Millisecond, WaitTimeout: 20 * time.Millisecond}
	_, err := guard.Run(context.Background(), Request{Operation: "op", Scope: "s", Key: "k", RequestHash: "h"}, func(context.Context) (Outcome, error) {
		t.Fatal("exec must not run while another caller holds the key")
		return Outcome{}, nil
	})
	if !errors.Is(err, ErrInProgress) {
		t.Fatalf("expected ErrInProgress, got %v", err)
	}
}

func TestRunJSONDecodesReplay(t *testing.T) {
	guard := Guard{Store: NewMemoryStore()}
	type result struct {
		SessionID string `json:"session_id"`
	}
	req := Request{Operation: "op", Scope: "s", Key: "k", RequestHash: "h"}
	first, replayed, err := RunJSON(context.Background(), guard, req, func(context.Context) (result, error) {
		return result{SessionID: "sess_1"}, nil
	})
	if err != nil || replayed {
		t.Fatalf("first run err=%v replayed=%v", err, replayed)
	}
	second, replayed, err := RunJSON(context.Background(), guard, req, func(context.Context) (result, error) {
		return result{SessionID: "sess_2"}, nil
	})
	if err != nil || !replayed {
		t.Fatalf("second run err=%v replayed=%v", err, replayed)
	}
	if first.SessionID != second.SessionID {
		t.Fatalf("expected same session, got %s and %s", first.SessionID, second.SessionID)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now().UTC()
	id := RecordID{Operation: "op", Scope: "s", Key: "k"}
	if err := store.Complete(context.Background(), Record{ID: id, RequestHash: "h", Status: StatusCompleted, ExpiresAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if _, found, _ := store.Get(context.Background(), id, now); !found {
		t.Fatal("expected record before expiry")
	}
	if _, found, _ := store.Get(context.Background(), id, now.Add(2*time.Second)); found {
		t.Fatal("expected record to expire")
	}
}
