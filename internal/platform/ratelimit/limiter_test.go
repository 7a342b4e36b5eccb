package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _, _ := limiter.Allow(ctx, "ip-1"); !ok {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	ok, retryAfter, _ := limiter.Allow(ctx, "ip-1")
	if ok || retryAfter != time.Minute {
		t.Fatalf("expected throttle with 1m retry, got ok=%v retry=%s", ok, retryAfter)
	}
	if ok, _, _ := limiter.Allow(ctx, "ip-2"); !ok {
		t.Fatalf("other keys must not share the window")
	}

	now = now.Add(time.Minute)
	if ok, _, _ := limiter.Allow(ctx, "ip-1"); !ok {
		t.Fatalf("new window should reset the count")
	}
}

func TestRedisLimiter(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisLimiter(client, 3, time.Hour)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, _, err := limiter.Allow(ctx, "login:1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, retryAfter, err := limiter.Allow(ctx, "login:1.2.3.4")
	if err != nil || ok {
		t.Fatalf("expected throttle, ok=%v err=%v", ok, err)
	}
	if retryAfter <= 0 || retryAfter > time.Hour {
		t.Fatalf("unexpected retry-after %s", retryAfter)
	}
}
