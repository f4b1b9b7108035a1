package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewLoginLimiter(client), mr
}

func TestLoginLimiterAllowsFreshEmail(t *testing.T) {
	limiter, _ := newTestLimiter(t)

	blocked, err := limiter.TooManyFailures(context.Background(), "fresh@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blocked {
		t.Fatal("expected fresh email to be allowed")
	}
}

func TestLoginLimiterBlocksAfterThreshold(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	email := "victim@example.com"

	for i := 0; i < maxFailures-1; i++ {
		if err := limiter.RecordFailure(ctx, email); err != nil {
			t.Fatalf("record failure %d: %v", i, err)
		}
		blocked, err := limiter.TooManyFailures(ctx, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if blocked {
			t.Fatalf("blocked after only %d failures", i+1)
		}
	}

	if err := limiter.RecordFailure(ctx, email); err != nil {
		t.Fatalf("record final failure: %v", err)
	}
	blocked, err := limiter.TooManyFailures(ctx, email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !blocked {
		t.Fatalf("expected block after %d failures", maxFailures)
	}
}

func TestLoginLimiterKeyIsCaseInsensitive(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < maxFailures; i++ {
		if err := limiter.RecordFailure(ctx, "User@Example.COM"); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	blocked, err := limiter.TooManyFailures(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !blocked {
		t.Fatal("expected block regardless of email casing")
	}
}

func TestLoginLimiterResetClearsCounter(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	email := "reset@example.com"

	for i := 0; i < maxFailures; i++ {
		if err := limiter.RecordFailure(ctx, email); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}
	if err := limiter.Reset(ctx, email); err != nil {
		t.Fatalf("reset: %v", err)
	}

	blocked, err := limiter.TooManyFailures(ctx, email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blocked {
		t.Fatal("expected counter to be cleared after reset")
	}
}

func TestLoginLimiterWindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()
	email := "expire@example.com"

	for i := 0; i < maxFailures; i++ {
		if err := limiter.RecordFailure(ctx, email); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	mr.FastForward(failureWindow + time.Second)

	blocked, err := limiter.TooManyFailures(ctx, email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blocked {
		t.Fatal("expected counter to expire after the window")
	}
}
