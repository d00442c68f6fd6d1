package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupLimiter(t *testing.T, max int, lockout time.Duration) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return NewLoginLimiter(client, max, lockout), mr
}

func TestLoginLimiter_BlocksAfterMaxAttempts(t *testing.T) {
	l, _ := setupLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Attempt(ctx, "a@x.com")
		if err != nil {
			t.Fatalf("attempt: %v", err)
		}
		if !ok {
			t.Fatalf("attempt %d blocked too early", i+1)
		}
	}

	ok, err := l.Attempt(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if ok {
		t.Fatalf("expected block after 3 attempts")
	}

	if ok, _ := l.Attempt(ctx, "b@x.com"); !ok {
		t.Fatalf("other emails must not be affected")
	}
}

func TestLoginLimiter_ConcurrentAttemptsCannotExceedMax(t *testing.T) {
	const (
		max     = 5
		workers = 50
	)
	l, _ := setupLimiter(t, max, time.Minute)
	ctx := context.Background()

	var (
		allowed atomic.Int32
		start   = make(chan struct{})
		wg      sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := l.Attempt(ctx, "target@x.com")
			if err != nil {
				t.Errorf("attempt: %v", err)
				return
			}
			if ok {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := allowed.Load(); got != max {
		t.Fatalf("expected exactly %d attempts through, got %d", max, got)
	}
}

func TestLoginLimiter_LockoutExpires(t *testing.T) {
	l, mr := setupLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if ok, _ := l.Attempt(ctx, "a@x.com"); !ok {
		t.Fatalf("first attempt must pass")
	}
	if ttl := mr.TTL("login_attempts:a@x.com"); ttl != time.Minute {
		t.Fatalf("expected ttl 1m, got %v", ttl)
	}
	if ok, _ := l.Attempt(ctx, "a@x.com"); ok {
		t.Fatalf("expected block")
	}

	mr.FastForward(time.Minute + time.Second)

	if ok, _ := l.Attempt(ctx, "a@x.com"); !ok {
		t.Fatalf("expected lockout to expire")
	}
}

func TestLoginLimiter_WindowNotExtendedByLaterAttempts(t *testing.T) {
	l, mr := setupLimiter(t, 5, time.Minute)
	ctx := context.Background()

	_, _ = l.Attempt(ctx, "a@x.com")
	mr.FastForward(30 * time.Second)
	_, _ = l.Attempt(ctx, "a@x.com")

	if ttl := mr.TTL("login_attempts:a@x.com"); ttl != 30*time.Second {
		t.Fatalf("expected remaining ttl 30s, got %v", ttl)
	}
}

func TestLoginLimiter_RepairsKeyWithoutTTL(t *testing.T) {
	l, mr := setupLimiter(t, 1, time.Minute)
	ctx := context.Background()

	// A counter left behind without an expiry must not lock the email forever.
	if err := mr.Set("login_attempts:a@x.com", "9"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ok, _ := l.Attempt(ctx, "a@x.com"); ok {
		t.Fatalf("expected block while counter is high")
	}
	if ttl := mr.TTL("login_attempts:a@x.com"); ttl != time.Minute {
		t.Fatalf("expected ttl restored to 1m, got %v", ttl)
	}
}

func TestLoginLimiter_Reset(t *testing.T) {
	l, mr := setupLimiter(t, 1, time.Minute)
	ctx := context.Background()

	_, _ = l.Attempt(ctx, "a@x.com")
	if err := l.Reset(ctx, "a@x.com"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if mr.Exists("login_attempts:a@x.com") {
		t.Fatalf("expected key removed")
	}
	if ok, _ := l.Attempt(ctx, "a@x.com"); !ok {
		t.Fatalf("expected attempt allowed after reset")
	}
}

func TestLoginLimiter_Defaults(t *testing.T) {
	l := NewLoginLimiter(nil, 0, 0)
	if l.maxAttempts != defaultMaxAttempts || l.lockout != defaultLockout {
		t.Fatalf("unexpected defaults: %d %v", l.maxAttempts, l.lockout)
	}
}

func TestLoginLimiter_ErrorWhenUnavailable(t *testing.T) {
	l, mr := setupLimiter(t, 3, time.Minute)
	mr.Close()

	if _, err := l.Attempt(context.Background(), "a@x.com"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
