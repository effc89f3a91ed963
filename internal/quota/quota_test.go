package quota

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLimiter_EnforcesLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lim := NewLimiter(NewMemoryStore(), 3)

	for want := 1; want <= 3; want++ {
		got, err := lim.CheckAndIncrement(ctx, 7, -100, "2024-01-15")
		if err != nil {
			t.Fatalf("call %d: %v", want, err)
		}
		if got != want {
			t.Errorf("count = %d, want %d", got, want)
		}
	}

	_, err := lim.CheckAndIncrement(ctx, 7, -100, "2024-01-15")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("4th call error = %v, want ErrQuotaExceeded", err)
	}
	var exc *ExceededError
	if !errors.As(err, &exc) || exc.Limit != 3 {
		t.Fatalf("error = %#v, want *ExceededError with Limit 3", err)
	}
	if !strings.Contains(err.Error(), "limit") {
		t.Errorf("message %q should mention the limit", err.Error())
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lim := NewLimiter(NewMemoryStore(), 1)

	calls := []struct {
		user, chat int64
		date       string
	}{
		{1, 10, "2024-01-15"},
		{2, 10, "2024-01-15"},
		{1, 11, "2024-01-15"},
		{1, 10, "2024-01-16"},
	}
	for _, c := range calls {
		if _, err := lim.CheckAndIncrement(ctx, c.user, c.chat, c.date); err != nil {
			t.Errorf("CheckAndIncrement(%d, %d, %s): %v", c.user, c.chat, c.date, err)
		}
	}
	if _, err := lim.CheckAndIncrement(ctx, 1, 10, "2024-01-15"); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("second call for the same key should exceed, got %v", err)
	}
}

func TestLimiter_NonPositiveLimit(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	lim := NewLimiter(store, 0, WithMessage("Досягнуто денне обмеження: %d."))

	_, err := lim.CheckAndIncrement(context.Background(), 1, 1, "2024-01-15")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("error = %v, want ErrQuotaExceeded", err)
	}
	if !strings.Contains(err.Error(), "обмеження") {
		t.Errorf("message %q should use the configured format", err.Error())
	}
	if n := store.Count(Key{UserID: 1, ChatID: 1, Date: "2024-01-15"}); n != 0 {
		t.Errorf("store touched: count = %d", n)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	t.Parallel()

	const limit = 5
	store := NewMemoryStore()
	lim := NewLimiter(store, limit)

	var (
		wg       sync.WaitGroup
		ok       atomic.Int32
		exceeded atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lim.CheckAndIncrement(context.Background(), 9, 9, "2024-01-15")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrQuotaExceeded):
				exceeded.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != limit || exceeded.Load() != 20-limit {
		t.Errorf("ok = %d, exceeded = %d, want %d and %d", ok.Load(), exceeded.Load(), limit, 20-limit)
	}
	if n := store.Count(Key{UserID: 9, ChatID: 9, Date: "2024-01-15"}); n != limit {
		t.Errorf("stored count = %d, want %d", n, limit)
	}
}

func TestLimiter_Reset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lim := NewLimiter(NewMemoryStore(), 1)

	if _, err := lim.CheckAndIncrement(ctx, 1, 1, "2024-01-15"); err != nil {
		t.Fatal(err)
	}
	if err := lim.Reset(ctx, "2024-01-15"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := lim.CheckAndIncrement(ctx, 1, 1, "2024-01-15"); err != nil {
		t.Errorf("after Reset: %v", err)
	}
}

func TestLimiter_TodayAndRemaining(t *testing.T) {
	t.Parallel()

	kyiv := time.FixedZone("EET", 2*60*60)
	lim := NewLimiter(NewMemoryStore(), 10, WithLocation(kyiv))

	now := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)
	if got := lim.Today(now); got != "2024-01-16" {
		t.Errorf("Today() = %s, want 2024-01-16", got)
	}
	if got := lim.Remaining(7); got != 3 {
		t.Errorf("Remaining(7) = %d, want 3", got)
	}
	if got := lim.Remaining(12); got != 0 {
		t.Errorf("Remaining(12) = %d, want 0", got)
	}
}
