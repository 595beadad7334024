package throttle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// TestNewLimiter tests limiter construction.
func TestNewLimiter(t *testing.T) {
	t.Parallel()

	t.Run("rejects negative rate", func(t *testing.T) {
		t.Parallel()

		_, err := NewLimiter(-1)
		if !errors.Is(err, ErrNegativeRate) {
			t.Errorf("expected ErrNegativeRate, got %v", err)
		}
	})

	t.Run("zero rate is unlimited", func(t *testing.T) {
		t.Parallel()

		l, err := NewLimiter(0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer l.Stop()

		if !l.Unlimited() {
			t.Error("expected unlimited limiter")
		}
		if l.Rate() != 0 {
			t.Errorf("expected rate 0, got %d", l.Rate())
		}
	})

	t.Run("positive rate is limited", func(t *testing.T) {
		t.Parallel()

		l, err := NewLimiter(10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer l.Stop()

		if l.Unlimited() {
			t.Error("expected limited limiter")
		}
	})
}

// TestLimiterUnlimitedDoesNotBlock tests that rate 0 never throttles.
func TestLimiterUnlimitedDoesNotBlock(t *testing.T) {
	t.Parallel()

	l, err := NewLimiter(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Stop()

	start := time.Now()
	for range 10000 {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("unlimited acquisitions took too long: %v", elapsed)
	}
}

// TestLimiterWindowBound tests that no more than rate tokens are handed out per window.
func TestLimiterWindowBound(t *testing.T) {
	t.Parallel()

	const (
		rate     = 3
		interval = 200 * time.Millisecond
		total    = 9
	)

	l, err := newLimiter(rate, interval)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Stop()

	start := time.Now()
	stamps := make([]time.Duration, 0, total)
	for range total {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stamps = append(stamps, time.Since(start))
	}

	var firstWindow int
	for _, s := range stamps {
		if s < interval-50*time.Millisecond {
			firstWindow++
		}
	}
	if firstWindow > rate {
		t.Errorf("expected at most %d tokens in the first window, got %d (%v)", rate, firstWindow, stamps)
	}

	// 9 tokens at 3 per window need at least two refills.
	if last := stamps[total-1]; last < 2*interval-50*time.Millisecond {
		t.Errorf("expected last token after ~%v, got %v", 2*interval, last)
	}
}

// TestLimiterOneSecondWindow tests the real one-second refill.
func TestLimiterOneSecondWindow(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping one-second window test in short mode")
	}

	l, err := NewLimiter(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Stop()

	start := time.Now()
	for range 3 {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("third token with rate 2 arrived after %v, expected about one second", elapsed)
	}
}

// TestLimiterConcurrentConsumers tests that tokens are shared fairly between goroutines.
func TestLimiterConcurrentConsumers(t *testing.T) {
	t.Parallel()

	l, err := newLimiter(4, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	stamps := make([]time.Duration, 0, 8)
	start := time.Now()

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Since(start))
			mu.Unlock()
		}()
	}
	wg.Wait()

	var early int
	for _, s := range stamps {
		if s < 60*time.Millisecond {
			early++
		}
	}
	if early > 4 {
		t.Errorf("expected at most 4 tokens before the first refill, got %d", early)
	}
}

// TestLimiterAcquireCancelled tests that a cancelled context unblocks Acquire.
func TestLimiterAcquireCancelled(t *testing.T) {
	t.Parallel()

	l, err := newLimiter(1, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Stop()

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

// TestLimiterStopIsIdempotent tests that Stop can be called repeatedly.
func TestLimiterStopIsIdempotent(t *testing.T) {
	t.Parallel()

	l, err := NewLimiter(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Stop()
	l.Stop()
}
