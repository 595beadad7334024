package throttle

import (
	"context"
	"sync"
	"time"
)

// refillInterval is the length of one rate window.
const refillInterval = time.Second

// Limiter hands out at most rate tokens per refill window.
//
// A supply goroutine deposits rate tokens into a channel of capacity rate and
// then sleeps for one window. Depositing blocks while the channel is full, so
// consumers never see more than rate tokens between two refills.
// A rate of 0 disables throttling: Acquire returns immediately and no supply
// goroutine is started.
type Limiter struct {
	rate   int
	tokens chan struct{}

	// interval is the refill window; tests may shorten it.
	interval time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a Limiter issuing rate tokens per second and starts its
// supply goroutine. Call Stop when the limiter is no longer needed.
func NewLimiter(rate int) (*Limiter, error) {
	return newLimiter(rate, refillInterval)
}

func newLimiter(rate int, interval time.Duration) (*Limiter, error) {
	if rate < 0 {
		return nil, ErrNegativeRate
	}

	l := &Limiter{
		rate:     rate,
		interval: interval,
		done:     make(chan struct{}),
	}
	if rate == 0 {
		return l, nil
	}

	l.tokens = make(chan struct{}, rate)
	go l.supply()

	return l, nil
}

// supply refills the token channel once per interval until Stop is called.
func (l *Limiter) supply() {
	for {
		for range l.rate {
			select {
			case l.tokens <- struct{}{}:
			case <-l.done:
				return
			}
		}

		select {
		case <-time.After(l.interval):
		case <-l.done:
			return
		}
	}
}

// Acquire blocks until a token is available.
// It only fails when ctx ends first, returning ctx.Err().
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.Unlimited() {
		return nil
	}

	select {
	case <-l.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rate returns the configured tokens per second.
func (l *Limiter) Rate() int {
	return l.rate
}

// Unlimited reports whether the limiter performs no throttling.
func (l *Limiter) Unlimited() bool {
	return l.rate == 0
}

// Stop terminates the supply goroutine. It is safe to call Stop more than once.
// Tokens already in the channel can still be acquired after Stop.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}
