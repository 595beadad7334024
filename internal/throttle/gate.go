package throttle

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// MaxCapacity is the largest number of concurrent requests a Gate admits.
const MaxCapacity = 50

// Gate is a counting admission gate: at most Capacity callers hold a permit at once.
//
// Design decision: We build on golang.org/x/sync/semaphore rather than a
// buffered channel because the weighted semaphore is FIFO, so waiters are
// admitted in the order the dispatcher queued them.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int
	inFlight atomic.Int64
}

// NewGate creates a Gate with the given capacity (1..MaxCapacity).
func NewGate(capacity int) (*Gate, error) {
	if capacity < 1 || capacity > MaxCapacity {
		return nil, ErrInvalidCapacity
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}, nil
}

// Acquire blocks until a permit is free or ctx ends.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.inFlight.Add(1)
	return nil
}

// Release returns a permit. Every successful Acquire must be paired with
// exactly one Release, normally via defer.
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	g.sem.Release(1)
}

// Capacity returns the maximum number of concurrent permits.
func (g *Gate) Capacity() int {
	return g.capacity
}

// InFlight returns the number of permits currently held.
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}
