package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
	"golang.org/x/sync/errgroup"
)

// Fetcher probes a single candidate path.
// Implementations must not return errors; failures are encoded in the result.
type Fetcher interface {
	Fetch(ctx context.Context, path string) model.Result
}

// Limiter hands out start permits at a fixed rate.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Gate bounds the number of probes in flight.
type Gate interface {
	Acquire(ctx context.Context) error
	Release()
}

// ProgressFunc is called after each probe with the number of completed probes
// and the total. Calls are serialized.
type ProgressFunc func(done, total int)

// Orchestrator schedules probes over a word list.
type Orchestrator struct {
	fetcher Fetcher
	limiter Limiter
	gate    Gate

	logger   *slog.Logger
	progress ProgressFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger for scan-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// New creates an Orchestrator.
func New(fetcher Fetcher, limiter Limiter, gate Gate, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher: fetcher,
		limiter: limiter,
		gate:    gate,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Run probes every path and returns the results at the paths' indices.
//
// If ctx is cancelled, dispatch stops, in-flight probes are awaited and the
// context error is returned together with the results gathered so far. Paths
// never dispatched keep a zero Result.
func (o *Orchestrator) Run(ctx context.Context, paths []string) ([]model.Result, error) {
	o.logger.Info("starting scan", "paths", len(paths))
	startTime := time.Now()

	// Pre-allocate so each goroutine owns exactly one slot.
	results := make([]model.Result, len(paths))

	var (
		g           errgroup.Group
		progressMu  sync.Mutex
		done        int
		dispatchErr error
	)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			dispatchErr = err
			break
		}
		if err := o.limiter.Acquire(ctx); err != nil {
			dispatchErr = err
			break
		}
		if err := o.gate.Acquire(ctx); err != nil {
			dispatchErr = err
			break
		}

		g.Go(func() error {
			defer o.gate.Release()

			results[i] = o.fetcher.Fetch(ctx, path)

			if o.progress != nil {
				progressMu.Lock()
				done++
				o.progress(done, len(paths))
				progressMu.Unlock()
			}
			return nil
		})
	}

	// Probes never return errors.
	_ = g.Wait() //nolint:errcheck

	elapsed := time.Since(startTime)
	if dispatchErr != nil {
		o.logger.Warn("scan interrupted",
			"paths", len(paths),
			"elapsed", elapsed,
			"error", dispatchErr,
		)
		return results, fmt.Errorf("scan interrupted: %w", dispatchErr)
	}

	o.logger.Info("scan complete",
		"paths", len(paths),
		"elapsed", elapsed,
	)
	return results, nil
}
