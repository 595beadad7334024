package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sec-toolkit/dirscan-toolkit/internal/fetcher"
	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
	"github.com/sec-toolkit/dirscan-toolkit/internal/throttle"
)

// fetchFunc adapts a function to the Fetcher interface.
type fetchFunc func(ctx context.Context, path string) model.Result

func (f fetchFunc) Fetch(ctx context.Context, path string) model.Result {
	return f(ctx, path)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newThrottle(t *testing.T, rate, workers int) (*throttle.Limiter, *throttle.Gate) {
	t.Helper()

	limiter, err := throttle.NewLimiter(rate)
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}
	t.Cleanup(limiter.Stop)

	gate, err := throttle.NewGate(workers)
	if err != nil {
		t.Fatalf("failed to create gate: %v", err)
	}
	return limiter, gate
}

func makePaths(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("/path-%d", i)
	}
	return paths
}

// TestRunPreservesOrder tests that results land at their input index.
func TestRunPreservesOrder(t *testing.T) {
	t.Parallel()

	limiter, gate := newThrottle(t, 0, 10)
	f := fetchFunc(func(_ context.Context, path string) model.Result {
		time.Sleep(time.Duration(rand.IntN(3000)) * time.Microsecond)
		return model.Result{URL: "http://example.com" + path, Status: http.StatusOK}
	})

	paths := makePaths(100)
	results, err := New(f, limiter, gate, WithLogger(quietLogger())).Run(context.Background(), paths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, r := range results {
		if want := "http://example.com" + paths[i]; r.URL != want {
			t.Errorf("results[%d].URL = %q, want %q", i, r.URL, want)
		}
	}
}

// TestRunBoundsConcurrency tests that in-flight probes never exceed the gate capacity.
func TestRunBoundsConcurrency(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{1, 5, 50} {
		t.Run(fmt.Sprintf("workers %d", workers), func(t *testing.T) {
			t.Parallel()

			limiter, gate := newThrottle(t, 0, workers)

			var current, peak atomic.Int64
			f := fetchFunc(func(_ context.Context, path string) model.Result {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				current.Add(-1)
				return model.Result{URL: path, Status: http.StatusNotFound}
			})

			results, err := New(f, limiter, gate, WithLogger(quietLogger())).Run(context.Background(), makePaths(200))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(results) != 200 {
				t.Fatalf("expected 200 results, got %d", len(results))
			}
			if got := peak.Load(); got > int64(workers) {
				t.Errorf("peak concurrency %d exceeds %d", got, workers)
			}
			if gate.InFlight() != 0 {
				t.Errorf("expected all permits released, %d still held", gate.InFlight())
			}
		})
	}
}

// TestRunEmpty tests an empty word list.
func TestRunEmpty(t *testing.T) {
	t.Parallel()

	limiter, gate := newThrottle(t, 0, 1)
	f := fetchFunc(func(context.Context, string) model.Result {
		t.Error("fetcher must not be called")
		return model.Result{}
	})

	results, err := New(f, limiter, gate, WithLogger(quietLogger())).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

// TestRunProgress tests the progress callback.
func TestRunProgress(t *testing.T) {
	t.Parallel()

	limiter, gate := newThrottle(t, 0, 4)
	f := fetchFunc(func(_ context.Context, path string) model.Result {
		return model.Result{URL: path, Status: http.StatusOK}
	})

	var mu sync.Mutex
	var calls []int
	progress := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 20 {
			t.Errorf("expected total 20, got %d", total)
		}
		calls = append(calls, done)
	}

	if _, err := New(f, limiter, gate, WithLogger(quietLogger()), WithProgress(progress)).
		Run(context.Background(), makePaths(20)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 20 {
		t.Fatalf("expected 20 progress calls, got %d", len(calls))
	}
	for i, done := range calls {
		if done != i+1 {
			t.Errorf("call %d reported done=%d", i, done)
		}
	}
}

// TestRunCancelled tests that cancellation is the only error path.
func TestRunCancelled(t *testing.T) {
	t.Parallel()

	t.Run("cancelled before start", func(t *testing.T) {
		t.Parallel()

		limiter, gate := newThrottle(t, 0, 2)
		var calls atomic.Int32
		f := fetchFunc(func(_ context.Context, path string) model.Result {
			calls.Add(1)
			return model.Result{URL: path, Status: http.StatusOK}
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results, err := New(f, limiter, gate, WithLogger(quietLogger())).Run(ctx, makePaths(5))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(results) != 5 {
			t.Errorf("expected result slots for every path, got %d", len(results))
		}
		if calls.Load() != 0 {
			t.Errorf("expected no probes, got %d", calls.Load())
		}
	})

	t.Run("cancelled while waiting for tokens", func(t *testing.T) {
		t.Parallel()

		limiter, gate := newThrottle(t, 1, 2)
		f := fetchFunc(func(_ context.Context, path string) model.Result {
			return model.Result{URL: path, Status: http.StatusOK}
		})

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := New(f, limiter, gate, WithLogger(quietLogger())).Run(ctx, makePaths(50))
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected context.DeadlineExceeded, got %v", err)
		}
		if gate.InFlight() != 0 {
			t.Errorf("expected all permits released, %d still held", gate.InFlight())
		}
	})
}

// TestRunEndToEnd tests the scan against a live HTTP server.
func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>catch-all page</body></html>"))
	}))
	// Parallel subtests run after this function returns.
	t.Cleanup(server.Close)

	t.Run("duplicates are retained and flagged", func(t *testing.T) {
		t.Parallel()

		limiter, gate := newThrottle(t, 0, 1)
		f, err := fetcher.New(fetcher.NewHTTPClient(5*time.Second), server.URL, http.MethodGet)
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		results, err := New(f, limiter, gate, WithLogger(quietLogger())).
			Run(context.Background(), []string{"/a", "/b", "/a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []struct {
			url       string
			duplicate bool
		}{
			{url: server.URL + "/a", duplicate: false},
			{url: server.URL + "/b", duplicate: true},
			{url: server.URL + "/a", duplicate: true},
		}
		if len(results) != len(want) {
			t.Fatalf("expected %d results, got %d", len(want), len(results))
		}
		for i, w := range want {
			if results[i].URL != w.url || results[i].Status != http.StatusOK {
				t.Errorf("results[%d] = %+v, want %s 200", i, results[i], w.url)
			}
			if results[i].Duplicate != w.duplicate {
				t.Errorf("results[%d].Duplicate = %v, want %v", i, results[i].Duplicate, w.duplicate)
			}
		}
	})

	t.Run("first body wins under concurrency", func(t *testing.T) {
		t.Parallel()

		limiter, gate := newThrottle(t, 0, 3)
		f, err := fetcher.New(fetcher.NewHTTPClient(5*time.Second), server.URL, http.MethodGet)
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		results, err := New(f, limiter, gate, WithLogger(quietLogger())).
			Run(context.Background(), []string{"/a", "/b", "/a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var duplicates int
		for _, r := range results {
			if r.Status != http.StatusOK {
				t.Errorf("expected 200, got %v", r.Status)
			}
			if r.Duplicate {
				duplicates++
			}
		}
		if duplicates != 2 {
			t.Errorf("expected exactly 2 duplicates, got %d", duplicates)
		}
	})
}

// TestRunConnectionFailure tests that one failing path does not affect others.
func TestRunConnectionFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/drop" {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	limiter, gate := newThrottle(t, 0, 2)
	f, err := fetcher.New(fetcher.NewHTTPClient(5*time.Second), server.URL, http.MethodHead)
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	results, err := New(f, limiter, gate, WithLogger(quietLogger())).
		Run(context.Background(), []string{"/x", "/drop", "/y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStatus := []model.Status{http.StatusNotFound, model.StatusError, http.StatusNotFound}
	for i, want := range wantStatus {
		if results[i].Status != want {
			t.Errorf("results[%d].Status = %v, want %v", i, results[i].Status, want)
		}
	}
}
