package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestNewScanLogger tests log file creation.
func TestNewScanLogger(t *testing.T) {
	t.Parallel()

	t.Run("creates directory and timestamped file", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "logs")
		l, err := NewScanLogger(dir, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer l.Close()

		if !strings.HasSuffix(l.Path(), "_scan.log") {
			t.Errorf("unexpected log path %q", l.Path())
		}
		if filepath.Dir(l.Path()) != dir {
			t.Errorf("expected log in %s, got %s", dir, l.Path())
		}
		if _, err := os.Stat(l.Path()); err != nil {
			t.Errorf("expected log file to exist: %v", err)
		}
	})

	t.Run("empty dir writes console only", func(t *testing.T) {
		t.Parallel()

		var console bytes.Buffer
		l, err := NewScanLogger("", &console)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		l.Info("200 http://example.com/")

		if l.Path() != "" {
			t.Errorf("expected no log path, got %q", l.Path())
		}
		if console.String() != "200 http://example.com/\n" {
			t.Errorf("unexpected console output %q", console.String())
		}
		if err := l.Close(); err != nil {
			t.Errorf("unexpected close error: %v", err)
		}
	})
}

// TestScanLoggerInfo tests that lines reach both sinks.
func TestScanLoggerInfo(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	l, err := NewScanLogger(t.TempDir(), &console)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	l.Info("[DEDUP] 404 http://example.com/b")
	l.Info("200 http://example.com/a")
	if err := l.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	want := "2025-03-04 05:06:07.000 [DEDUP] 404 http://example.com/b\n" +
		"2025-03-04 05:06:07.000 200 http://example.com/a\n"
	if string(data) != want {
		t.Errorf("log file =\n%s\nwant\n%s", data, want)
	}
	if console.String() != "[DEDUP] 404 http://example.com/b\n200 http://example.com/a\n" {
		t.Errorf("unexpected console output %q", console.String())
	}
}

// TestScanLoggerConcurrent tests that concurrent lines are not interleaved.
func TestScanLoggerConcurrent(t *testing.T) {
	t.Parallel()

	l, err := NewScanLogger(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Info("200 http://example.com/concurrent")
		}()
	}
	wg.Wait()
	if err := l.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 50 {
		t.Fatalf("expected 50 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, " 200 http://example.com/concurrent") {
			t.Errorf("malformed line %q", line)
		}
	}
}

// TestScanLoggerCloseTwice tests Close is idempotent.
func TestScanLoggerCloseTwice(t *testing.T) {
	t.Parallel()

	l, err := NewScanLogger(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second close returned %v", err)
	}
	l.Info("after close is dropped")
}
