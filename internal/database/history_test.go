package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// newTestRun creates a finished run for target started at start.
func newTestRun(target string, start time.Time, statuses ...model.Status) *model.ScanReport {
	report := model.NewScanReport(uuid.NewString(), target, "GET")
	report.StartedAt = start
	report.FinishedAt = start.Add(2 * time.Second)
	report.WordList = "default.txt"
	report.WordListFingerprint = "abc123"
	report.Workers = 10
	report.RateLimit = 100
	for i, s := range statuses {
		r := model.Result{URL: target + "/p" + string(rune('a'+i)), Status: s}
		if s.IsError() {
			r.Error = "connection refused"
		}
		report.Results = append(report.Results, r)
	}
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %s", db.Path())
		}
		if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")

		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("unexpected error %q", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		ctx := context.Background()

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		run := newTestRun("http://example.com", time.Now(), 200)
		if err := db1.SaveRun(ctx, run); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db2.Close()

		got, err := db2.GetRun(ctx, run.RunID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got == nil {
			t.Error("expected run to persist")
		}
	})
}

// TestDefaultOptions tests the default options values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

// TestSaveAndGetRun tests the round trip of a run.
func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	t.Run("results keep order, duplicates and errors", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		run := newTestRun("http://example.com", time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC), 200, 404, model.StatusError)
		run.Results[1].Duplicate = true
		if err := db.SaveRun(ctx, run); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		got, err := db.GetRun(ctx, run.RunID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got == nil {
			t.Fatal("expected run")
		}

		if got.Target != run.Target || got.Method != "GET" || got.WordListFingerprint != "abc123" {
			t.Errorf("unexpected metadata %+v", got)
		}
		if !got.StartedAt.Equal(run.StartedAt) || !got.FinishedAt.Equal(run.FinishedAt) {
			t.Errorf("times changed: %v-%v", got.StartedAt, got.FinishedAt)
		}
		if len(got.Results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(got.Results))
		}
		for i := range run.Results {
			if got.Results[i] != run.Results[i] {
				t.Errorf("result %d = %+v, want %+v", i, got.Results[i], run.Results[i])
			}
		}
	})

	t.Run("assigns run ID when empty", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		run := newTestRun("http://example.com", time.Now(), 200)
		run.RunID = ""

		if err := db.SaveRun(context.Background(), run); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		if _, err := uuid.Parse(run.RunID); err != nil {
			t.Errorf("expected UUID run ID, got %q", run.RunID)
		}
	})

	t.Run("rejects non UUID run ID", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		run := newTestRun("http://example.com", time.Now(), 200)
		run.RunID = "not-a-uuid"

		if err := db.SaveRun(context.Background(), run); !errors.Is(err, ErrInvalidRunID) {
			t.Errorf("expected ErrInvalidRunID, got %v", err)
		}
	})

	t.Run("rejects duplicate run ID", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		run := newTestRun("http://example.com", time.Now(), 200)
		if err := db.SaveRun(context.Background(), run); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		if err := db.SaveRun(context.Background(), run); err == nil {
			t.Error("expected error saving the same run twice")
		}

		got, err := db.GetRun(context.Background(), run.RunID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if len(got.Results) != 1 {
			t.Errorf("failed save must not add results, got %d", len(got.Results))
		}
	})

	t.Run("returns nil for unknown run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		got, err := db.GetRun(context.Background(), uuid.NewString())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("empty run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		run := newTestRun("http://example.com", time.Now())
		if err := db.SaveRun(context.Background(), run); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		got, err := db.GetRun(context.Background(), run.RunID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Results == nil || len(got.Results) != 0 {
			t.Errorf("expected empty non-nil results, got %#v", got.Results)
		}
	})
}

// TestListTargets tests target listing.
func TestListTargets(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	targets, err := db.ListTargets(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("expected no targets, got %v", targets)
	}

	now := time.Now()
	for _, target := range []string{"http://b.example", "http://a.example", "http://b.example"} {
		if err := db.SaveRun(ctx, newTestRun(target, now, 200)); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}

	targets, err = db.ListTargets(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 2 || targets[0] != "http://a.example" || targets[1] != "http://b.example" {
		t.Errorf("unexpected targets %v", targets)
	}
}

// TestGetRunHistory tests run metadata listing.
func TestGetRunHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	history, err := db.GetRunHistory(ctx, "http://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d", len(history))
	}

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	older := newTestRun("http://example.com", base, 200, 404)
	newer := newTestRun("http://example.com", base.Add(time.Hour), 200, model.StatusError, 404)
	newer.Results[2].Duplicate = true
	other := newTestRun("http://other.example", base, 500)
	for _, r := range []*model.ScanReport{older, newer, other} {
		if err := db.SaveRun(ctx, r); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}

	history, err = db.GetRunHistory(ctx, "http://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(history))
	}
	if history[0].RunID != newer.RunID || history[1].RunID != older.RunID {
		t.Errorf("expected newest first, got %s then %s", history[0].RunID, history[1].RunID)
	}
	if history[0].Total != 3 || history[0].Errors != 1 || history[0].Duplicates != 1 {
		t.Errorf("unexpected counters %+v", history[0])
	}
	if !history[0].StartedAt.Equal(newer.StartedAt) {
		t.Errorf("unexpected start %v", history[0].StartedAt)
	}
}

// TestGetLatestRuns tests loading recent runs with results.
func TestGetLatestRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var runs []*model.ScanReport
	for i := range 3 {
		run := newTestRun("http://example.com", base.Add(time.Duration(i)*time.Minute), model.Status(200+i))
		if err := db.SaveRun(ctx, run); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		runs = append(runs, run)
	}

	latest, err := db.GetLatestRuns(ctx, "http://example.com", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(latest))
	}
	if latest[0].RunID != runs[2].RunID || latest[1].RunID != runs[1].RunID {
		t.Error("expected newest runs first")
	}
	if latest[0].Results[0].Status != 202 {
		t.Errorf("expected results to be loaded, got %+v", latest[0].Results)
	}

	none, err := db.GetLatestRuns(ctx, "http://example.com", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no runs for n=0, got %d", len(none))
	}
}

// TestParseTimestamp tests SQLite timestamp parsing.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{input: "2025-01-02 03:04:05", want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{input: "2025-01-02T03:04:05Z", want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{input: "garbage", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
