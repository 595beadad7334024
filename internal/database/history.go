package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "dirscan.db"

// ErrInvalidRunID is returned when a run ID is not a UUID.
var ErrInvalidRunID = errors.New("invalid run ID: expected UUID")

// HistoryDB provides SQLite-based storage for scan runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite: mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per scan run. Times are Unix nanoseconds.
	CREATE TABLE IF NOT EXISTS scan_runs (
		run_id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		method TEXT NOT NULL,
		wordlist TEXT,
		wordlist_fingerprint TEXT,
		workers INTEGER,
		rate_limit INTEGER,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		total INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		duplicates INTEGER NOT NULL,
		report_json TEXT NOT NULL,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON scan_runs(target);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at);

	-- Probe results in word-list order.
	CREATE TABLE IF NOT EXISTS probe_results (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		status INTEGER NOT NULL,
		duplicate INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_probes_url ON probe_results(url);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a complete run and its results in one transaction.
// A report without RunID gets a new UUID, written back into the report.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.ScanReport) error {
	if report.RunID == "" {
		report.RunID = uuid.NewString()
	} else if _, err := uuid.Parse(report.RunID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, report.RunID)
	}

	// Results live in probe_results, where Duplicate and Error survive.
	meta := *report
	meta.Results = nil
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	summary := report.Summary()

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // Rollback after Commit is a no-op

	_, err = tx.ExecContext(ctx, `
	INSERT INTO scan_runs (run_id, target, method, wordlist, wordlist_fingerprint, workers, rate_limit,
		started_at, finished_at, total, errors, duplicates, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID,
		report.Target,
		report.Method,
		report.WordList,
		report.WordListFingerprint,
		report.Workers,
		report.RateLimit,
		report.StartedAt.UnixNano(),
		report.FinishedAt.UnixNano(),
		summary.Total,
		summary.Errors,
		summary.Duplicates,
		string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO probe_results (run_id, position, url, status, duplicate, error)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare probe insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range report.Results {
		if _, err := stmt.ExecContext(ctx, report.RunID, i, r.URL, int(r.Status), r.Duplicate, r.Error); err != nil {
			return fmt.Errorf("failed to save probe result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan run: %w", err)
	}
	return nil
}

// ListTargets returns every target with at least one stored run, sorted.
func (hdb *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT DISTINCT target FROM scan_runs
	ORDER BY target
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying history without loading the results.
type RunMetadata struct {
	// RunID is the UUID of the run.
	RunID string `json:"run_id"`

	// Target is the scanned base URL.
	Target string `json:"target"`

	// Method is GET or HEAD.
	Method string `json:"method"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run finished.
	FinishedAt time.Time `json:"finished_at"`

	// Total, Errors and Duplicates are the run's counters.
	Total      int `json:"total"`
	Errors     int `json:"errors"`
	Duplicates int `json:"duplicates"`

	// RecordedAt is when the row was written.
	RecordedAt time.Time `json:"recorded_at"`
}

// GetRunHistory returns metadata for every run of target, newest first.
func (hdb *HistoryDB) GetRunHistory(ctx context.Context, target string) ([]RunMetadata, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT run_id, target, method, started_at, finished_at, total, errors, duplicates, recorded_at
	FROM scan_runs
	WHERE target = ?
	ORDER BY started_at DESC
	`, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var history []RunMetadata
	for rows.Next() {
		var (
			meta              RunMetadata
			started, finished int64
			recorded          string
		)
		if err := rows.Scan(&meta.RunID, &meta.Target, &meta.Method, &started, &finished,
			&meta.Total, &meta.Errors, &meta.Duplicates, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}
		meta.StartedAt = time.Unix(0, started)
		meta.FinishedAt = time.Unix(0, finished)
		meta.RecordedAt = parseTimestamp(recorded)
		history = append(history, meta)
	}

	return history, rows.Err()
}

// GetRun loads a run with its results. It returns nil, nil when the run
// does not exist.
func (hdb *HistoryDB) GetRun(ctx context.Context, runID string) (*model.ScanReport, error) {
	var metaJSON string
	err := hdb.db.QueryRowContext(ctx, `
	SELECT report_json FROM scan_runs
	WHERE run_id = ?
	`, runID).Scan(&metaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan run: %w", err)
	}

	var report model.ScanReport
	if err := json.Unmarshal([]byte(metaJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse scan run: %w", err)
	}

	results, err := hdb.getResults(ctx, runID)
	if err != nil {
		return nil, err
	}
	report.Results = results

	return &report, nil
}

// getResults loads the probe results of a run in word-list order.
func (hdb *HistoryDB) getResults(ctx context.Context, runID string) ([]model.Result, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT url, status, duplicate, error
	FROM probe_results
	WHERE run_id = ?
	ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get probe results: %w", err)
	}
	defer rows.Close()

	results := make([]model.Result, 0)
	for rows.Next() {
		var (
			r      model.Result
			status int
			errMsg sql.NullString
		)
		if err := rows.Scan(&r.URL, &status, &r.Duplicate, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan probe result: %w", err)
		}
		r.Status = model.Status(status)
		r.Error = errMsg.String
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetLatestRuns loads up to n runs of target with their results, newest first.
func (hdb *HistoryDB) GetLatestRuns(ctx context.Context, target string, n int) ([]*model.ScanReport, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := hdb.db.QueryContext(ctx, `
	SELECT run_id FROM scan_runs
	WHERE target = ?
	ORDER BY started_at DESC
	LIMIT ?
	`, target, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest runs: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan run ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// The single connection must be free before GetRun queries again.
	_ = rows.Close()

	reports := make([]*model.ScanReport, 0, len(ids))
	for _, id := range ids {
		report, err := hdb.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		if report != nil {
			reports = append(reports, report)
		}
	}

	return reports, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
