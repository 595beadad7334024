package model

import (
	"time"
)

// ScanReport is a complete scan run: the parameters it ran with and the
// ordered result list.
//
// Design decision: We keep run metadata and results in one struct so the
// whole run can be serialized into the history database in a single column
// and rendered by any report writer without extra lookups.
type ScanReport struct {
	// RunID uniquely identifies this run (UUID).
	RunID string `json:"run_id"`

	// Target is the base URL that was scanned.
	Target string `json:"target"`

	// Method is the HTTP method used for every probe (GET or HEAD).
	Method string `json:"method"`

	// WordList is the path of the word list file.
	WordList string `json:"wordlist"`

	// WordListFingerprint is a digest of the loaded candidate paths, so runs
	// using the same list can be recognized in history.
	WordListFingerprint string `json:"wordlist_fingerprint,omitempty"`

	// Workers is the concurrency limit the run used.
	Workers int `json:"workers"`

	// RateLimit is the requests-per-second limit the run used (0 = unlimited).
	RateLimit int `json:"rate_limit"`

	// StartedAt is when scheduling began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last probe completed.
	FinishedAt time.Time `json:"finished_at"`

	// Results are the probe results in word-list order.
	Results []Result `json:"results"`
}

// NewScanReport creates an empty report for the given target.
func NewScanReport(runID, target, method string) *ScanReport {
	return &ScanReport{
		RunID:     runID,
		Target:    target,
		Method:    method,
		StartedAt: time.Now(),
		Results:   make([]Result, 0),
	}
}

// Summary holds counters derived from the results.
type Summary struct {
	// Total is the number of probes.
	Total int `json:"total"`

	// Errors is the number of probes that ended with StatusError.
	Errors int `json:"errors"`

	// Duplicates is the number of probes whose body was a duplicate.
	Duplicates int `json:"duplicates"`

	// ByStatus counts results per status code. The error sentinel is not included.
	ByStatus map[int]int `json:"by_status"`
}

// Summary computes counters over the report's results.
func (r *ScanReport) Summary() Summary {
	s := Summary{
		Total:    len(r.Results),
		ByStatus: make(map[int]int),
	}
	for _, res := range r.Results {
		if res.Status.IsError() {
			s.Errors++
			continue
		}
		if res.Duplicate {
			s.Duplicates++
		}
		s.ByStatus[int(res.Status)]++
	}
	return s
}

// Duration returns how long the run took.
func (r *ScanReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// WithoutDuplicates returns the results with duplicate-flagged records removed,
// preserving order.
func (r *ScanReport) WithoutDuplicates() []Result {
	filtered := make([]Result, 0, len(r.Results))
	for _, res := range r.Results {
		if !res.Duplicate {
			filtered = append(filtered, res)
		}
	}
	return filtered
}
