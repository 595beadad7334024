package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and ParseHeaders().
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no base URL is specified.
	ErrNoTarget = errors.New("no target specified: provide a base URL with --url")

	// ErrInvalidTarget is returned when the base URL is not an absolute
	// http or https URL.
	ErrInvalidTarget = errors.New("invalid target: base URL must be an absolute http or https URL")

	// ErrNoWordList is returned when the word list path is empty.
	ErrNoWordList = errors.New("no word list specified")

	// ErrInvalidMethod is returned when the method is neither GET nor HEAD
	// (case-insensitive).
	ErrInvalidMethod = errors.New("invalid method: must be GET or HEAD")

	// ErrInvalidWorkers is returned when the worker count is outside 1..50.
	ErrInvalidWorkers = errors.New("invalid thread count: must be between 1 and 50")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidFormat is returned for an unknown output format.
	ErrInvalidFormat = errors.New("invalid output format: must be json, sarif or markdown")

	// ErrNoOutputPath is returned when the output path is empty.
	ErrNoOutputPath = errors.New("no output path specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidThreshold is returned when the similarity threshold is
	// outside (0, 1].
	ErrInvalidThreshold = errors.New("invalid threshold: must be greater than 0 and at most 1")

	// ErrInvalidMaxSamples is returned when the sample cap is negative.
	ErrInvalidMaxSamples = errors.New("invalid max samples: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingProxy is returned when both --proxy and --tor are set.
	ErrConflictingProxy = errors.New("conflicting transports: --proxy and --tor cannot be used together")

	// ErrInvalidHeader is returned for a header that is not "Name: value".
	ErrInvalidHeader = errors.New("invalid header: expected \"Name: value\"")

	// ErrInvalidProfile is returned when a profile in the config file
	// carries an out-of-range rate or thread count.
	ErrInvalidProfile = errors.New("invalid profile")
)
