package fetcher

import "errors"

var (
	// ErrUnsupportedMethod is returned when the method is neither GET nor HEAD.
	ErrUnsupportedMethod = errors.New("unsupported method: must be GET or HEAD")

	// ErrInvalidBaseURL is returned when the base URL has no scheme or host.
	ErrInvalidBaseURL = errors.New("invalid base URL: expected scheme and host")
)
