package model

import (
	"encoding/json"
	"errors"
	"strconv"
)

// StatusError is the sentinel status for a probe that never received an
// HTTP response (timeout, connection refused, DNS or TLS failure).
const StatusError Status = -1

// statusErrorText is how StatusError is rendered in reports.
const statusErrorText = "error"

// Status is the outcome of a single probe.
// Non-negative values are HTTP status codes; StatusError marks a transport failure.
type Status int

// IsError reports whether the status is the transport error sentinel.
func (s Status) IsError() bool {
	return s == StatusError
}

// String renders the status code, or "error" for the sentinel.
func (s Status) String() string {
	if s.IsError() {
		return statusErrorText
	}
	return strconv.Itoa(int(s))
}

// MarshalJSON encodes HTTP codes as numbers and the sentinel as the string "error".
func (s Status) MarshalJSON() ([]byte, error) {
	if s.IsError() {
		return json.Marshal(statusErrorText)
	}
	return []byte(strconv.Itoa(int(s))), nil
}

// UnmarshalJSON accepts either form produced by MarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if text != statusErrorText {
			return errors.New("invalid status: " + text)
		}
		*s = StatusError
		return nil
	}

	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	*s = Status(code)
	return nil
}

// Result is the record produced for one candidate path.
// Only URL and Status belong to the serialized record; the other fields
// travel alongside for logging, filtering and history storage.
type Result struct {
	// URL is the full probed URL (base URL + candidate path).
	URL string `json:"url"`

	// Status is the HTTP status code or StatusError.
	Status Status `json:"status"`

	// Duplicate is true when the response body was classified as an exact or
	// near duplicate of an earlier body. Only GET probes can be duplicates.
	Duplicate bool `json:"-"`

	// Error holds the transport error message when Status is StatusError.
	Error string `json:"-"`
}

// NewErrorResult builds the record for a probe that failed before a response arrived.
func NewErrorResult(url string, err error) Result {
	r := Result{URL: url, Status: StatusError}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
