package throttle

import "errors"

var (
	// ErrNegativeRate is returned when a Limiter is created with a negative rate.
	ErrNegativeRate = errors.New("invalid rate: must be non-negative")

	// ErrInvalidCapacity is returned when a Gate capacity is outside 1..MaxCapacity.
	ErrInvalidCapacity = errors.New("invalid gate capacity: must be between 1 and 50")
)
