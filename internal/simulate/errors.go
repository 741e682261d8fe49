package simulate

import "errors"

var (
	// ErrInvalidConfig is returned when the run configuration cannot produce batches.
	ErrInvalidConfig = errors.New("invalid simulation config")
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrMismatch is returned when at least one verdict disagrees with the batch kind.
	ErrMismatch = errors.New("verdict mismatch")
)
