package scoring

import "errors"

// Scoring errors.
var (
	ErrInvalidWeights    = errors.New("weights must be non-negative and sum to 1")
	ErrInvalidThresholds = errors.New("risk thresholds must satisfy 0 <= low <= medium <= high <= 1")
)
