package pipeline

import "errors"

// Pipeline errors.
var (
	// ErrAnalysisAborted wraps the context error of a run that did not finish.
	ErrAnalysisAborted = errors.New("analysis aborted")
	ErrStagePanic      = errors.New("stage panicked")
)
