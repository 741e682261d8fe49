package service

import (
	"errors"

	"github.com/okian/coordwatch/internal/domain/types"
)

// ErrNotStarted is returned by every operation before Start.
var ErrNotStarted = errors.New("service not started")

// Errors re-exported from types so callers need a single import.
var (
	ErrInvalidBatch   = types.ErrInvalidBatch
	ErrTooManyUsers   = types.ErrTooManyUsers
	ErrQueueFull      = types.ErrQueueFull
	ErrNotFound       = types.ErrNotFound
	ErrPending        = types.ErrPending
	ErrAnalysisFailed = types.ErrAnalysisFailed
)
