package types

import "errors"

// Errors shared between the service and its transports.
var (
	ErrInvalidBatch   = errors.New("invalid batch")
	ErrTooManyUsers   = errors.New("batch exceeds the user limit")
	ErrQueueFull      = errors.New("analysis queue is full")
	ErrNotFound       = errors.New("assessment not found")
	ErrPending        = errors.New("assessment pending")
	ErrAnalysisFailed = errors.New("analysis failed")
)

// Submission describes the outcome of an asynchronous submit.
type Submission struct {
	BatchID   string `json:"batch_id"`
	Duplicate bool   `json:"duplicate"`
	Users     int    `json:"users"`
	Posts     int    `json:"posts"`
}
