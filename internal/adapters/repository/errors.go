package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("assessment not found")
	ErrMissingUserID = errors.New("user id is required")
	ErrMissingBatch  = errors.New("batch id is required")
	ErrInvalidSize   = errors.New("invalid cache size")
)
