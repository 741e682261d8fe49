// Package repository holds the per-run Data Store and the bounded store of
// finished reports.
package repository

import (
	"context"

	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/types"
)

// Store is the Data Store of one analysis run. It is populated once and then
// frozen into a Snapshot before any analyzer starts.
type Store interface {
	// AddUser registers an account with its posts and interactions. Re-adding
	// an id overwrites the previous registration.
	AddUser(ctx context.Context, userID string, profile model.ProfileInput, posts []model.PostInput, interactions []model.Interaction) error

	// Snapshot returns a deep copy of the current contents.
	Snapshot(ctx context.Context) model.Snapshot

	// UserCount returns the number of registered users.
	UserCount(ctx context.Context) int
}

// ResultStore keeps finished reports for later retrieval by batch id.
type ResultStore interface {
	Save(ctx context.Context, report types.Report) error
	// Get returns ErrNotFound for unknown or evicted batch ids.
	Get(ctx context.Context, batchID string) (types.Report, error)
	Count(ctx context.Context) int
}
