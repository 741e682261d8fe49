package repository

import "time"

// Option applies a configuration option to the Batch.
type Option func(*Batch)

// WithBatchID sets the identifier of the run.
func WithBatchID(id string) Option {
	return func(b *Batch) {
		if id != "" {
			b.batchID = id
		}
	}
}

// WithStartTime sets the run start time, which is substituted for
// unparsable post timestamps.
func WithStartTime(t time.Time) Option {
	return func(b *Batch) {
		if !t.IsZero() {
			b.startedAt = t.UTC()
		}
	}
}
