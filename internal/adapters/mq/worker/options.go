package worker

import (
	"context"
	"sync/atomic"

	"github.com/okian/coordwatch/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithOnDone registers a hook called after every job, successful or not.
func WithOnDone(fn func(ctx context.Context, res Result)) Option {
	return func(w *InMemoryWorker) {
		w.onDone = fn
	}
}

func withSharedActive(active *atomic.Int64) Option {
	return func(w *InMemoryWorker) {
		w.active = active
	}
}

func withProcessedCounter(processed *atomic.Int64) Option {
	return func(w *InMemoryWorker) {
		prev := w.onDone
		w.onDone = func(ctx context.Context, res Result) {
			processed.Add(1)
			if prev != nil {
				prev(ctx, res)
			}
		}
	}
}
