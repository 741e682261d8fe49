package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of ids to keep in memory.
// If maxSize > 0 the least recently seen id is evicted first.
// If maxSize <= 0 the deduper is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithEvictCallback is invoked for every id dropped to make room.
func WithEvictCallback(fn func(id string)) Option {
	return func(d *inMemoryDeduper) {
		d.onEvict = fn
	}
}
