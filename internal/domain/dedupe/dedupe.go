// Package dedupe tracks batch ids already accepted for analysis.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxSize is the number of batch ids remembered when no size is configured.
const DefaultMaxSize = 50000

// Deduper records seen batch ids to ensure at-most-once analysis.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the batch can be resubmitted, e.g. after the
	// queue refused it.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps ids in a bounded LRU, or in a plain map when unbounded.
type inMemoryDeduper struct {
	maxSize int
	onEvict func(id string)

	cache *lru.Cache[string, struct{}]

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}

	if d.maxSize <= 0 {
		d.seen = make(map[string]struct{})
		return d
	}

	evict := func(id string, _ struct{}) {
		if d.onEvict != nil {
			d.onEvict(id)
		}
	}
	// NewWithEvict only fails on a non-positive size.
	cache, err := lru.NewWithEvict[string, struct{}](d.maxSize, evict)
	if err != nil {
		panic(err)
	}
	d.cache = cache
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if d.cache != nil {
		seen, _ := d.cache.ContainsOrAdd(id, struct{}{})
		return seen
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	if d.cache != nil {
		d.cache.Remove(id)
		return
	}
	d.mu.Lock()
	delete(d.seen, id)
	d.mu.Unlock()
}

// Size returns the current number of remembered ids.
func (d *inMemoryDeduper) Size() int64 {
	if d.cache != nil {
		return int64(d.cache.Len())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
