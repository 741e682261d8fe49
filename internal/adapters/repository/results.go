package repository

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/coordwatch/internal/domain/types"
	"github.com/okian/coordwatch/pkg/metrics"
)

// Default result store configuration constants.
const defaultResultCacheSize = 10_000

// LRUResultStore keeps the most recently saved reports in memory.
type LRUResultStore struct {
	cache *lru.Cache[string, types.Report]
}

var _ ResultStore = (*LRUResultStore)(nil)

// NewLRUResultStore creates a bounded result store. A size of 0 selects the default.
func NewLRUResultStore(size int) (*LRUResultStore, error) {
	if size == 0 {
		size = defaultResultCacheSize
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	cache, err := lru.New[string, types.Report](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &LRUResultStore{cache: cache}, nil
}

// Save stores report under its batch id, replacing any earlier one.
func (s *LRUResultStore) Save(_ context.Context, report types.Report) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("save", float64(time.Since(start).Microseconds())/1000)
	}()

	if report.BatchID == "" {
		return ErrMissingBatch
	}
	if evicted := s.cache.Add(report.BatchID, report); evicted {
		metrics.RecordRepositoryEviction()
	}
	metrics.UpdateStoredAssessments(s.cache.Len())
	return nil
}

// Get returns the report saved for batchID.
func (s *LRUResultStore) Get(_ context.Context, batchID string) (types.Report, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("get", float64(time.Since(start).Microseconds())/1000)
	}()

	r, ok := s.cache.Get(batchID)
	if !ok {
		return types.Report{}, fmt.Errorf("%w: %s", ErrNotFound, batchID)
	}
	return r, nil
}

// Count returns the number of reports currently held.
func (s *LRUResultStore) Count(_ context.Context) int {
	return s.cache.Len()
}
