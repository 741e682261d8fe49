// Package service wires the analysis pipeline, the job queue, the worker pool
// and the result store behind the operations used by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spaolacci/murmur3"

	"github.com/okian/coordwatch/internal/adapters/mq/queue"
	"github.com/okian/coordwatch/internal/adapters/mq/worker"
	"github.com/okian/coordwatch/internal/adapters/repository"
	"github.com/okian/coordwatch/internal/domain/behavior"
	"github.com/okian/coordwatch/internal/domain/dedupe"
	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/network"
	"github.com/okian/coordwatch/internal/domain/pipeline"
	"github.com/okian/coordwatch/internal/domain/scoring"
	"github.com/okian/coordwatch/internal/domain/similarity"
	"github.com/okian/coordwatch/internal/domain/temporal"
	"github.com/okian/coordwatch/internal/domain/types"
	"github.com/okian/coordwatch/pkg/logger"
	"github.com/okian/coordwatch/pkg/metrics"
)

// Default service configuration constants.
const (
	DefaultMaxBatchUsers   = 10_000
	DefaultAnalysisTimeout = 30 * time.Second
	defaultResultCacheSize = 10_000
)

// Submission describes the outcome of an asynchronous submit.
type Submission = types.Submission

// Service implements the API dependencies for the coordination detector.
type Service struct {
	mu sync.RWMutex

	// Core components
	analyzer *pipeline.Pipeline
	results  repository.ResultStore
	deduper  dedupe.Deduper
	queue    queue.Queue
	pool     *worker.Pool

	// Batches accepted but not yet finished, and the last failures.
	pendingMu sync.Mutex
	pending   map[string]struct{}
	failures  *lru.Cache[string, string]

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	resultCacheSize   int
	maxBatchUsers     int
	analysisTimeout   time.Duration
	parallelThreshold int
	detection         Detection
	weights           map[string]float64
	pipelineOpts      []pipeline.Option

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU(),
		queueSize:         queue.DefaultCapacity,
		dedupeSize:        dedupe.DefaultMaxSize,
		resultCacheSize:   defaultResultCacheSize,
		maxBatchUsers:     DefaultMaxBatchUsers,
		analysisTimeout:   DefaultAnalysisTimeout,
		parallelThreshold: pipeline.DefaultParallelThreshold,
		pending:           make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting coordination service...")

	analyzer, err := pipeline.New(s.buildPipelineOptions()...)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	results, err := repository.NewLRUResultStore(s.resultCacheSize)
	if err != nil {
		return fmt.Errorf("build result store: %w", err)
	}
	failures, err := lru.New[string, string](s.dedupeSize)
	if err != nil {
		return fmt.Errorf("build failure cache: %w", err)
	}

	s.analyzer = analyzer
	s.results = results
	s.failures = failures
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.analyzer, s.results, worker.WithOnDone(s.onJobDone))

	// Workers outlive the start request; Stop cancels them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "coordination service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("resultCacheSize", s.resultCacheSize),
		logger.Duration("analysisTimeout", s.analysisTimeout),
	)
	return nil
}

func (s *Service) buildPipelineOptions() []pipeline.Option {
	d := s.detection

	simOpts := []similarity.Option{similarity.WithThreshold(d.SimilarityThreshold), similarity.WithMinClusterSize(d.MinClusterSize)}
	temporalOpts := []temporal.Option{
		temporal.WithBurstGap(d.BurstGap),
		temporal.WithRegularWindow(d.RegularWindow),
		temporal.WithRegularStdDev(d.RegularStdDevHours),
		temporal.WithMinClusterSize(d.MinClusterSize),
	}
	var behaviorOpts []behavior.Option
	if d.SuspiciousScore > 0 {
		behaviorOpts = append(behaviorOpts, behavior.WithSuspiciousScore(d.SuspiciousScore))
	}
	if len(d.PromoPhrases) > 0 {
		behaviorOpts = append(behaviorOpts, behavior.WithPromoPhrases(d.PromoPhrases...))
	}

	opts := []pipeline.Option{
		pipeline.WithContentAnalyzer(similarity.New(simOpts...)),
		pipeline.WithTemporalAnalyzer(temporal.New(temporalOpts...)),
		pipeline.WithBehaviorAnalyzer(behavior.New(behaviorOpts...)),
		pipeline.WithNetworkAnalyzer(network.New(network.WithMinClusterSize(d.MinClusterSize))),
		pipeline.WithParallelThreshold(s.parallelThreshold),
		pipeline.WithTimeout(s.analysisTimeout),
	}
	if len(s.weights) > 0 {
		if scorer, err := scoring.New(scoring.WithWeightsFromConfig(s.weights)); err == nil {
			opts = append(opts, pipeline.WithScorer(scorer))
		} else {
			s.logger.Warn(context.Background(), "ignoring invalid weights, using defaults", logger.Error(err))
		}
	}
	return append(opts, s.pipelineOpts...)
}

// Stop closes the queue, lets the workers drain it until ctx ends and then
// cancels any analysis still running.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping coordination service...")

	err := s.pool.Shutdown(ctx)
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "coordination service stopped")
	return err
}

// Analyze runs one batch synchronously. A batch without an id gets a random one.
func (s *Service) Analyze(ctx context.Context, batch model.Batch) (types.Report, error) {
	s.mu.RLock()
	started, analyzer, results := s.started, s.analyzer, s.results
	s.mu.RUnlock()
	if !started {
		return types.Report{}, ErrNotStarted
	}

	if batch.BatchID == "" {
		batch.BatchID = uuid.NewString()
	}
	snap, err := s.ingest(ctx, batch)
	if err != nil {
		return types.Report{}, err
	}

	report, err := analyzer.Analyze(ctx, snap)
	if err != nil {
		return types.Report{}, err
	}
	metrics.RecordBatchAnalyzed(string(report.Assessment.RiskLevel))
	if err := results.Save(ctx, report); err != nil {
		s.logger.Warn(ctx, "failed to keep report", logger.String("batch_id", report.BatchID), logger.Error(err))
	}
	return report, nil
}

// Submit queues one batch for asynchronous analysis. A batch without an id is
// identified by a fingerprint of its content, so resubmitting the same
// content is reported as a duplicate.
func (s *Service) Submit(ctx context.Context, batch model.Batch) (Submission, error) {
	s.mu.RLock()
	started, q, deduper := s.started, s.queue, s.deduper
	s.mu.RUnlock()
	if !started {
		return Submission{}, ErrNotStarted
	}

	if batch.BatchID == "" {
		batch.BatchID = Fingerprint(batch)
	}
	sub := Submission{BatchID: batch.BatchID, Users: len(batch.Users), Posts: batch.PostCount()}

	if deduper.SeenAndRecord(ctx, batch.BatchID) {
		metrics.RecordBatchDuplicate()
		s.logger.Debug(ctx, "duplicate batch, skipping", logger.String("batch_id", batch.BatchID))
		sub.Duplicate = true
		return sub, nil
	}

	snap, err := s.ingest(ctx, batch)
	if err != nil {
		deduper.Unrecord(ctx, batch.BatchID)
		return Submission{}, err
	}

	s.setPending(batch.BatchID)
	job := queue.Job{BatchID: batch.BatchID, Snapshot: snap, EnqueuedAt: time.Now()}
	if !q.Enqueue(ctx, job) {
		s.clearPending(batch.BatchID)
		deduper.Unrecord(ctx, batch.BatchID)
		metrics.RecordBatchRejected("backpressure")
		return Submission{}, fmt.Errorf("%w: batch %q", ErrQueueFull, batch.BatchID)
	}

	s.logger.Debug(ctx, "batch queued",
		logger.String("batch_id", batch.BatchID),
		logger.Int("users", sub.Users),
		logger.Int("posts", sub.Posts),
	)
	return sub, nil
}

// Assessment returns the report of a finished batch. Batches still queued
// return ErrPending and failed ones ErrAnalysisFailed.
func (s *Service) Assessment(ctx context.Context, batchID string) (types.Report, error) {
	s.mu.RLock()
	started, results, failures := s.started, s.results, s.failures
	s.mu.RUnlock()
	if !started {
		return types.Report{}, ErrNotStarted
	}

	report, err := results.Get(ctx, batchID)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return types.Report{}, err
	}
	if s.isPending(batchID) {
		return types.Report{}, fmt.Errorf("%w: %s", ErrPending, batchID)
	}
	if reason, ok := failures.Get(batchID); ok {
		return types.Report{}, fmt.Errorf("%w: %s", ErrAnalysisFailed, reason)
	}
	return types.Report{}, fmt.Errorf("%w: %s", ErrNotFound, batchID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"resultCacheSize": s.resultCacheSize,
		"maxBatchUsers":   s.maxBatchUsers,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stored := s.results.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedAssessments"] = stored
		stats["pendingBatches"] = s.pendingCount()
		stats["failedBatches"] = s.failures.Len()
		stats["seenBatchIds"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoredAssessments(stored)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}

// ingest validates batch and freezes it into a snapshot.
func (s *Service) ingest(ctx context.Context, batch model.Batch) (model.Snapshot, error) {
	if s.maxBatchUsers > 0 && len(batch.Users) > s.maxBatchUsers {
		metrics.RecordBatchRejected("too_many_users")
		return model.Snapshot{}, fmt.Errorf("%w: %d users, limit %d", ErrTooManyUsers, len(batch.Users), s.maxBatchUsers)
	}
	store, err := repository.FromInput(ctx, batch)
	if err != nil {
		metrics.RecordBatchRejected("invalid")
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}
	return store.Snapshot(ctx), nil
}

func (s *Service) onJobDone(ctx context.Context, res worker.Result) {
	defer s.clearPending(res.Job.BatchID)

	if res.Err != nil {
		s.failures.Add(res.Job.BatchID, res.Err.Error())
		// Let the caller retry the same batch id.
		s.deduper.Unrecord(ctx, res.Job.BatchID)
		return
	}
	s.failures.Remove(res.Job.BatchID)
	metrics.RecordBatchAnalyzed(string(res.Report.Assessment.RiskLevel))
}

func (s *Service) setPending(id string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending[id] = struct{}{}
}

func (s *Service) clearPending(id string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	delete(s.pending, id)
}

func (s *Service) isPending(id string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	_, ok := s.pending[id]
	return ok
}

func (s *Service) pendingCount() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}

// Fingerprint derives a stable batch id from the users of batch.
func Fingerprint(batch model.Batch) string {
	// Marshalling plain structs is deterministic and cannot fail.
	raw, _ := json.Marshal(batch.Users)
	hi, lo := murmur3.Sum128(raw)
	return fmt.Sprintf("fp-%016x%016x", hi, lo)
}
