package service

import (
	"time"

	"github.com/okian/coordwatch/internal/config"
	"github.com/okian/coordwatch/internal/domain/pipeline"
	"github.com/okian/coordwatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// Detection holds the tuning knobs of the analyzers. Zero values keep the
// analyzer defaults.
type Detection struct {
	SimilarityThreshold float64
	MinClusterSize      int
	BurstGap            time.Duration
	RegularWindow       time.Duration
	RegularStdDevHours  float64
	SuspiciousScore     float64
	PromoPhrases        []string
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of batches waiting for analysis.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the number of batch ids remembered for deduplication.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithResultCacheSize sets the number of finished reports kept in memory.
func WithResultCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.resultCacheSize = size
		}
	}
}

// WithMaxBatchUsers caps the users accepted in one batch. Zero disables the cap.
func WithMaxBatchUsers(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxBatchUsers = n
		}
	}
}

// WithAnalysisTimeout bounds a single analysis run. Zero disables the bound.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.analysisTimeout = d
		}
	}
}

// WithParallelThreshold sets the post count from which stages run concurrently.
func WithParallelThreshold(posts int) Option {
	return func(s *Service) {
		if posts > 0 {
			s.parallelThreshold = posts
		}
	}
}

// WithDetection sets the analyzer tuning.
func WithDetection(d Detection) Option {
	return func(s *Service) {
		s.detection = d
	}
}

// WithWeights sets the fusion weights keyed by content, temporal, behavior and network.
func WithWeights(weights map[string]float64) Option {
	return func(s *Service) {
		s.weights = weights
	}
}

// WithPipelineOptions appends options applied after the service's own
// pipeline configuration.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(s *Service) {
		s.pipelineOpts = append(s.pipelineOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// FromConfig translates the loaded configuration into service options.
// Options passed in extra are applied last and win.
func FromConfig(cfg *config.Config, extra ...Option) []Option {
	opts := []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithResultCacheSize(cfg.ResultCacheSize),
		WithMaxBatchUsers(cfg.MaxBatchUsers),
		WithAnalysisTimeout(cfg.AnalysisTimeout()),
		WithParallelThreshold(cfg.ParallelThreshold),
		WithWeights(cfg.Weights),
		WithDetection(Detection{
			SimilarityThreshold: cfg.SimilarityThreshold,
			MinClusterSize:      cfg.MinClusterSize,
			BurstGap:            cfg.BurstGap(),
			RegularWindow:       cfg.RegularWindow(),
			RegularStdDevHours:  cfg.RegularStdDevHours,
			SuspiciousScore:     cfg.SuspiciousBehaviorScore,
			PromoPhrases:        cfg.PromoPhrases,
		}),
	}
	return append(opts, extra...)
}
