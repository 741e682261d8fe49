// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"math"
	"runtime"
	"time"
)

// weightSumTolerance is the slack allowed when checking that weights sum to one.
const weightSumTolerance = 1e-9

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory batch queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the number of batch ids remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// ResultCacheSize sets the number of finished reports kept for lookup.
	ResultCacheSize int `koanf:"result_cache_size"`

	// AnalysisTimeoutMS bounds one analysis run. Zero disables the bound.
	AnalysisTimeoutMS int `koanf:"analysis_timeout_ms"`

	// MaxBatchUsers caps the users of one batch. Zero disables the cap.
	MaxBatchUsers int `koanf:"max_batch_users"`

	// ParallelThreshold is the post count from which stages run concurrently.
	ParallelThreshold int `koanf:"parallel_threshold"`

	// Detection tuning.
	SimilarityThreshold     float64 `koanf:"similarity_threshold"`
	MinClusterSize          int     `koanf:"min_cluster_size"`
	BurstGapMinutes         int     `koanf:"burst_gap_minutes"`
	RegularWindowHours      int     `koanf:"regular_window_hours"`
	RegularStdDevHours      float64 `koanf:"regular_stddev_hours"`
	SuspiciousBehaviorScore float64 `koanf:"suspicious_behavior_score"`

	// PromoPhrases replaces the promotional bio phrases. Empty keeps the built in list.
	// From the environment it is a comma separated list.
	PromoPhrases []string `koanf:"promo_phrases"`

	// Weights maps content, temporal, behavior and network to their fusion weight.
	Weights map[string]float64 `koanf:"weights"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		QueueSize:               1024,
		WorkerCount:             runtime.NumCPU(),
		DedupeSize:              50_000,
		ResultCacheSize:         10_000,
		AnalysisTimeoutMS:       30_000,
		MaxBatchUsers:           10_000,
		ParallelThreshold:       500,
		SimilarityThreshold:     0.8,
		MinClusterSize:          3,
		BurstGapMinutes:         60,
		RegularWindowHours:      24,
		RegularStdDevHours:      0.5,
		SuspiciousBehaviorScore: 0.5,
		Weights: map[string]float64{
			"content":  0.30,
			"temporal": 0.25,
			"behavior": 0.25,
			"network":  0.20,
		},
	}
}

// Validate checks the values that would otherwise fail at runtime.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1:
		return fmt.Errorf("%w: similarity_threshold must be in (0,1], got %v", ErrInvalidConfig, c.SimilarityThreshold)
	case c.MinClusterSize < 2:
		return fmt.Errorf("%w: min_cluster_size must be at least 2, got %d", ErrInvalidConfig, c.MinClusterSize)
	case c.AnalysisTimeoutMS < 0:
		return fmt.Errorf("%w: analysis_timeout_ms must not be negative, got %d", ErrInvalidConfig, c.AnalysisTimeoutMS)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}

	sum := 0.0
	for key, w := range c.Weights {
		switch key {
		case "content", "temporal", "behavior", "network":
		default:
			return fmt.Errorf("%w: unknown signal %q", ErrInvalidWeights, key)
		}
		if w < 0 {
			return fmt.Errorf("%w: %q is negative", ErrInvalidWeights, key)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: must sum to 1, got %v", ErrInvalidWeights, sum)
	}
	return nil
}

// AnalysisTimeout returns the per-run bound.
func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutMS) * time.Millisecond
}

// BurstGap returns the largest gap inside one temporal burst.
func (c *Config) BurstGap() time.Duration {
	return time.Duration(c.BurstGapMinutes) * time.Minute
}

// RegularWindow returns the mean interval below which a uniform cadence is flagged.
func (c *Config) RegularWindow() time.Duration {
	return time.Duration(c.RegularWindowHours) * time.Hour
}
