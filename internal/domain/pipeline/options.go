package pipeline

import (
	"time"

	"github.com/okian/coordwatch/internal/domain/scoring"
	"github.com/okian/coordwatch/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithContentAnalyzer replaces the content similarity analyzer.
func WithContentAnalyzer(a ContentAnalyzer) Option {
	return func(p *Pipeline) {
		if a != nil {
			p.content = a
		}
	}
}

// WithTemporalAnalyzer replaces the temporal pattern analyzer.
func WithTemporalAnalyzer(a TemporalAnalyzer) Option {
	return func(p *Pipeline) {
		if a != nil {
			p.temporal = a
		}
	}
}

// WithBehaviorAnalyzer replaces the behavior analyzer.
func WithBehaviorAnalyzer(a BehaviorAnalyzer) Option {
	return func(p *Pipeline) {
		if a != nil {
			p.behavior = a
		}
	}
}

// WithNetworkAnalyzer replaces the network structure analyzer.
func WithNetworkAnalyzer(a NetworkAnalyzer) Option {
	return func(p *Pipeline) {
		if a != nil {
			p.network = a
		}
	}
}

// WithScorer replaces the coordination scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.scorer = s
		}
	}
}

// WithParallelThreshold sets the post count from which the independent
// stages run concurrently. Zero or less always runs them in sequence.
func WithParallelThreshold(posts int) Option {
	return func(p *Pipeline) {
		p.parallelThreshold = posts
	}
}

// WithTimeout bounds every run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.timeout = d
		}
	}
}

// WithClassifier attaches a text classifier used to fill missing post classifications.
func WithClassifier(c Classifier) Option {
	return func(p *Pipeline) {
		p.classifier = c
	}
}

// WithBotEstimator attaches an estimator used to fill missing profile bot estimates.
func WithBotEstimator(e BotEstimator) Option {
	return func(p *Pipeline) {
		p.botEstimator = e
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock sets the source of the analysis timestamp.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}
