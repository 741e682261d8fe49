// Package scoring fuses the stage reports into one coordination assessment.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/coordwatch/internal/domain/types"
)

// Signal names, also the keys of the weights configuration map.
const (
	SignalContent  = "content"
	SignalTemporal = "temporal"
	SignalBehavior = "behavior"
	SignalNetwork  = "network"
)

// Normalization divisors and fusion constants.
const (
	contentGroupsForFull   = 3.0
	temporalSignalsForFull = 5.0
	networkClustersForFull = 2.0
	confidenceBoost        = 0.1
	weightSumTolerance     = 1e-6
)

// Weights are the fusion weights of the four signals.
type Weights struct {
	Content  float64
	Temporal float64
	Behavior float64
	Network  float64
}

// DefaultWeights favour content duplication over the other signals.
var DefaultWeights = Weights{Content: 0.30, Temporal: 0.25, Behavior: 0.25, Network: 0.20}

// Validate returns ErrInvalidWeights unless every weight is non-negative and they sum to 1.
func (w Weights) Validate() error {
	if w.Content < 0 || w.Temporal < 0 || w.Behavior < 0 || w.Network < 0 {
		return ErrInvalidWeights
	}
	if math.Abs(w.Content+w.Temporal+w.Behavior+w.Network-1) > weightSumTolerance {
		return ErrInvalidWeights
	}
	return nil
}

// Thresholds are the exclusive lower bounds of each risk level.
type Thresholds struct {
	Low    float64
	Medium float64
	High   float64
}

// DefaultThresholds map scores above 0.4, 0.6 and 0.8 to LOW, MEDIUM and HIGH.
var DefaultThresholds = Thresholds{Low: 0.4, Medium: 0.6, High: 0.8}

// Validate returns ErrInvalidThresholds unless the bounds are ordered within [0,1].
func (t Thresholds) Validate() error {
	if t.Low < 0 || t.Low > t.Medium || t.Medium > t.High || t.High > 1 {
		return ErrInvalidThresholds
	}
	return nil
}

// Level maps a score to its risk level.
func (t Thresholds) Level(score float64) types.RiskLevel {
	switch {
	case score > t.High:
		return types.RiskHigh
	case score > t.Medium:
		return types.RiskMedium
	case score > t.Low:
		return types.RiskLow
	default:
		return types.RiskMinimal
	}
}

// Input holds the stage reports the scorer fuses.
type Input struct {
	Content  types.ContentReport
	Temporal types.TemporalReport
	Behavior types.BehaviorReport
	Network  types.NetworkReport
}

// Scorer computes a coordination assessment from stage reports.
type Scorer interface {
	// Score fuses the reports, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (types.CoordinationAssessment, error)
}

// FusionScorer implements Scorer as a fixed weighted sum. A stage that did not
// reach analyzed contributes zero and the remaining weights are not rescaled.
type FusionScorer struct {
	weights    Weights
	thresholds Thresholds
}

// New creates a fusion scorer, validating the configured weights and thresholds.
func New(opts ...Option) (*FusionScorer, error) {
	s := &FusionScorer{
		weights:    DefaultWeights,
		thresholds: DefaultThresholds,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, fmt.Errorf("scorer weights %+v: %w", s.weights, err)
	}
	if err := s.thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("scorer thresholds %+v: %w", s.thresholds, err)
	}
	return s, nil
}

// Weights returns the weights in use.
func (s *FusionScorer) Weights() Weights { return s.weights }

// Score computes the weighted coordination score and its verdict.
func (s *FusionScorer) Score(ctx context.Context, in Input) (types.CoordinationAssessment, error) {
	if err := ctx.Err(); err != nil {
		return types.CoordinationAssessment{}, fmt.Errorf("coordination scoring: %w", err)
	}

	evidence := []string{}
	signals := make([]types.SignalScore, 0, 4)
	var score float64

	add := func(name string, normalized, weight float64) {
		weighted := normalized * weight
		score += weighted
		signals = append(signals, types.SignalScore{Signal: name, Normalized: normalized, Weight: weight, Weighted: weighted})
	}

	var content float64
	if in.Content.Analyzed() && in.Content.TotalGroups > 0 {
		content = min(1, float64(in.Content.TotalGroups)/contentGroupsForFull)
		evidence = append(evidence, fmt.Sprintf("%d groups posting similar content", in.Content.TotalGroups))
	}
	add(SignalContent, content, s.weights.Content)

	var temporal float64
	if in.Temporal.Analyzed() {
		clusters, regular := in.Temporal.ClusterCount, len(in.Temporal.RegularPosters)
		temporal = min(1, float64(clusters+regular)/temporalSignalsForFull)
		if clusters > 0 {
			evidence = append(evidence, fmt.Sprintf("%d coordinated posting time periods", clusters))
		}
		if regular > 0 {
			evidence = append(evidence, fmt.Sprintf("%d users with automated posting patterns", regular))
		}
	}
	add(SignalTemporal, temporal, s.weights.Temporal)

	var behavior float64
	if in.Behavior.Analyzed() && in.Behavior.TotalSuspicious > 0 && in.Behavior.TotalUsers > 0 {
		behavior = float64(in.Behavior.TotalSuspicious) / float64(in.Behavior.TotalUsers)
		evidence = append(evidence, fmt.Sprintf("%d users with bot-like behavior", in.Behavior.TotalSuspicious))
	}
	add(SignalBehavior, behavior, s.weights.Behavior)

	var network float64
	if in.Network.Analyzed() && in.Network.ComponentCount > 0 {
		network = min(1, float64(in.Network.ComponentCount)/networkClustersForFull)
		evidence = append(evidence, fmt.Sprintf("%d suspicious network clusters", in.Network.ComponentCount))
	}
	add(SignalNetwork, network, s.weights.Network)

	score = min(1, max(0, score))
	level := s.thresholds.Level(score)
	return types.CoordinationAssessment{
		Score:          score,
		RiskLevel:      level,
		Assessment:     level.Summary(),
		Confidence:     min(1, score+confidenceBoost),
		Evidence:       evidence,
		Recommendation: level.Recommendation(),
		Signals:        signals,
	}, nil
}
