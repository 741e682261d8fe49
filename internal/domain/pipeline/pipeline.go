// Package pipeline runs the analysis stages over a snapshot and fuses their
// reports into one coordination verdict.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/coordwatch/internal/domain/behavior"
	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/network"
	"github.com/okian/coordwatch/internal/domain/scoring"
	"github.com/okian/coordwatch/internal/domain/similarity"
	"github.com/okian/coordwatch/internal/domain/temporal"
	"github.com/okian/coordwatch/internal/domain/types"
	"github.com/okian/coordwatch/pkg/logger"
	"github.com/okian/coordwatch/pkg/metrics"
)

// DefaultParallelThreshold is the post count from which stages fan out.
const DefaultParallelThreshold = 500

// Classifier labels post text. Its output is carried on the report but never scored.
type Classifier interface {
	Classify(ctx context.Context, post model.Post) (model.Classification, error)
}

// BotEstimator gives an external opinion on a profile. Its output is carried but never scored.
type BotEstimator interface {
	Estimate(ctx context.Context, profile model.UserProfile) (model.BotEstimate, error)
}

// ContentAnalyzer finds groups of near-duplicate posts.
type ContentAnalyzer interface {
	Analyze(ctx context.Context, posts []model.Post) (types.ContentReport, error)
}

// TemporalAnalyzer finds posting bursts and regular cadences.
type TemporalAnalyzer interface {
	Analyze(ctx context.Context, timeline []model.TimelineEvent) (types.TemporalReport, error)
}

// BehaviorAnalyzer scores accounts individually.
type BehaviorAnalyzer interface {
	Analyze(ctx context.Context, profiles []model.UserProfile) (types.BehaviorReport, error)
}

// NetworkAnalyzer derives account clusters from the content groups.
type NetworkAnalyzer interface {
	Analyze(ctx context.Context, content types.ContentReport, totalUsers int, interactions map[string][]model.Interaction) (types.NetworkReport, error)
}

// Analyzer produces a report from a snapshot.
type Analyzer interface {
	Analyze(ctx context.Context, snap model.Snapshot) (types.Report, error)
}

// Pipeline wires the four analyzers and the scorer.
type Pipeline struct {
	content  ContentAnalyzer
	temporal TemporalAnalyzer
	behavior BehaviorAnalyzer
	network  NetworkAnalyzer
	scorer   scoring.Scorer

	classifier   Classifier
	botEstimator BotEstimator

	parallelThreshold int
	timeout           time.Duration
	now               func() time.Time
	logger            logger.Logger
}

// New creates a pipeline with default analyzers unless replaced by options.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		content:           similarity.New(),
		temporal:          temporal.New(),
		behavior:          behavior.New(),
		network:           network.New(),
		parallelThreshold: DefaultParallelThreshold,
		now:               time.Now,
		logger:            logger.Get().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.scorer == nil {
		s, err := scoring.New()
		if err != nil {
			return nil, err
		}
		p.scorer = s
	}
	return p, nil
}

// Analyze runs every stage over snap. A stage that fails or panics is reported
// with status error and the run continues. If ctx ends before the verdict is
// ready, no report is returned and the error wraps ErrAnalysisAborted.
func (p *Pipeline) Analyze(ctx context.Context, snap model.Snapshot) (types.Report, error) {
	start := time.Now()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return p.abort(ctx, snap.BatchID, err)
	}

	log := p.logger
	if snap.FallbackTimestamps > 0 {
		metrics.RecordFallbackTimestamps(snap.FallbackTimestamps)
		log.Warn(ctx, "timestamps replaced by run start time",
			logger.String("batch_id", snap.BatchID),
			logger.Int("count", snap.FallbackTimestamps),
		)
	}
	snap = p.enrich(ctx, snap)

	report := types.Report{
		BatchID:    snap.BatchID,
		TotalUsers: snap.UserCount(),
		TotalPosts: snap.PostCount(),
	}

	if err := p.run(ctx, snap.BatchID, types.StageContent, &report.Content.StageResult, func(ctx context.Context) (types.StageResult, error) {
		r, err := p.content.Analyze(ctx, snap.Posts)
		report.Content = r
		return r.StageResult, err
	}); err != nil {
		return p.abort(ctx, snap.BatchID, err)
	}

	temporalStage := func(ctx context.Context) error {
		return p.run(ctx, snap.BatchID, types.StageTemporal, &report.Temporal.StageResult, func(ctx context.Context) (types.StageResult, error) {
			r, err := p.temporal.Analyze(ctx, snap.Timeline)
			report.Temporal = r
			return r.StageResult, err
		})
	}
	behaviorStage := func(ctx context.Context) error {
		return p.run(ctx, snap.BatchID, types.StageBehavior, &report.Behavior.StageResult, func(ctx context.Context) (types.StageResult, error) {
			r, err := p.behavior.Analyze(ctx, snap.Profiles)
			report.Behavior = r
			return r.StageResult, err
		})
	}
	networkStage := func(ctx context.Context) error {
		return p.run(ctx, snap.BatchID, types.StageNetwork, &report.Network.StageResult, func(ctx context.Context) (types.StageResult, error) {
			r, err := p.network.Analyze(ctx, report.Content, snap.UserCount(), snap.Interactions)
			report.Network = r
			return r.StageResult, err
		})
	}
	stages := []func(context.Context) error{temporalStage, behaviorStage, networkStage}

	parallel := p.parallelThreshold > 0 && snap.PostCount() >= p.parallelThreshold
	if parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, stage := range stages {
			g.Go(func() error { return stage(gctx) })
		}
		if err := g.Wait(); err != nil {
			return p.abort(ctx, snap.BatchID, err)
		}
	} else {
		for _, stage := range stages {
			if err := stage(ctx); err != nil {
				return p.abort(ctx, snap.BatchID, err)
			}
		}
	}

	assessment, err := p.score(ctx, report)
	if err != nil {
		if ctx.Err() != nil {
			return p.abort(ctx, snap.BatchID, err)
		}
		metrics.RecordAnalysisError()
		return types.Report{}, err
	}
	report.Assessment = assessment
	report.AnalysisTimestamp = p.now().UTC()

	took := time.Since(start)
	metrics.RecordAnalysisLatency(float64(took.Milliseconds()))
	metrics.RecordCoordinationScore(assessment.Score)
	log.Info(ctx, "analysis complete",
		logger.String("batch_id", snap.BatchID),
		logger.Int("users", report.TotalUsers),
		logger.Int("posts", report.TotalPosts),
		logger.Float64("score", assessment.Score),
		logger.String("risk_level", string(assessment.RiskLevel)),
		logger.Bool("parallel", parallel),
		logger.Duration("took", took),
	)
	return report, nil
}

// run executes one stage. Stage errors and panics are written to result;
// only a done context is returned to the caller.
func (p *Pipeline) run(ctx context.Context, batchID, stage string, result *types.StageResult, fn func(context.Context) (types.StageResult, error)) (err error) {
	start := time.Now()
	var res types.StageResult
	defer func() {
		if r := recover(); r != nil {
			res = types.Failed(fmt.Sprintf("%v: %v", ErrStagePanic, r))
			metrics.RecordErrorByComponent("pipeline", "stage_panic")
			err = nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			return
		}
		*result = res
		p.observe(ctx, batchID, stage, res, time.Since(start))
	}()

	res, err = fn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		res = types.Failed(err.Error())
		metrics.RecordErrorByComponent("pipeline", "stage_error")
		err = nil
	}
	return nil
}

func (p *Pipeline) observe(ctx context.Context, batchID, stage string, res types.StageResult, took time.Duration) {
	metrics.RecordStage(stage, string(res.Status), float64(took.Milliseconds()))
	fields := []logger.Field{
		logger.String("batch_id", batchID),
		logger.String("stage", stage),
		logger.String("status", string(res.Status)),
		logger.Duration("took", took),
	}
	switch res.Status {
	case types.StatusError:
		p.logger.Warn(ctx, "stage failed", append(fields, logger.String("reason", res.Error))...)
	case types.StatusInsufficientData:
		p.logger.Debug(ctx, "stage skipped for lack of data", fields...)
	default:
		p.logger.Debug(ctx, "stage finished", fields...)
	}
}

func (p *Pipeline) score(ctx context.Context, report types.Report) (a types.CoordinationAssessment, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("coordination scoring: %w: %v", ErrStagePanic, r)
		}
		status := types.StatusAnalyzed
		if err != nil {
			status = types.StatusError
		}
		metrics.RecordStage(types.StageScoring, string(status), float64(time.Since(start).Milliseconds()))
	}()
	return p.scorer.Score(ctx, scoring.Input{
		Content:  report.Content,
		Temporal: report.Temporal,
		Behavior: report.Behavior,
		Network:  report.Network,
	})
}

func (p *Pipeline) abort(ctx context.Context, batchID string, err error) (types.Report, error) {
	metrics.RecordAnalysisError()
	cause := err
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		cause = ctxErr
	}
	p.logger.Warn(ctx, "analysis aborted", logger.String("batch_id", batchID), logger.Error(cause))
	return types.Report{}, fmt.Errorf("%w: batch %q: %w", ErrAnalysisAborted, batchID, cause)
}

// enrich fills missing classifications and bot estimates. Collaborator
// failures are logged and otherwise ignored.
func (p *Pipeline) enrich(ctx context.Context, snap model.Snapshot) model.Snapshot {
	if p.classifier != nil {
		snap.Posts = slices.Clone(snap.Posts)
		for i := range snap.Posts {
			post := &snap.Posts[i]
			if post.Classification != nil {
				continue
			}
			c, err := p.classifier.Classify(ctx, *post)
			if err != nil {
				metrics.RecordErrorByComponent("pipeline", "classifier_error")
				p.logger.Warn(ctx, "classifier failed", logger.String("user_id", post.UserID), logger.Error(err))
				continue
			}
			post.Classification = &c
		}
	}
	if p.botEstimator != nil {
		snap.Profiles = slices.Clone(snap.Profiles)
		for i := range snap.Profiles {
			profile := &snap.Profiles[i]
			if profile.BotEstimate != nil {
				continue
			}
			e, err := p.botEstimator.Estimate(ctx, *profile)
			if err != nil {
				metrics.RecordErrorByComponent("pipeline", "bot_estimator_error")
				p.logger.Warn(ctx, "bot estimator failed", logger.String("user_id", profile.UserID), logger.Error(err))
				continue
			}
			profile.BotEstimate = &e
		}
	}
	return snap
}
