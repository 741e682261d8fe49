package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/pkg/logger"
)

const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Result is what a run produced.
type Result struct {
	Stats    Stats
	Outcomes []Outcome
}

// generated pairs a batch with its kind.
type generated struct {
	Kind  Kind        `json:"kind"`
	Batch model.Batch `json:"batch"`
}

// Run generates the batches, submits them, and checks every verdict against
// the kind of batch it was given.
func Run(ctx context.Context, cfg *Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("simulate")
	res := &Result{Stats: Stats{StartTime: time.Now()}}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("batches", cfg.Batches),
		logger.Int("campaignSize", cfg.CampaignSize),
		logger.Int("organicSize", cfg.OrganicSize),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, err
	}

	batches := generateBatches(cfg)
	res.Stats.BatchesGenerated = len(batches)

	res.Outcomes = submitBatches(ctx, cfg, client, batches, &res.Stats)
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("simulation aborted: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveBatches(cfg.OutputFile, batches); err != nil {
			log.Warn(ctx, "failed to save batches", logger.Error(err))
		} else {
			log.Info(ctx, "batches saved", logger.String("file", cfg.OutputFile))
		}
	}

	verr := verifyOutcomes(ctx, cfg, res.Outcomes, &res.Stats)

	res.Stats.EndTime = time.Now()
	res.Stats.Duration = res.Stats.EndTime.Sub(res.Stats.StartTime)
	displayFinalStats(ctx, &res.Stats)

	if verr != nil {
		return res, verr
	}
	if res.Stats.BatchesFailed > 0 {
		return res, fmt.Errorf("%d of %d batches failed", res.Stats.BatchesFailed, res.Stats.BatchesGenerated)
	}
	return res, nil
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Batches <= 0:
		return fmt.Errorf("%w: batches must be positive", ErrInvalidConfig)
	case c.CampaignSize < 0 || c.OrganicSize < 0:
		return fmt.Errorf("%w: sizes must not be negative", ErrInvalidConfig)
	case c.CampaignSize > 0 && c.CampaignSize < 3:
		return fmt.Errorf("%w: a campaign needs at least 3 accounts", ErrInvalidConfig)
	case c.CampaignSize+c.OrganicSize == 0:
		return fmt.Errorf("%w: batches would be empty", ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	resp, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

func generateBatches(cfg *Config) []generated {
	gen := NewGenerator(cfg.Seed, time.Now().Add(-8*24*time.Hour).Truncate(time.Hour))
	out := make([]generated, cfg.Batches)
	for i := range out {
		batch, kind := gen.Batch(i, cfg.CampaignSize, cfg.OrganicSize)
		out[i] = generated{Kind: kind, Batch: batch}
	}
	return out
}

// submitBatches posts every batch with at most cfg.Workers in flight. A
// failed batch is recorded on its outcome and does not stop the others.
func submitBatches(ctx context.Context, cfg *Config, client *HTTPClient, batches []generated, stats *Stats) []Outcome {
	outcomes := make([]Outcome, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i, b := range batches {
		g.Go(func() error {
			o := Outcome{BatchID: b.Batch.BatchID, Kind: b.Kind}
			report, err := client.Analyze(gctx, b.Batch)
			if err != nil {
				o.Err = err.Error()
			} else {
				o.Score = report.Assessment.Score
				o.RiskLevel = report.Assessment.RiskLevel
			}
			outcomes[i] = o
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		stats.BatchesSubmitted++
		if o.Err != "" {
			stats.BatchesFailed++
			logger.Get().Named("simulate").Warn(ctx, "batch failed",
				logger.String("batchID", o.BatchID), logger.String("error", o.Err))
		}
	}
	return outcomes
}

func saveBatches(filename string, batches []generated) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(batches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batches: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var batchesPerSecond float64
	if stats.Duration > 0 {
		batchesPerSecond = float64(stats.BatchesSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Named("simulate").Info(ctx, "final statistics",
		logger.Int("batchesGenerated", stats.BatchesGenerated),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("mismatches", stats.Mismatches),
		logger.Duration("duration", stats.Duration),
		logger.Float64("batchesPerSecond", batchesPerSecond))
}
