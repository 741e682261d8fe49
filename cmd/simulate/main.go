package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/coordwatch/internal/simulate"
	"github.com/okian/coordwatch/pkg/logger"
)

const (
	defaultBatches      = 20
	defaultCampaignSize = 8
	defaultOrganicSize  = 20
	defaultTimeout      = 30 * time.Second
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		batches      = flag.Int("batches", defaultBatches, "Number of batches to generate")
		campaignSize = flag.Int("campaign-size", defaultCampaignSize, "Coordinated accounts per campaign batch")
		organicSize  = flag.Int("organic-size", defaultOrganicSize, "Organic accounts per batch")
		workers      = flag.Int("workers", runtime.NumCPU(), "Number of concurrent submitters")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "Generator seed")
		outputFile   = flag.String("output", "", "Write the generated batches to this JSON file")
		logFile      = flag.String("log", "", "Also write logs to this file")
		verbose      = flag.Bool("verbose", false, "Log every verdict")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp(os.Stdout)
		return
	}

	if err := simulate.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:      *baseURL,
		Batches:      *batches,
		CampaignSize: *campaignSize,
		OrganicSize:  *organicSize,
		Workers:      *workers,
		Timeout:      *timeout,
		Seed:         *seed,
		OutputFile:   *outputFile,
		Verbose:      *verbose,
	}

	code := exitCode(ctx, cfg)
	cancel()
	os.Exit(code)
}

// exitCode runs the simulation. Mismatched verdicts exit with 2, other failures with 1.
func exitCode(ctx context.Context, cfg *simulate.Config) int {
	_, err := simulate.Run(ctx, cfg)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, simulate.ErrMismatch):
		logger.Get().Error(ctx, "verdicts did not match batch kinds", logger.Error(err))
		return 2
	default:
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		return 1
	}
}
