package simulate

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/coordwatch/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initializes the logger, teeing to logFile when one is given.
func SetupLogging(logFile string, verbose bool) error {
	level := "info"
	if verbose {
		level = "debug"
	}
	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.Init(logger.WithLevel(level), logger.WithOutput(out)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `coordwatch simulator
====================

Generates synthetic batches, half of them carrying a coordinated campaign,
submits them to a running coordwatch service and checks every verdict.
Campaign batches must reach LOW or above; organic batches must stay MINIMAL.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -batches int
        Number of batches to generate (default 20)
  -campaign-size int
        Coordinated accounts per campaign batch (default 8)
  -organic-size int
        Organic accounts per batch (default 20)
  -workers int
        Number of concurrent submitters (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed int
        Generator seed (default: current time)
  -output string
        Write the generated batches to this JSON file
  -log string
        Also write logs to this file
  -verbose
        Log every verdict
  -help
        Show this help message

Examples:
  go run ./cmd/simulate -batches 100 -workers 16
  go run ./cmd/simulate -seed 42 -output batches.json
`)
}
