// Command coordscan analyzes one batch file offline and prints the report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	app "github.com/okian/coordwatch/internal/app"
	"github.com/okian/coordwatch/internal/config"
	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/pkg/logger"
)

var errNoInput = errors.New("no batch file given")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		_, _ = fmt.Fprintln(os.Stderr, "coordscan:", err)
		os.Exit(1)
	}
}

// run parses args, analyzes the batch and writes the JSON report to stdout.
// A file of "-" reads the batch from stdin.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("coordscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", `Batch JSON file, "-" for stdin`)
	timeout := fs.Duration("timeout", 0, "Analysis timeout (default from configuration)")
	pretty := fs.Bool("pretty", false, "Indent the report")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return errNoInput
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	// Logs go to stderr so stdout carries only the report.
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel), logger.WithOutput(stderr)); err != nil {
		return err
	}

	batch, err := readBatch(*file, stdin)
	if err != nil {
		return err
	}

	extra := []app.Option{app.WithWorkerCount(1)}
	if *timeout > 0 {
		extra = append(extra, app.WithAnalysisTimeout(*timeout))
	}
	svc := app.New(app.FromConfig(cfg, extra...)...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = svc.Stop(stopCtx)
	}()

	report, err := svc.Analyze(ctx, batch)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}

func readBatch(path string, stdin io.Reader) (model.Batch, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // operator supplied path
		if err != nil {
			return model.Batch{}, fmt.Errorf("open batch: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var batch model.Batch
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return model.Batch{}, fmt.Errorf("decode batch: %w", err)
	}
	return batch, nil
}
