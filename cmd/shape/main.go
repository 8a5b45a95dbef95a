// Command shape copies stdin to stdout, delaying each block so that the
// emitted byte stream conforms to the configured traffic contract. One byte
// is one event.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/torosent/stampede/internal/config"
	"github.com/torosent/stampede/internal/metrics"
	"github.com/torosent/stampede/internal/output"
	"github.com/torosent/stampede/internal/stream"
	"github.com/torosent/stampede/internal/threshold"
	"github.com/torosent/stampede/internal/tracing"
	"github.com/torosent/stampede/ticks"
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	loader := config.NewLoader("shape")
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return 0, nil
		}
		return 2, err
	}
	if err := cfg.Validate(); err != nil {
		return 2, err
	}

	thresholds, err := threshold.ParseAll(cfg.Thresholds)
	if err != nil {
		return 2, err
	}

	ctx := context.Background()
	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return 2, err
	}
	defer provider.Shutdown(ctx)

	meter := metrics.NewMeter()
	if cfg.Progress {
		progress := output.NewProgressReporter(meter, cfg.ProgressInterval, os.Stderr)
		progress.Start()
		defer progress.Stop()
	}

	shape := cfg.ShapingContract(ticks.Now())
	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "Contract: %s\n", &shape)
	}

	opt := stream.Options{BlockSize: cfg.BlockSize, Meter: meter}
	if cfg.Debug {
		opt.Debug = os.Stderr
	}

	_, span := tracing.StartRunSpan(ctx, provider.Tracer(), "shape", cfg.PeakRate, cfg.SustainedRate, cfg.BurstSize)
	start := time.Now()
	err = stream.Shape(&shape, os.Stdin, os.Stdout, opt)
	stats := meter.Stats(time.Since(start))
	tracing.EndSpan(span, err,
		attribute.Int64("stampede.events", stats.Events),
		attribute.Int64("stampede.violations", stats.Violations),
	)
	if err != nil {
		return 2, err
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(stats)
	if cfg.JSONOutput {
		if err := output.WriteJSON(os.Stderr, stats, results); err != nil {
			return 2, err
		}
	} else if cfg.Verbose {
		output.PrintReport(os.Stderr, "Shaping", stats, results)
	}

	for _, result := range results {
		if !result.Pass {
			return 1, fmt.Errorf("threshold failed: %s", result.Threshold.Raw)
		}
	}
	return 0, nil
}
