package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/wfbench/wfbench/internal/bench"
	"github.com/wfbench/wfbench/internal/config"
	"github.com/wfbench/wfbench/internal/dashboard"
	"github.com/wfbench/wfbench/internal/metrics"
	"github.com/wfbench/wfbench/internal/output"
	"github.com/wfbench/wfbench/internal/tracing"
)

const progressInterval = time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	benchmarks, err := buildBenchmarks(cfg)
	if err != nil {
		return err
	}

	sink, err := output.NewFileSink(cfg.ResultsPath, cfg.ResultsSaveRaw)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	var tracer trace.Tracer
	if provider.Enabled() {
		tracer = provider.Tracer()
	}

	filter := map[string]bool{}
	for _, name := range cfg.Filter {
		filter[name] = true
	}

	for i, b := range benchmarks {
		currentRun := fmt.Sprintf("(%d/%d)", i+1, len(benchmarks))
		if len(filter) > 0 && !filter[b.Name] {
			fmt.Printf("%s Skipping %s\n", currentRun, b.Name)
			continue
		}

		if err := runBenchmark(ctx, cfg, b, tracer, sink, currentRun, cancel); err != nil {
			return err
		}

		// An interrupt stops the session, but only after the current run's
		// partial results have been flushed.
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "Interrupted, stopping after flushing partial results")
			return nil
		}
	}
	return nil
}

func runBenchmark(
	ctx context.Context,
	cfg *config.Config,
	b bench.Benchmark,
	tracer trace.Tracer,
	sink *output.FileSink,
	currentRun string,
	cancel context.CancelFunc,
) error {
	collector := metrics.NewCollector()
	ctrl := bench.New(b, bench.Options{
		Poller: bench.Poller{
			Interval: cfg.PollInterval,
			Retries:  cfg.PollRetries,
		},
		Recorder: collector,
		Tracer:   tracer,
	})

	var dash *dashboard.Dashboard
	var progress *output.ProgressReporter
	if cfg.Dashboard {
		var err error
		dash, err = dashboard.New(collector, dashboard.RunInfo{
			Benchmark:    b.Name,
			Scenario:     string(b.Scenario),
			Destinations: len(b.Destinations),
			Workflows:    len(b.Workflows),
			Runs:         b.Runs,
			PlannedJobs:  len(b.Plan()),
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
	} else if !cfg.JSONOutput {
		fmt.Printf("%s Starting benchmark %s (%s)\n", currentRun, b.Name, b.Scenario)
		progress = output.NewProgressReporter(collector, progressInterval, os.Stdout)
		progress.Start()
	}

	collector.Start()
	runResult := ctrl.Run(ctx)
	stats := collector.Stats(runResult.Finished.Sub(runResult.Started))

	if dash != nil {
		dash.Stop()
	}
	if progress != nil {
		progress.Stop()
		fmt.Println()
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, runResult, stats); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, runResult, stats)
	}

	path, err := sink.Write(runResult)
	if err != nil {
		return fmt.Errorf("save results for %s: %w", b.Name, err)
	}
	if !cfg.JSONOutput {
		fmt.Printf("Results written to %s\n", path)
	}

	if cfg.ResultsPrint && !cfg.JSONOutput {
		payload, err := json.MarshalIndent(runResult.Results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("#### Results for benchmark %s\n%s\n", b.Name, payload)
	}
	return nil
}
