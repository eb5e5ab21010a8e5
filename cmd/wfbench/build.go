package main

import (
	"fmt"

	"github.com/wfbench/wfbench/internal/bench"
	"github.com/wfbench/wfbench/internal/config"
	"github.com/wfbench/wfbench/internal/destination"
	"github.com/wfbench/wfbench/internal/task"
	"github.com/wfbench/wfbench/internal/workflow"
)

// buildBenchmarks resolves every name reference in the configuration into
// constructed destinations, workflows, and tasks, and returns the fully
// wired benchmark definitions in declaration order.
func buildBenchmarks(cfg *config.Config) ([]bench.Benchmark, error) {
	destinations := map[string]destination.Destination{}
	for _, dc := range cfg.Destinations {
		dest, err := destination.New(dc.Type, dc.Name, dc.Settings)
		if err != nil {
			return nil, err
		}
		destinations[dc.Name] = dest
	}

	workflows := map[string]workflow.Workflow{}
	for _, wc := range cfg.Workflows {
		wf, err := workflow.New(wc.Name, wc.Timeout, wc.Payload)
		if err != nil {
			return nil, err
		}
		workflows[wc.Name] = wf
	}

	tasks := map[string]task.Task{}
	for _, tc := range cfg.Tasks {
		t, err := task.New(tc.Type, tc.Name, tc.Settings)
		if err != nil {
			return nil, err
		}
		tasks[tc.Name] = t
	}

	benchmarks := make([]bench.Benchmark, 0, len(cfg.Benchmarks))
	for _, bc := range cfg.Benchmarks {
		b, err := buildBenchmark(cfg, bc, destinations, workflows, tasks)
		if err != nil {
			return nil, err
		}
		benchmarks = append(benchmarks, b)
	}
	return benchmarks, nil
}

func buildBenchmark(
	cfg *config.Config,
	bc config.BenchmarkConfig,
	destinations map[string]destination.Destination,
	workflows map[string]workflow.Workflow,
	tasks map[string]task.Task,
) (bench.Benchmark, error) {
	b := bench.Benchmark{
		Name:      bc.Name,
		Scenario:  bench.Scenario(bc.Type),
		Runs:      bc.Runs,
		BurstRate: bc.BurstRate,
	}
	if b.Runs == 0 {
		b.Runs = 1
	}

	// Warmup defaults to on for destination comparisons so tool installation
	// and cache priming do not spoil the first measured attempt.
	if b.Scenario == bench.ScenarioDestinationComparison {
		b.Warmup = bc.Warmup == nil || *bc.Warmup
	}

	for _, name := range bc.Destinations {
		dest, ok := destinations[name]
		if !ok {
			return b, fmt.Errorf("benchmark %q: destination %q is not declared", bc.Name, name)
		}
		b.Destinations = append(b.Destinations, dest)
	}
	for _, name := range bc.Workflows {
		wf, ok := workflows[name]
		if !ok {
			return b, fmt.Errorf("benchmark %q: workflow %q is not declared", bc.Name, name)
		}
		b.Workflows = append(b.Workflows, wf)
	}

	lookupTask := func(name string) (task.Task, error) {
		t, ok := tasks[name]
		if !ok {
			return nil, fmt.Errorf("benchmark %q: task %q is not declared", bc.Name, name)
		}
		return t, nil
	}

	if !cfg.NoPreTasks {
		for _, name := range bc.PreTasks {
			t, err := lookupTask(name)
			if err != nil {
				return b, err
			}
			b.PreTasks = append(b.PreTasks, t)
		}
	}
	if !cfg.NoPostTasks {
		for _, name := range bc.PostTasks {
			t, err := lookupTask(name)
			if err != nil {
				return b, err
			}
			b.PostTasks = append(b.PostTasks, t)
		}
	}

	var err error
	if bc.ColdPreTask != "" {
		if b.ColdPreTask, err = lookupTask(bc.ColdPreTask); err != nil {
			return b, err
		}
	}
	if bc.WarmPreTask != "" {
		if b.WarmPreTask, err = lookupTask(bc.WarmPreTask); err != nil {
			return b, err
		}
	}

	for _, btc := range bc.BackgroundTasks {
		t, err := lookupTask(btc.Task)
		if err != nil {
			return b, err
		}
		b.Background = append(b.Background, bench.BackgroundTask{
			Task:          t,
			FirstRunAfter: btc.FirstRunAfter,
			RunEvery:      btc.RunEvery,
			RunUntil:      btc.RunUntil,
		})
	}
	return b, nil
}
