package main

import (
	"testing"

	"github.com/wfbench/wfbench/internal/bench"
	"github.com/wfbench/wfbench/internal/config"
)

func buildConfig() *config.Config {
	return &config.Config{
		Destinations: []config.DestinationConfig{
			{Name: "a", Type: "http", Settings: map[string]interface{}{"base_url": "http://a.example"}},
			{Name: "b", Type: "http", Settings: map[string]interface{}{"base_url": "http://b.example"}},
		},
		Workflows: []config.WorkflowConfig{{Name: "w"}},
		Tasks: []config.TaskConfig{
			{Name: "clean", Type: "command", Settings: map[string]interface{}{"command": "true"}},
		},
		Benchmarks: []config.BenchmarkConfig{
			{
				Name:         "cmp",
				Type:         config.ScenarioDestinationComparison,
				Destinations: []string{"a", "b"},
				Workflows:    []string{"w"},
				PreTasks:     []string{"clean"},
				PostTasks:    []string{"clean"},
			},
		},
	}
}

func TestBuildBenchmarksResolvesReferences(t *testing.T) {
	benchmarks, err := buildBenchmarks(buildConfig())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(benchmarks) != 1 {
		t.Fatalf("benchmarks = %d", len(benchmarks))
	}

	b := benchmarks[0]
	if len(b.Destinations) != 2 || b.Destinations[0].Name() != "a" {
		t.Fatalf("destinations not resolved: %+v", b.Destinations)
	}
	if len(b.Workflows) != 1 || b.Workflows[0].Name != "w" {
		t.Fatalf("workflows not resolved: %+v", b.Workflows)
	}
	if len(b.PreTasks) != 1 || len(b.PostTasks) != 1 {
		t.Fatalf("tasks not resolved")
	}
	if b.Runs != 1 {
		t.Fatalf("runs must default to 1, got %d", b.Runs)
	}
}

func TestBuildBenchmarksWarmupDefault(t *testing.T) {
	cfg := buildConfig()

	benchmarks, err := buildBenchmarks(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !benchmarks[0].Warmup {
		t.Fatalf("comparison benchmarks default to warmup on")
	}

	off := false
	cfg.Benchmarks[0].Warmup = &off
	benchmarks, err = buildBenchmarks(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if benchmarks[0].Warmup {
		t.Fatalf("explicit warmup: false must be honored")
	}
}

func TestBuildBenchmarksSkipFlags(t *testing.T) {
	cfg := buildConfig()
	cfg.NoPreTasks = true
	cfg.NoPostTasks = true

	benchmarks, err := buildBenchmarks(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(benchmarks[0].PreTasks) != 0 || len(benchmarks[0].PostTasks) != 0 {
		t.Fatalf("skip flags not honored")
	}
}

func TestBuildBenchmarksColdWarmScenario(t *testing.T) {
	cfg := buildConfig()
	cfg.Benchmarks[0].Type = config.ScenarioColdWarm
	cfg.Benchmarks[0].Destinations = []string{"a"}
	cfg.Benchmarks[0].ColdPreTask = "clean"
	cfg.Benchmarks[0].WarmPreTask = "clean"

	benchmarks, err := buildBenchmarks(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b := benchmarks[0]
	if b.Scenario != bench.ScenarioColdWarm {
		t.Fatalf("scenario = %s", b.Scenario)
	}
	if b.ColdPreTask == nil || b.WarmPreTask == nil {
		t.Fatalf("phase tasks not resolved")
	}
	if b.Warmup {
		t.Fatalf("warmup applies to comparison runs only")
	}
}

func TestBuildBenchmarksUndeclaredReference(t *testing.T) {
	cfg := buildConfig()
	cfg.Benchmarks[0].PreTasks = []string{"ghost"}

	if _, err := buildBenchmarks(cfg); err == nil {
		t.Fatalf("undeclared task must fail")
	}
}
