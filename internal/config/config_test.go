package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Destinations: []DestinationConfig{
			{Name: "a", Type: "http"},
			{Name: "b", Type: "http"},
		},
		Workflows: []WorkflowConfig{{Name: "w"}},
		Tasks:     []TaskConfig{{Name: "clean", Type: "command"}},
		Benchmarks: []BenchmarkConfig{
			{
				Name:         "cmp",
				Type:         ScenarioDestinationComparison,
				Destinations: []string{"a", "b"},
				Workflows:    []string{"w"},
				PostTasks:    []string{"clean"},
			},
		},
	}
}

func assertIssue(t *testing.T, err error, substr string) {
	t.Helper()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	for _, issue := range verr.Issues() {
		if strings.Contains(issue, substr) {
			return
		}
	}
	t.Fatalf("no issue mentioning %q in %v", substr, verr.Issues())
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsColdWarmWithTwoDestinations(t *testing.T) {
	cfg := validConfig()
	cfg.Benchmarks[0].Type = ScenarioColdWarm

	assertIssue(t, cfg.Validate(), "cold_warm allows exactly one destination")
}

func TestValidateRejectsBurstWithoutRate(t *testing.T) {
	cfg := validConfig()
	cfg.Benchmarks[0].Type = ScenarioBurst

	assertIssue(t, cfg.Validate(), "burst requires burst_rate > 0")
}

func TestValidateRejectsUnknownScenario(t *testing.T) {
	cfg := validConfig()
	cfg.Benchmarks[0].Type = "stress"

	assertIssue(t, cfg.Validate(), `unknown type "stress"`)
}

func TestValidateRejectsUndeclaredReferences(t *testing.T) {
	cfg := validConfig()
	cfg.Benchmarks[0].Destinations = append(cfg.Benchmarks[0].Destinations, "ghost")
	cfg.Benchmarks[0].Workflows = append(cfg.Benchmarks[0].Workflows, "phantom")
	cfg.Benchmarks[0].ColdPreTask = "spectre"

	err := cfg.Validate()
	assertIssue(t, err, `destination "ghost" is not declared`)
	assertIssue(t, err, `workflow "phantom" is not declared`)
	assertIssue(t, err, `task "spectre" is not declared`)
}

func TestValidateRejectsDuplicates(t *testing.T) {
	cfg := validConfig()
	cfg.Destinations = append(cfg.Destinations, DestinationConfig{Name: "a", Type: "http"})
	cfg.Workflows = append(cfg.Workflows, WorkflowConfig{Name: "w"})

	err := cfg.Validate()
	assertIssue(t, err, `destination "a" declared more than once`)
	assertIssue(t, err, `workflow "w" declared more than once`)
}

func TestValidateRejectsEmptyBenchmarks(t *testing.T) {
	cfg := validConfig()
	cfg.Benchmarks = nil

	assertIssue(t, cfg.Validate(), "at least one benchmark is required")
}

func TestValidateRejectsDashboardWithJSON(t *testing.T) {
	cfg := validConfig()
	cfg.Dashboard = true
	cfg.JSONOutput = true

	assertIssue(t, cfg.Validate(), "mutually exclusive")
}

func TestValidateCollectsAllIssues(t *testing.T) {
	cfg := Config{
		PollInterval: -1,
		Benchmarks:   []BenchmarkConfig{{Type: "nope"}},
	}

	err := cfg.Validate()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Issues()) < 3 {
		t.Fatalf("expected every issue reported in one pass, got %v", verr.Issues())
	}
}
