package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

const sampleConfig = `
results_path: /tmp/bench-results
poll_interval: 10s
poll_retries: 5

destinations:
  - name: cluster-a
    type: http
    base_url: http://cluster-a.example
    auth_token: secret

workflows:
  - name: mapping
    timeout: 45m

tasks:
  - name: evict-cache
    type: command
    command: sh
    args: ["-c", "true"]

benchmarks:
  - name: cold-vs-warm
    type: cold_warm
    destinations: [cluster-a]
    workflows: [mapping]
    runs_per_workflow: 3
    cold_pre_task: evict-cache
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "benchmarks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := NewLoader().Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ResultsPath != "/tmp/bench-results" {
		t.Fatalf("results_path = %q", cfg.ResultsPath)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("poll_interval = %s", cfg.PollInterval)
	}
	if cfg.PollRetries != 5 {
		t.Fatalf("poll_retries = %d", cfg.PollRetries)
	}

	if len(cfg.Destinations) != 1 {
		t.Fatalf("destinations = %d", len(cfg.Destinations))
	}
	d := cfg.Destinations[0]
	if d.Name != "cluster-a" || d.Type != "http" {
		t.Fatalf("destination parsed wrong: %+v", d)
	}
	// variant-specific keys land in Settings untouched
	if d.Settings["base_url"] != "http://cluster-a.example" {
		t.Fatalf("settings remain not captured: %v", d.Settings)
	}
	if d.Settings["auth_token"] != "secret" {
		t.Fatalf("settings remain not captured: %v", d.Settings)
	}

	if len(cfg.Workflows) != 1 || cfg.Workflows[0].Timeout != 45*time.Minute {
		t.Fatalf("workflow timeout not parsed: %+v", cfg.Workflows)
	}

	if len(cfg.Benchmarks) != 1 {
		t.Fatalf("benchmarks = %d", len(cfg.Benchmarks))
	}
	b := cfg.Benchmarks[0]
	if b.Type != ScenarioColdWarm || b.Runs != 3 || b.ColdPreTask != "evict-cache" {
		t.Fatalf("benchmark parsed wrong: %+v", b)
	}
	if b.Warmup != nil {
		t.Fatalf("absent warmup key must stay nil, got %v", *b.Warmup)
	}
}

func TestLoadFlagOverrides(t *testing.T) {
	doc := map[string]interface{}{
		"poll_interval": "10s",
		"results_path":  "from-file",
		"destinations": []map[string]interface{}{
			{"name": "a", "type": "http", "base_url": "http://a"},
		},
		"workflows": []map[string]interface{}{{"name": "w"}},
		"benchmarks": []map[string]interface{}{
			{"name": "b", "type": "destination_comparison", "destinations": []string{"a"}, "workflows": []string{"w"}},
		},
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	path := writeConfig(t, string(raw))

	cfg, err := NewLoader().Load([]string{
		"--config", path,
		"--poll-interval", "1s",
		"--results-path", "from-flag",
		"--filter", "b",
		"--no-posttasks",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.PollInterval != time.Second {
		t.Fatalf("flag must override file, got %s", cfg.PollInterval)
	}
	if cfg.ResultsPath != "from-flag" {
		t.Fatalf("flag must override file, got %q", cfg.ResultsPath)
	}
	if len(cfg.Filter) != 1 || cfg.Filter[0] != "b" {
		t.Fatalf("filter = %v", cfg.Filter)
	}
	if !cfg.NoPostTasks {
		t.Fatalf("no-posttasks not applied")
	}
}

func TestLoadMissingConfigIsHelp(t *testing.T) {
	_, err := NewLoader().Load(nil)
	if !errors.Is(err, ErrHelpRequested) {
		t.Fatalf("expected help, got %v", err)
	}
}

func TestLoadUnreadableConfig(t *testing.T) {
	_, err := NewLoader().Load([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})
	if err == nil || errors.Is(err, ErrHelpRequested) {
		t.Fatalf("expected read error, got %v", err)
	}
}
