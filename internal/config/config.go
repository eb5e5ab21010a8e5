// Package config defines the benchmarker configuration model and its loader.
// All validation happens here, before any destination is contacted; invalid
// scenario, destination, workflow, or task combinations never reach the
// engine.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Scenario tags must match the engine's scenario set.
const (
	ScenarioDestinationComparison = "destination_comparison"
	ScenarioColdWarm              = "cold_warm"
	ScenarioBurst                 = "burst"
)

var knownScenarios = map[string]bool{
	ScenarioDestinationComparison: true,
	ScenarioColdWarm:              true,
	ScenarioBurst:                 true,
}

// Config is the top-level benchmarker configuration.
type Config struct {
	ResultsPath    string        `mapstructure:"results_path"`
	ResultsPrint   bool          `mapstructure:"results_print"`
	ResultsSaveRaw bool          `mapstructure:"results_save_raw"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	PollRetries    int           `mapstructure:"poll_retries"`
	JSONOutput     bool          `mapstructure:"json_output"`
	Dashboard      bool          `mapstructure:"dashboard"`
	Filter         []string      `mapstructure:"-"`
	NoPreTasks     bool          `mapstructure:"-"`
	NoPostTasks    bool          `mapstructure:"-"`
	ConfigFile     string        `mapstructure:"-"`

	Tracing      TracingConfig       `mapstructure:"tracing"`
	Destinations []DestinationConfig `mapstructure:"destinations"`
	Workflows    []WorkflowConfig    `mapstructure:"workflows"`
	Tasks        []TaskConfig        `mapstructure:"tasks"`
	Benchmarks   []BenchmarkConfig   `mapstructure:"benchmarks"`
}

// DestinationConfig declares one destination variant. Settings are the
// variant-specific keys, validated by the variant's factory.
type DestinationConfig struct {
	Name     string                 `mapstructure:"name"`
	Type     string                 `mapstructure:"type"`
	Settings map[string]interface{} `mapstructure:",remain"`
}

// WorkflowConfig declares one workflow.
type WorkflowConfig struct {
	Name    string        `mapstructure:"name"`
	Timeout time.Duration `mapstructure:"timeout"`
	Payload string        `mapstructure:"payload"`
}

// TaskConfig declares one reusable task referenced by name from benchmarks.
type TaskConfig struct {
	Name     string                 `mapstructure:"name"`
	Type     string                 `mapstructure:"type"`
	Settings map[string]interface{} `mapstructure:",remain"`
}

// BackgroundTaskConfig schedules a task during a burst run.
type BackgroundTaskConfig struct {
	Task          string        `mapstructure:"task"`
	FirstRunAfter time.Duration `mapstructure:"first_run_after"`
	RunEvery      time.Duration `mapstructure:"run_every"`
	RunUntil      time.Duration `mapstructure:"run_until"`
}

// BenchmarkConfig declares one benchmark run.
type BenchmarkConfig struct {
	Name            string                 `mapstructure:"name"`
	Type            string                 `mapstructure:"type"`
	Destinations    []string               `mapstructure:"destinations"`
	Workflows       []string               `mapstructure:"workflows"`
	Runs            int                    `mapstructure:"runs_per_workflow"`
	Warmup          *bool                  `mapstructure:"warmup"`
	BurstRate       float64                `mapstructure:"burst_rate"`
	PreTasks        []string               `mapstructure:"pre_tasks"`
	PostTasks       []string               `mapstructure:"post_tasks"`
	ColdPreTask     string                 `mapstructure:"cold_pre_task"`
	WarmPreTask     string                 `mapstructure:"warm_pre_task"`
	BackgroundTasks []BackgroundTaskConfig `mapstructure:"background_tasks"`
}

// TracingConfig controls the OpenTelemetry exporter.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // grpc or http
	ServiceName string  `mapstructure:"service_name"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Enabled reports whether tracing was requested.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ValidationError collects every configuration issue found in one pass.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if c.PollInterval < 0 {
		issues = append(issues, "poll_interval must be >= 0")
	}
	if c.PollRetries < 0 {
		issues = append(issues, "poll_retries must be >= 0")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}
	if len(c.Benchmarks) == 0 {
		issues = append(issues, "at least one benchmark is required")
	}

	destinations := map[string]bool{}
	for i, d := range c.Destinations {
		if strings.TrimSpace(d.Name) == "" {
			issues = append(issues, fmt.Sprintf("destinations[%d]: name is required", i))
			continue
		}
		if destinations[d.Name] {
			issues = append(issues, fmt.Sprintf("destination %q declared more than once", d.Name))
		}
		destinations[d.Name] = true
		if strings.TrimSpace(d.Type) == "" {
			issues = append(issues, fmt.Sprintf("destination %q: type is required", d.Name))
		}
	}

	workflows := map[string]bool{}
	for i, w := range c.Workflows {
		if strings.TrimSpace(w.Name) == "" {
			issues = append(issues, fmt.Sprintf("workflows[%d]: name is required", i))
			continue
		}
		if workflows[w.Name] {
			issues = append(issues, fmt.Sprintf("workflow %q declared more than once", w.Name))
		}
		workflows[w.Name] = true
		if w.Timeout < 0 {
			issues = append(issues, fmt.Sprintf("workflow %q: timeout must be >= 0", w.Name))
		}
	}

	tasks := map[string]bool{}
	for i, t := range c.Tasks {
		if strings.TrimSpace(t.Name) == "" {
			issues = append(issues, fmt.Sprintf("tasks[%d]: name is required", i))
			continue
		}
		if tasks[t.Name] {
			issues = append(issues, fmt.Sprintf("task %q declared more than once", t.Name))
		}
		tasks[t.Name] = true
		if strings.TrimSpace(t.Type) == "" {
			issues = append(issues, fmt.Sprintf("task %q: type is required", t.Name))
		}
	}

	for _, b := range c.Benchmarks {
		issues = append(issues, b.validate(destinations, workflows, tasks)...)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func (b BenchmarkConfig) validate(destinations, workflows, tasks map[string]bool) []string {
	var issues []string
	name := b.Name
	if strings.TrimSpace(name) == "" {
		issues = append(issues, "benchmark name is required")
		name = "(unnamed)"
	}

	if !knownScenarios[b.Type] {
		issues = append(issues, fmt.Sprintf("benchmark %q: unknown type %q", name, b.Type))
	}
	if len(b.Destinations) == 0 {
		issues = append(issues, fmt.Sprintf("benchmark %q: at least one destination is required", name))
	}
	if len(b.Workflows) == 0 {
		issues = append(issues, fmt.Sprintf("benchmark %q: at least one workflow is required", name))
	}
	if b.Runs < 0 {
		issues = append(issues, fmt.Sprintf("benchmark %q: runs_per_workflow must be >= 0", name))
	}

	switch b.Type {
	case ScenarioColdWarm:
		if len(b.Destinations) > 1 {
			issues = append(issues, fmt.Sprintf("benchmark %q: cold_warm allows exactly one destination", name))
		}
	case ScenarioBurst:
		if b.BurstRate <= 0 {
			issues = append(issues, fmt.Sprintf("benchmark %q: burst requires burst_rate > 0", name))
		}
	}

	for _, d := range b.Destinations {
		if !destinations[d] {
			issues = append(issues, fmt.Sprintf("benchmark %q: destination %q is not declared", name, d))
		}
	}
	for _, w := range b.Workflows {
		if !workflows[w] {
			issues = append(issues, fmt.Sprintf("benchmark %q: workflow %q is not declared", name, w))
		}
	}
	for _, ref := range b.taskRefs() {
		if !tasks[ref] {
			issues = append(issues, fmt.Sprintf("benchmark %q: task %q is not declared", name, ref))
		}
	}
	return issues
}

func (b BenchmarkConfig) taskRefs() []string {
	refs := make([]string, 0, len(b.PreTasks)+len(b.PostTasks)+len(b.BackgroundTasks)+2)
	refs = append(refs, b.PreTasks...)
	refs = append(refs, b.PostTasks...)
	if b.ColdPreTask != "" {
		refs = append(refs, b.ColdPreTask)
	}
	if b.WarmPreTask != "" {
		refs = append(refs, b.WarmPreTask)
	}
	for _, bt := range b.BackgroundTasks {
		refs = append(refs, bt.Task)
	}
	return refs
}
