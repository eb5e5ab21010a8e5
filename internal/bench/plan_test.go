package bench_test

import (
	"testing"
	"time"

	"github.com/wfbench/wfbench/internal/bench"
	"github.com/wfbench/wfbench/internal/destination"
	"github.com/wfbench/wfbench/internal/workflow"
)

func planStrings(items []bench.PlanItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.String()
	}
	return out
}

func assertPlan(t *testing.T, got []bench.PlanItem, want []string) {
	t.Helper()
	gotStr := planStrings(got)
	if len(gotStr) != len(want) {
		t.Fatalf("plan length %d, want %d: %v", len(gotStr), len(want), gotStr)
	}
	for i := range want {
		if gotStr[i] != want[i] {
			t.Fatalf("plan[%d] = %s, want %s (full plan: %v)", i, gotStr[i], want[i], gotStr)
		}
	}
}

func TestPlanComparisonDestinationMajor(t *testing.T) {
	b := bench.Benchmark{
		Scenario: bench.ScenarioDestinationComparison,
		Destinations: []destination.Destination{
			newFakeDestination("a", 0),
			newFakeDestination("b", 0),
		},
		Workflows: []workflow.Workflow{testWorkflow("w", time.Second)},
		Runs:      2,
	}

	assertPlan(t, b.Plan(), []string{
		"a/w#0(measured)",
		"a/w#1(measured)",
		"b/w#0(measured)",
		"b/w#1(measured)",
	})
}

func TestPlanComparisonExcludesWarmup(t *testing.T) {
	b := bench.Benchmark{
		Scenario:     bench.ScenarioDestinationComparison,
		Destinations: []destination.Destination{newFakeDestination("a", 0)},
		Workflows:    []workflow.Workflow{testWorkflow("w", time.Second)},
		Runs:         3,
		Warmup:       true,
	}

	if got := len(b.Plan()); got != 3 {
		t.Fatalf("warmup attempts must not appear in the plan, got %d items", got)
	}
}

func TestPlanColdWarmPairsPerAttempt(t *testing.T) {
	b := bench.Benchmark{
		Scenario:     bench.ScenarioColdWarm,
		Destinations: []destination.Destination{newFakeDestination("a", 0)},
		Workflows:    []workflow.Workflow{testWorkflow("w", time.Second)},
		Runs:         2,
	}

	assertPlan(t, b.Plan(), []string{
		"a/w#0(cold)",
		"a/w#0(warm)",
		"a/w#1(cold)",
		"a/w#1(warm)",
	})
}

func TestPlanBurstInterleavesDestinations(t *testing.T) {
	b := bench.Benchmark{
		Scenario: bench.ScenarioBurst,
		Destinations: []destination.Destination{
			newFakeDestination("a", 0),
			newFakeDestination("b", 0),
		},
		Workflows: []workflow.Workflow{testWorkflow("w", time.Second)},
		Runs:      2,
		BurstRate: 10,
	}

	assertPlan(t, b.Plan(), []string{
		"a/w#0(measured)",
		"b/w#0(measured)",
		"a/w#1(measured)",
		"b/w#1(measured)",
	})
}
