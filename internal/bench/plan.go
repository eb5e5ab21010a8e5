package bench

import (
	"fmt"

	"github.com/wfbench/wfbench/internal/destination"
	"github.com/wfbench/wfbench/internal/workflow"
)

// Phase tags what a submission attempt measures.
type Phase string

const (
	PhaseMeasured Phase = "measured"
	PhaseWarmup   Phase = "warmup"
	PhaseCold     Phase = "cold"
	PhaseWarm     Phase = "warm"
)

// PlanItem is one concrete submission scheduled within a run. The destination
// is referenced, not owned; plan items are generated once per run.
type PlanItem struct {
	Destination destination.Destination
	Workflow    workflow.Workflow
	Attempt     int
	Phase       Phase
}

func (i PlanItem) String() string {
	return fmt.Sprintf("%s/%s#%d(%s)", i.Destination.Name(), i.Workflow.Name, i.Attempt, i.Phase)
}

// Plan expands the benchmark definition into the ordered list of submissions
// that produce JobResults. Warmup attempts are not part of the plan; they are
// executed and discarded before the measured attempts of their pair.
func (b Benchmark) Plan() []PlanItem {
	switch b.Scenario {
	case ScenarioColdWarm:
		return b.expandColdWarm()
	case ScenarioBurst:
		return b.expandBurst()
	default:
		return b.expandComparison()
	}
}

// expandComparison orders items destination-major, then workflow, then
// attempt. Per destination the attempts run strictly sequentially; across
// destinations they run concurrently.
func (b Benchmark) expandComparison() []PlanItem {
	items := make([]PlanItem, 0, len(b.Destinations)*len(b.Workflows)*b.Runs)
	for _, dest := range b.Destinations {
		for _, wf := range b.Workflows {
			for i := 0; i < b.Runs; i++ {
				items = append(items, PlanItem{Destination: dest, Workflow: wf, Attempt: i, Phase: PhaseMeasured})
			}
		}
	}
	return items
}

// expandColdWarm pairs a cold and a warm attempt per repetition so the two
// can be compared under identical conditions.
func (b Benchmark) expandColdWarm() []PlanItem {
	items := make([]PlanItem, 0, len(b.Destinations)*len(b.Workflows)*b.Runs*2)
	for _, dest := range b.Destinations {
		for _, wf := range b.Workflows {
			for i := 0; i < b.Runs; i++ {
				items = append(items,
					PlanItem{Destination: dest, Workflow: wf, Attempt: i, Phase: PhaseCold},
					PlanItem{Destination: dest, Workflow: wf, Attempt: i, Phase: PhaseWarm},
				)
			}
		}
	}
	return items
}

// expandBurst interleaves attempt-major across destinations so a single
// global release rate spreads load evenly instead of exhausting one
// destination first.
func (b Benchmark) expandBurst() []PlanItem {
	items := make([]PlanItem, 0, len(b.Destinations)*len(b.Workflows)*b.Runs)
	for i := 0; i < b.Runs; i++ {
		for _, dest := range b.Destinations {
			for _, wf := range b.Workflows {
				items = append(items, PlanItem{Destination: dest, Workflow: wf, Attempt: i, Phase: PhaseMeasured})
			}
		}
	}
	return items
}
