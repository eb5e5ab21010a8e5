package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wfbench/wfbench/internal/destination"
	"github.com/wfbench/wfbench/internal/task"
	"github.com/wfbench/wfbench/internal/workflow"
)

// Scenario selects how a benchmark run sequences its submissions.
type Scenario string

const (
	ScenarioDestinationComparison Scenario = "destination_comparison"
	ScenarioColdWarm              Scenario = "cold_warm"
	ScenarioBurst                 Scenario = "burst"
)

// BackgroundTask runs a task on a schedule while Executing is in progress.
// Failures are recorded and never abort the run.
type BackgroundTask struct {
	Task          task.Task
	FirstRunAfter time.Duration
	RunEvery      time.Duration
	RunUntil      time.Duration // 0 means until the run finishes
}

// Benchmark is one declarative benchmark definition, fully resolved: every
// destination, workflow, and task reference has already been constructed.
type Benchmark struct {
	Name         string
	Scenario     Scenario
	Destinations []destination.Destination
	Workflows    []workflow.Workflow
	Runs         int
	Warmup       bool
	BurstRate    float64

	PreTasks    []task.Task
	PostTasks   []task.Task
	ColdPreTask task.Task // mandatory before each cold attempt
	WarmPreTask task.Task // advisory before each warm attempt
	Background  []BackgroundTask
}

func (b Benchmark) validate() error {
	if len(b.Destinations) == 0 {
		return fmt.Errorf("benchmark %q: at least one destination is required", b.Name)
	}
	if len(b.Workflows) == 0 {
		return fmt.Errorf("benchmark %q: at least one workflow is required", b.Name)
	}
	if b.Runs < 1 {
		return fmt.Errorf("benchmark %q: runs_per_workflow must be at least 1", b.Name)
	}
	switch b.Scenario {
	case ScenarioDestinationComparison:
	case ScenarioColdWarm:
		if len(b.Destinations) != 1 {
			return fmt.Errorf("benchmark %q: cold_warm allows exactly one destination, got %d", b.Name, len(b.Destinations))
		}
	case ScenarioBurst:
		if b.BurstRate <= 0 {
			return fmt.Errorf("benchmark %q: burst requires burst_rate > 0", b.Name)
		}
	default:
		return fmt.Errorf("benchmark %q: unknown scenario %q", b.Name, b.Scenario)
	}
	return nil
}

// Recorder observes each measured JobResult as it terminates, for live
// progress and stats. May be nil.
type Recorder interface {
	Record(JobResult)
}

// Options configure a Controller beyond the benchmark definition itself.
type Options struct {
	Poller   Poller
	Recorder Recorder
	Tracer   trace.Tracer
}

// Controller orchestrates one full benchmark run: pre-tasks, the
// scenario-specific executing phase, and post-tasks, which are attempted even
// when executing aborts.
type Controller struct {
	bench  Benchmark
	poller Poller
	rec    Recorder
	tracer trace.Tracer

	mu  sync.Mutex
	run *Run
}

func New(b Benchmark, opts Options) *Controller {
	return &Controller{
		bench:  b,
		poller: opts.Poller.normalize(),
		rec:    opts.Recorder,
		tracer: opts.Tracer,
	}
}

// Run executes the benchmark once and returns the immutable result set.
// Canceling ctx lets in-flight pollers record what they know and still runs
// the post-tasks; it never discards partial results.
func (c *Controller) Run(ctx context.Context) *Run {
	run := &Run{
		ID:        ulid.Make().String(),
		Benchmark: c.bench.Name,
		Scenario:  c.bench.Scenario,
		Runs:      c.bench.Runs,
		Warmup:    c.bench.Warmup,
		BurstRate: c.bench.BurstRate,
		Started:   time.Now(),
		Outcome:   OutcomeCompleted,
	}
	c.mu.Lock()
	c.run = run
	c.mu.Unlock()

	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, "benchmark run",
			trace.WithAttributes(
				attribute.String("wfbench.benchmark", c.bench.Name),
				attribute.String("wfbench.scenario", string(c.bench.Scenario)),
				attribute.String("wfbench.run_id", run.ID),
			))
		defer span.End()
	}

	if err := c.bench.validate(); err != nil {
		run.Outcome = OutcomeAborted
		run.AbortReason = err.Error()
		if span != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		c.runTaskList(ctx, "post", c.bench.PostTasks)
		run.Finished = time.Now()
		return run
	}

	c.runTaskList(ctx, "pre", c.bench.PreTasks)

	measured := &resultSet{}
	warmups := &resultSet{}
	switch c.bench.Scenario {
	case ScenarioColdWarm:
		c.runColdWarm(ctx, measured)
	case ScenarioBurst:
		c.runBurst(ctx, measured)
	default:
		c.runComparison(ctx, measured, warmups)
	}

	// Post-tasks are best-effort cleanup; run them on a fresh context so a
	// canceled run still gets them.
	c.runTaskList(context.WithoutCancel(ctx), "post", c.bench.PostTasks)

	run.Results = measured.snapshot()
	run.WarmupResults = warmups.snapshot()
	run.Interrupted = ctx.Err() != nil
	run.Finished = time.Now()
	return run
}

// runComparison runs each destination in its own goroutine. Within a
// destination, attempt i for a workflow starts only after attempt i-1 reached
// a terminal state, which keeps request amplification against a single
// destination in check.
func (c *Controller) runComparison(ctx context.Context, measured, warmups *resultSet) {
	var wg sync.WaitGroup
	for _, dest := range c.bench.Destinations {
		wg.Add(1)
		go func(dest destination.Destination) {
			defer wg.Done()
			for _, wf := range c.bench.Workflows {
				if ctx.Err() != nil {
					return
				}
				if c.bench.Warmup {
					warmups.append(c.execute(ctx, PlanItem{Destination: dest, Workflow: wf, Phase: PhaseWarmup}))
				}
				for i := 0; i < c.bench.Runs; i++ {
					if ctx.Err() != nil {
						return
					}
					c.record(measured, c.execute(ctx, PlanItem{Destination: dest, Workflow: wf, Attempt: i, Phase: PhaseMeasured}))
				}
			}
		}(dest)
	}
	wg.Wait()
}

// runColdWarm alternates cold and warm attempts on the single configured
// destination. The cold preparation task is mandatory: its failure skips the
// cold attempt (recorded as submit_error) but not the rest of the run.
func (c *Controller) runColdWarm(ctx context.Context, measured *resultSet) {
	dest := c.bench.Destinations[0]
	cleaner, canClean := dest.(destination.Cleaner)

	for _, wf := range c.bench.Workflows {
		for i := 0; i < c.bench.Runs; i++ {
			if ctx.Err() != nil {
				return
			}

			coldItem := PlanItem{Destination: dest, Workflow: wf, Attempt: i, Phase: PhaseCold}
			coldReady := true
			if c.bench.ColdPreTask != nil {
				if err := c.bench.ColdPreTask.Run(ctx); err != nil {
					c.noteTaskFailure("cold_pre", c.bench.ColdPreTask.Name(), err)
					coldReady = false
				}
			}
			if coldReady && canClean {
				if err := cleaner.Cleanup(ctx); err != nil {
					c.noteTaskFailure("cleanup", dest.Name(), err)
				}
			}

			if coldReady {
				c.record(measured, c.execute(ctx, coldItem))
			} else {
				c.record(measured, JobResult{
					Destination: dest.Name(),
					Workflow:    wf.Name,
					Attempt:     i,
					Phase:       PhaseCold,
					Status:      StatusSubmitError,
					SubmittedAt: time.Now(),
					Error:       "cold pre-task failed, attempt skipped",
				})
			}

			if ctx.Err() != nil {
				return
			}
			if c.bench.WarmPreTask != nil {
				if err := c.bench.WarmPreTask.Run(ctx); err != nil {
					c.noteTaskFailure("warm_pre", c.bench.WarmPreTask.Name(), err)
				}
			}
			c.record(measured, c.execute(ctx, PlanItem{Destination: dest, Workflow: wf, Attempt: i, Phase: PhaseWarm}))
		}
	}
}

// runBurst dispatches every plan item on the virtual release schedule while
// polling proceeds concurrently for all in-flight jobs.
func (c *Controller) runBurst(ctx context.Context, measured *resultSet) {
	stop := c.startBackgroundTasks(ctx)
	defer stop()

	gate := newBurstGate(c.bench.BurstRate)
	var wg sync.WaitGroup
	for _, item := range c.bench.expandBurst() {
		if err := gate.Wait(ctx); err != nil {
			break
		}
		wg.Add(1)
		go func(item PlanItem) {
			defer wg.Done()
			c.record(measured, c.execute(ctx, item))
		}(item)
	}
	wg.Wait()
}

// execute performs one submit and, when the submission is accepted, tracks
// the job to a terminal state. Every outcome becomes a JobResult.
func (c *Controller) execute(ctx context.Context, item PlanItem) JobResult {
	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, "submission",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("wfbench.destination", item.Destination.Name()),
				attribute.String("wfbench.workflow", item.Workflow.Name),
				attribute.Int("wfbench.attempt", item.Attempt),
				attribute.String("wfbench.phase", string(item.Phase)),
			))
	}

	submitted := time.Now()
	handle, err := item.Destination.Submit(ctx, item.Workflow)

	var result JobResult
	if err != nil {
		result = JobResult{
			Destination: item.Destination.Name(),
			Workflow:    item.Workflow.Name,
			Attempt:     item.Attempt,
			Phase:       item.Phase,
			Status:      StatusSubmitError,
			SubmittedAt: submitted,
			Error:       err.Error(),
		}
	} else {
		result = c.poller.Track(ctx, item, handle, submitted)
	}

	if span != nil {
		span.SetAttributes(attribute.String("wfbench.status", string(result.Status)))
		if result.Status == StatusOK {
			span.SetStatus(codes.Ok, "")
		} else {
			span.SetStatus(codes.Error, result.Error)
		}
		span.End()
	}
	return result
}

func (c *Controller) record(set *resultSet, result JobResult) {
	set.append(result)
	if c.rec != nil {
		c.rec.Record(result)
	}
}

func (c *Controller) noteTaskFailure(stage, name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.run.TaskFailures = append(c.run.TaskFailures, TaskFailure{Stage: stage, Task: name, Error: err.Error()})
}

func (c *Controller) runTaskList(ctx context.Context, stage string, tasks []task.Task) {
	for _, t := range tasks {
		if err := t.Run(ctx); err != nil {
			c.noteTaskFailure(stage, t.Name(), err)
		}
	}
}

// startBackgroundTasks launches the scheduled background tasks, if any, and
// returns a stop function that waits for the scheduler goroutine to exit.
func (c *Controller) startBackgroundTasks(ctx context.Context) func() {
	if len(c.bench.Background) == 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.runBackgroundTasks(ctx, done)
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func (c *Controller) runBackgroundTasks(ctx context.Context, done <-chan struct{}) {
	type scheduled struct {
		bt      BackgroundTask
		nextRun time.Time
		until   time.Time
	}

	start := time.Now()
	tasks := make([]*scheduled, 0, len(c.bench.Background))
	for _, bt := range c.bench.Background {
		s := &scheduled{bt: bt, nextRun: start.Add(bt.FirstRunAfter)}
		if bt.RunUntil > 0 {
			s.until = start.Add(bt.RunUntil)
		}
		tasks = append(tasks, s)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, s := range tasks {
				if s.nextRun.IsZero() || now.Before(s.nextRun) {
					continue
				}
				if !s.until.IsZero() && now.After(s.until) {
					s.nextRun = time.Time{}
					continue
				}
				if err := s.bt.Task.Run(ctx); err != nil {
					c.noteTaskFailure("background", s.bt.Task.Name(), err)
				}
				s.nextRun = time.Now().Add(s.bt.RunEvery)
			}
		}
	}
}
