package bench_test

import (
	"context"
	"testing"
	"time"

	"github.com/wfbench/wfbench/internal/bench"
)

func trackOne(t *testing.T, dest *fakeDestination, poller bench.Poller, timeout time.Duration) bench.JobResult {
	t.Helper()
	wf := testWorkflow("wf", timeout)
	item := bench.PlanItem{Destination: dest, Workflow: wf, Phase: bench.PhaseMeasured}
	handle, err := dest.Submit(context.Background(), wf)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return poller.Track(context.Background(), item, handle, time.Now())
}

func TestTrackReachesTerminalOK(t *testing.T) {
	dest := newFakeDestination("a", 20*time.Millisecond)
	poller := bench.Poller{Interval: 5 * time.Millisecond, Retries: 3}

	result := trackOne(t, dest, poller, time.Second)

	if result.Status != bench.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", result.Status, result.Error)
	}
	if result.CompletedAt.IsZero() {
		t.Fatalf("terminal result must carry a completion timestamp")
	}
	if result.Runtime() <= 0 {
		t.Fatalf("runtime must be positive, got %s", result.Runtime())
	}
	if result.Metrics["staging_time"] == nil {
		t.Fatalf("poll metrics must be recorded verbatim")
	}
}

func TestTrackReportsDestinationFailure(t *testing.T) {
	dest := newFakeDestination("a", 10*time.Millisecond)
	dest.failJobs = true
	poller := bench.Poller{Interval: 5 * time.Millisecond, Retries: 3}

	result := trackOne(t, dest, poller, time.Second)

	if result.Status != bench.StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if result.CompletedAt.IsZero() {
		t.Fatalf("a failed job still reached a terminal state; CompletedAt must be set")
	}
}

func TestTrackTimesOut(t *testing.T) {
	dest := newFakeDestination("a", time.Minute)
	poller := bench.Poller{Interval: 5 * time.Millisecond, Retries: 3}

	result := trackOne(t, dest, poller, 40*time.Millisecond)

	if result.Status != bench.StatusTimeout {
		t.Fatalf("expected timeout, got %s (%s)", result.Status, result.Error)
	}
	if !result.CompletedAt.IsZero() {
		t.Fatalf("timed-out job never completed; CompletedAt must stay zero")
	}
	if result.Runtime() != 0 {
		t.Fatalf("timed-out job has no runtime, got %s", result.Runtime())
	}
}

func TestTrackToleratesTransientPollErrors(t *testing.T) {
	dest := newFakeDestination("a", 10*time.Millisecond)
	dest.pollErrs = 3
	poller := bench.Poller{Interval: 5 * time.Millisecond, Retries: 3}

	result := trackOne(t, dest, poller, time.Second)

	if result.Status != bench.StatusOK {
		t.Fatalf("three transient errors are within budget, got %s (%s)", result.Status, result.Error)
	}
}

func TestTrackFailsAfterRetryBudget(t *testing.T) {
	dest := newFakeDestination("a", 10*time.Millisecond)
	dest.pollErrs = 100
	poller := bench.Poller{Interval: 5 * time.Millisecond, Retries: 2}

	result := trackOne(t, dest, poller, time.Second)

	if result.Status != bench.StatusFailed {
		t.Fatalf("expected failed after exhausted retries, got %s", result.Status)
	}
	if result.Error == "" {
		t.Fatalf("exhausted retries must surface the last poll error")
	}
}

func TestTrackStopsOnCancel(t *testing.T) {
	dest := newFakeDestination("a", time.Minute)
	poller := bench.Poller{Interval: 5 * time.Millisecond, Retries: 3}
	wf := testWorkflow("wf", time.Minute)
	item := bench.PlanItem{Destination: dest, Workflow: wf, Phase: bench.PhaseMeasured}
	handle, err := dest.Submit(context.Background(), wf)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result := poller.Track(ctx, item, handle, time.Now())

	if result.Status != bench.StatusFailed {
		t.Fatalf("expected failed on cancel, got %s", result.Status)
	}
	if result.Error != "run canceled" {
		t.Fatalf("unexpected error message %q", result.Error)
	}
}
