package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/wfbench/wfbench/internal/destination"
)

// Poll loop defaults. Destinations are queried at low frequency, so the loop
// uses a fixed interval rather than exponential backoff.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollRetries  = 3
)

// Poller drives a single submitted job from submission to a terminal
// JobResult. Each in-flight job gets its own Track call with its own timeout
// clock; a hung destination stalls only its own job.
type Poller struct {
	Interval time.Duration // time between status checks
	Retries  int           // consecutive transient poll errors tolerated
}

func (p Poller) normalize() Poller {
	if p.Interval <= 0 {
		p.Interval = DefaultPollInterval
	}
	if p.Retries < 0 {
		p.Retries = DefaultPollRetries
	}
	return p
}

// Track polls the handle until it terminates, the workflow timeout elapses,
// or the run is canceled. On timeout the job is not canceled on the
// destination; the poller simply stops observing it.
func (p Poller) Track(ctx context.Context, item PlanItem, handle destination.JobHandle, submitted time.Time) JobResult {
	p = p.normalize()

	result := JobResult{
		Destination: item.Destination.Name(),
		Workflow:    item.Workflow.Name,
		Attempt:     item.Attempt,
		Phase:       item.Phase,
		SubmittedAt: submitted,
	}

	deadline := time.NewTimer(time.Until(submitted.Add(item.Workflow.Timeout)))
	defer deadline.Stop()
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	consecutiveErrs := 0
	for {
		select {
		case <-ctx.Done():
			result.Status = StatusFailed
			result.Error = "run canceled"
			return result

		case <-deadline.C:
			result.Status = StatusTimeout
			result.Error = fmt.Sprintf("still pending after %s", item.Workflow.Timeout)
			return result

		case <-ticker.C:
			poll, err := item.Destination.Poll(ctx, handle)
			if err != nil {
				if ctx.Err() != nil {
					result.Status = StatusFailed
					result.Error = "run canceled"
					return result
				}
				consecutiveErrs++
				if consecutiveErrs > p.Retries {
					result.Status = StatusFailed
					result.Error = err.Error()
					return result
				}
				continue
			}
			consecutiveErrs = 0

			switch poll.State {
			case destination.StateOK:
				result.Status = StatusOK
				result.CompletedAt = time.Now()
				result.Metrics = poll.Metrics
				return result
			case destination.StateFailed:
				result.Status = StatusFailed
				result.CompletedAt = time.Now()
				result.Metrics = poll.Metrics
				result.Error = "destination reported job failure"
				return result
			}
			// pending, keep polling
		}
	}
}
