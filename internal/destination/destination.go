// Package destination defines the driver contract for job-execution
// back-ends: submit a workflow, poll the resulting job to a terminal state,
// and optionally clean up between cold and warm phases.
package destination

import (
	"context"
	"fmt"

	"github.com/wfbench/wfbench/internal/workflow"
)

// State is a job state reported by a destination poll.
type State string

const (
	StatePending State = "pending"
	StateOK      State = "ok"
	StateFailed  State = "failed"
)

// Terminal reports whether no further poll can change the state.
func (s State) Terminal() bool {
	return s == StateOK || s == StateFailed
}

// JobHandle is the opaque token a destination returns on submission. It is
// only meaningful to the destination that issued it and is never reused.
type JobHandle struct {
	ID          string
	Destination string
}

// PollResult is one observation of a submitted job. Metrics are
// destination-supplied key/value pairs recorded verbatim into the JobResult.
type PollResult struct {
	State   State
	Metrics map[string]interface{}
}

// Destination is a back-end capable of accepting and executing workflows.
// Submit must fail fast on transport, auth, or validation problems; long
// execution is observed through Poll, never by blocking Submit.
// Implementations must be safe for concurrent use with distinct handles.
type Destination interface {
	Name() string
	Submit(ctx context.Context, wf workflow.Workflow) (JobHandle, error)
	Poll(ctx context.Context, handle JobHandle) (PollResult, error)
}

// Cleaner is an optional capability used before cold attempts. Cleanup
// failures are reported but never abort a run.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// SubmitError marks a submission rejected by the destination. No polling is
// attempted for the affected plan item.
type SubmitError struct {
	Destination string
	Err         error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit to %s: %v", e.Destination, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// PollError marks a transient status-check failure. The poller retries a
// bounded number of times before demoting the job to failed.
type PollError struct {
	Destination string
	Err         error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll %s: %v", e.Destination, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }
