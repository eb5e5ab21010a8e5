package bench

import (
	"sync"
	"time"
)

// Status is the terminal classification of one submission attempt.
type Status string

const (
	StatusOK          Status = "ok"
	StatusFailed      Status = "failed"
	StatusTimeout     Status = "timeout"
	StatusSubmitError Status = "submit_error"
)

// JobResult is the outcome of one submission attempt. CompletedAt stays zero
// when the job timed out or errored before a terminal poll was observed.
type JobResult struct {
	Destination string                 `json:"destination"`
	Workflow    string                 `json:"workflow"`
	Attempt     int                    `json:"attempt"`
	Phase       Phase                  `json:"phase"`
	Status      Status                 `json:"status"`
	SubmittedAt time.Time              `json:"submitted_at"`
	CompletedAt time.Time              `json:"completed_at,omitzero"`
	Error       string                 `json:"error,omitempty"`
	Metrics     map[string]interface{} `json:"metrics,omitempty"`
}

// Runtime is the submit-to-terminal wall-clock duration, zero when the job
// never reached an observed terminal state.
func (r JobResult) Runtime() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.SubmittedAt)
}

// Outcome classifies a whole run. Individual job failures are recorded data,
// not run failures; a run aborts only when a mandatory step fails before any
// submission happens.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeAborted   Outcome = "aborted"
)

// TaskFailure records a failed pre/post/phase/background task. Advisory task
// failures never change the run outcome.
type TaskFailure struct {
	Stage string `json:"stage"`
	Task  string `json:"task"`
	Error string `json:"error"`
}

// Run holds everything a single benchmark run produced. It is mutated only by
// the controller and becomes immutable once Finished is set; the result sink
// receives it exactly once after that.
type Run struct {
	ID          string    `json:"id"`
	Benchmark   string    `json:"benchmark"`
	Scenario    Scenario  `json:"scenario"`
	Runs        int       `json:"runs_per_workflow"`
	Warmup      bool      `json:"warmup,omitempty"`
	BurstRate   float64   `json:"burst_rate,omitempty"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	Outcome     Outcome   `json:"outcome"`
	AbortReason string    `json:"abort_reason,omitempty"`
	Interrupted bool      `json:"interrupted,omitempty"`

	Results       []JobResult   `json:"results"`
	WarmupResults []JobResult   `json:"warmup_results,omitempty"`
	TaskFailures  []TaskFailure `json:"task_failures,omitempty"`
}

// resultSet is the accumulator shared across in-flight pollers. Appends are
// serialized; no ordering is guaranteed beyond each result appearing once.
type resultSet struct {
	mu      sync.Mutex
	results []JobResult
}

func (s *resultSet) append(r JobResult) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
}

func (s *resultSet) snapshot() []JobResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobResult, len(s.results))
	copy(out, s.results)
	return out
}
