// Package workflow describes the units of work submitted to destinations.
package workflow

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout bounds a submission that declares no timeout of its own.
const DefaultTimeout = 30 * time.Minute

// Workflow is an immutable description of one unit of work. The engine treats
// the payload as opaque; only the destination driver interprets it.
type Workflow struct {
	Name    string
	Timeout time.Duration
	Payload string
}

// New builds a validated Workflow, applying the default timeout when none is set.
func New(name string, timeout time.Duration, payload string) (Workflow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workflow{}, fmt.Errorf("workflow name is required")
	}
	if timeout < 0 {
		return Workflow{}, fmt.Errorf("workflow %q: timeout must not be negative", name)
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return Workflow{Name: name, Timeout: timeout, Payload: payload}, nil
}
