// Package task runs the side-effecting hooks that surround benchmark phases:
// pre- and post-tasks, cold/warm phase preparation, and scheduled background
// tasks. Tasks are built from configuration through a variant registry.
package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Task is a named side-effecting action. Advisory task failures are recorded
// and ignored; mandatory tasks abort the phase or attempt that required them.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Error marks a task failure with enough context to record it in run metadata.
type Error struct {
	Task string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("task %s: %v", e.Task, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Factory constructs a task from its per-variant settings.
type Factory func(name string, settings map[string]interface{}) (Task, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a task variant under a configuration tag.
func Register(kind string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("task: duplicate registration for %q", kind))
	}
	registry[kind] = factory
}

// New builds a task of the given kind.
func New(kind, name string, settings map[string]interface{}) (Task, error) {
	registryMu.RLock()
	factory, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown task type %q (known: %v)", kind, Kinds())
	}
	return factory(name, settings)
}

// Kinds lists the registered variant tags in sorted order.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
