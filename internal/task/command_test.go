package task

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCommandTaskSuccess(t *testing.T) {
	tk, err := New("command", "noop", map[string]interface{}{
		"command": "sh",
		"args":    []interface{}{"-c", "exit 0"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := tk.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestCommandTaskFailureCarriesOutput(t *testing.T) {
	tk, err := New("command", "broken", map[string]interface{}{
		"command": "sh",
		"args":    []interface{}{"-c", "echo cache eviction failed >&2; exit 3"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	runErr := tk.Run(context.Background())
	if runErr == nil {
		t.Fatalf("expected failure")
	}
	var taskErr *Error
	if !errors.As(runErr, &taskErr) {
		t.Fatalf("expected *Error, got %T", runErr)
	}
	if taskErr.Task != "broken" {
		t.Fatalf("error names task %q", taskErr.Task)
	}
	if !strings.Contains(runErr.Error(), "cache eviction failed") {
		t.Fatalf("stderr not surfaced: %v", runErr)
	}
}

func TestCommandTaskEnv(t *testing.T) {
	tk, err := New("command", "env", map[string]interface{}{
		"command": "sh",
		"args":    []interface{}{"-c", `test "$MARKER" = "42"`},
		"env":     map[string]interface{}{"MARKER": 42},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := tk.Run(context.Background()); err != nil {
		t.Fatalf("env var not passed: %v", err)
	}
}

func TestCommandTaskRequiresCommand(t *testing.T) {
	if _, err := New("command", "empty", map[string]interface{}{}); err == nil {
		t.Fatalf("missing command must fail")
	}
}

func TestSleepTask(t *testing.T) {
	tk, err := New("sleep", "settle", map[string]interface{}{"duration": "10ms"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	start := time.Now()
	if err := tk.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("returned before the configured duration")
	}
}

func TestSleepTaskCancel(t *testing.T) {
	tk, err := New("sleep", "settle", map[string]interface{}{"duration": "10s"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if err := tk.Run(ctx); err == nil {
		t.Fatalf("canceled sleep must report an error")
	}
}

func TestSleepTaskRejectsBadDuration(t *testing.T) {
	if _, err := New("sleep", "bad", map[string]interface{}{"duration": "soon"}); err == nil {
		t.Fatalf("invalid duration must fail")
	}
}

func TestUnknownTaskKind(t *testing.T) {
	if _, err := New("teleport", "t", nil); err == nil {
		t.Fatalf("unknown kind must fail")
	}
}
