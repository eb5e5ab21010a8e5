package task

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultCommandTimeout = 10 * time.Minute

func init() {
	Register("command", newCommandTask)
	Register("sleep", newSleepTask)
}

// commandTask executes an external program, the general form of
// configuration-management hooks (cleanup playbooks, cache eviction scripts).
type commandTask struct {
	name    string
	command string
	args    []string
	dir     string
	env     []string
	timeout time.Duration
}

func newCommandTask(name string, settings map[string]interface{}) (Task, error) {
	command, _ := settings["command"].(string)
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("task %q: command is required", name)
	}

	t := &commandTask{
		name:    name,
		command: command,
		timeout: defaultCommandTimeout,
	}

	if raw, ok := settings["args"].([]interface{}); ok {
		for _, a := range raw {
			t.args = append(t.args, fmt.Sprint(a))
		}
	}
	if dir, ok := settings["dir"].(string); ok {
		t.dir = dir
	}
	if raw, ok := settings["env"].(map[string]interface{}); ok {
		for k, v := range raw {
			t.env = append(t.env, k+"="+fmt.Sprint(v))
		}
	}
	if raw, ok := settings["timeout"].(string); ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("task %q: invalid timeout: %w", name, err)
		}
		t.timeout = d
	}
	return t, nil
}

func (t *commandTask) Name() string { return t.name }

func (t *commandTask) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.command, t.args...)
	cmd.Dir = t.dir
	if len(t.env) > 0 {
		cmd.Env = append(cmd.Environ(), t.env...)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if len(detail) > 512 {
			detail = detail[:512]
		}
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return &Error{Task: t.name, Err: err}
	}
	return nil
}

// sleepTask pauses for a fixed duration. Useful in config examples and for
// settling time between phases.
type sleepTask struct {
	name     string
	duration time.Duration
}

func newSleepTask(name string, settings map[string]interface{}) (Task, error) {
	raw, _ := settings["duration"].(string)
	if raw == "" {
		return nil, fmt.Errorf("task %q: duration is required", name)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("task %q: invalid duration: %w", name, err)
	}
	return &sleepTask{name: name, duration: d}, nil
}

func (t *sleepTask) Name() string { return t.name }

func (t *sleepTask) Run(ctx context.Context) error {
	select {
	case <-time.After(t.duration):
		return nil
	case <-ctx.Done():
		return &Error{Task: t.name, Err: ctx.Err()}
	}
}
