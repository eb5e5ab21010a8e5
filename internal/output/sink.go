package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/wfbench/wfbench/internal/bench"
)

// FileSink persists each finished run as a JSON file in a results directory.
// A directory-level file lock serializes writers, so several benchmarker
// instances can share one results directory.
type FileSink struct {
	dir     string
	saveRaw bool
}

// NewFileSink ensures the results directory exists and returns a sink
// writing into it. saveRaw keeps warmup results in the written files.
func NewFileSink(dir string, saveRaw bool) (*FileSink, error) {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("results path %q is not a directory", dir)
		}
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	default:
		return nil, err
	}
	return &FileSink{dir: dir, saveRaw: saveRaw}, nil
}

// Write persists one immutable run. The engine calls this exactly once per
// run, after the run reached Done.
func (s *FileSink) Write(run *bench.Run) (string, error) {
	lock := flock.New(filepath.Join(s.dir, ".wfbench.lock"))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock results directory: %w", err)
	}
	defer lock.Unlock()

	out := *run
	if !s.saveRaw {
		out.WarmupResults = nil
	}

	name := fmt.Sprintf("%s_%s.json", sanitizeName(run.Benchmark), run.ID)
	path := filepath.Join(s.dir, name)

	payload, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
