// Package metrics aggregates JobResults into run-level statistics: status
// counts, runtime percentiles, and per-destination breakdowns.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/wfbench/wfbench/internal/bench"
)

// Collector records terminal JobResults in a thread-safe manner. It
// implements bench.Recorder so in-flight runs can feed progress displays.
type Collector struct {
	mu         sync.Mutex
	hist       *hdrhistogram.Histogram
	counts     map[bench.Status]int64
	minRuntime time.Duration
	maxRuntime time.Duration
	sumRuntime time.Duration
	completed  int64
	byDest     map[string]*destShard
	start      time.Time
}

type destShard struct {
	hist   *hdrhistogram.Histogram
	counts map[bench.Status]int64
}

// Stats represents aggregated run statistics.
type Stats struct {
	Total        int64         `json:"total"`
	OK           int64         `json:"ok"`
	Failed       int64         `json:"failed"`
	Timeout      int64         `json:"timeout"`
	SubmitErrors int64         `json:"submit_errors"`
	MinRuntime   time.Duration `json:"-"`
	MaxRuntime   time.Duration `json:"-"`
	MeanRuntime  time.Duration `json:"-"`
	P50Runtime   time.Duration `json:"-"`
	P90Runtime   time.Duration `json:"-"`
	P99Runtime   time.Duration `json:"-"`
	Duration     time.Duration `json:"-"`
	JobsPerMin   float64       `json:"jobs_per_min"`

	// JSON-friendly second fields.
	MinRuntimeSec  float64 `json:"min_runtime_sec"`
	MaxRuntimeSec  float64 `json:"max_runtime_sec"`
	MeanRuntimeSec float64 `json:"mean_runtime_sec"`
	P50RuntimeSec  float64 `json:"p50_runtime_sec"`
	P90RuntimeSec  float64 `json:"p90_runtime_sec"`
	P99RuntimeSec  float64 `json:"p99_runtime_sec"`
	DurationSec    float64 `json:"duration_sec"`

	Destinations map[string]DestStats `json:"destinations,omitempty"`
}

// DestStats is the per-destination slice of the run statistics.
type DestStats struct {
	Total         int64         `json:"total"`
	OK            int64         `json:"ok"`
	Failed        int64         `json:"failed"`
	Timeout       int64         `json:"timeout"`
	SubmitErrors  int64         `json:"submit_errors"`
	MeanRuntime   time.Duration `json:"-"`
	P99Runtime    time.Duration `json:"-"`
	P99RuntimeSec float64       `json:"p99_runtime_sec"`
}

// Runtimes from 100ms up to 24h with 3 significant figures; workflow jobs run
// orders of magnitude longer than HTTP requests.
func newRuntimeHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(100, 86_400_000, 3)
}

func NewCollector() *Collector {
	return &Collector{
		hist:   newRuntimeHistogram(),
		counts: map[bench.Status]int64{},
		byDest: map[string]*destShard{},
		start:  time.Now(),
	}
}

// Start marks the beginning of measurement for throughput calculation.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Record adds one terminal JobResult. Runtime percentiles only consider
// results that reached an observed terminal state.
func (c *Collector) Record(result bench.JobResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[result.Status]++

	shard, ok := c.byDest[result.Destination]
	if !ok {
		shard = &destShard{hist: newRuntimeHistogram(), counts: map[bench.Status]int64{}}
		c.byDest[result.Destination] = shard
	}
	shard.counts[result.Status]++

	runtime := result.Runtime()
	if runtime <= 0 {
		return
	}
	c.completed++
	c.sumRuntime += runtime
	if c.minRuntime == 0 || runtime < c.minRuntime {
		c.minRuntime = runtime
	}
	if runtime > c.maxRuntime {
		c.maxRuntime = runtime
	}
	_ = c.hist.RecordValue(clampValue(c.hist, runtime.Milliseconds()))
	_ = shard.hist.RecordValue(clampValue(shard.hist, runtime.Milliseconds()))
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		OK:           c.counts[bench.StatusOK],
		Failed:       c.counts[bench.StatusFailed],
		Timeout:      c.counts[bench.StatusTimeout],
		SubmitErrors: c.counts[bench.StatusSubmitError],
		MinRuntime:   c.minRuntime,
		MaxRuntime:   c.maxRuntime,
		Duration:     elapsed,
	}
	stats.Total = stats.OK + stats.Failed + stats.Timeout + stats.SubmitErrors

	if c.completed > 0 {
		stats.MeanRuntime = time.Duration(int64(c.sumRuntime) / c.completed)
	}
	if c.hist.TotalCount() > 0 {
		stats.P50Runtime = time.Duration(c.hist.ValueAtQuantile(50)) * time.Millisecond
		stats.P90Runtime = time.Duration(c.hist.ValueAtQuantile(90)) * time.Millisecond
		stats.P99Runtime = time.Duration(c.hist.ValueAtQuantile(99)) * time.Millisecond
	}
	if elapsed > 0 && stats.Total > 0 {
		stats.JobsPerMin = float64(stats.Total) / elapsed.Minutes()
	}

	stats.MinRuntimeSec = stats.MinRuntime.Seconds()
	stats.MaxRuntimeSec = stats.MaxRuntime.Seconds()
	stats.MeanRuntimeSec = stats.MeanRuntime.Seconds()
	stats.P50RuntimeSec = stats.P50Runtime.Seconds()
	stats.P90RuntimeSec = stats.P90Runtime.Seconds()
	stats.P99RuntimeSec = stats.P99Runtime.Seconds()
	stats.DurationSec = elapsed.Seconds()

	if len(c.byDest) > 0 {
		stats.Destinations = make(map[string]DestStats, len(c.byDest))
		for name, shard := range c.byDest {
			ds := DestStats{
				OK:           shard.counts[bench.StatusOK],
				Failed:       shard.counts[bench.StatusFailed],
				Timeout:      shard.counts[bench.StatusTimeout],
				SubmitErrors: shard.counts[bench.StatusSubmitError],
			}
			ds.Total = ds.OK + ds.Failed + ds.Timeout + ds.SubmitErrors
			if shard.hist.TotalCount() > 0 {
				ds.MeanRuntime = time.Duration(int64(shard.hist.Mean())) * time.Millisecond
				ds.P99Runtime = time.Duration(shard.hist.ValueAtQuantile(99)) * time.Millisecond
			}
			ds.P99RuntimeSec = ds.P99Runtime.Seconds()
			stats.Destinations[name] = ds
		}
	}
	return stats
}

func clampValue(h *hdrhistogram.Histogram, v int64) int64 {
	if v < h.LowestTrackableValue() {
		return h.LowestTrackableValue()
	}
	if v > h.HighestTrackableValue() {
		return h.HighestTrackableValue()
	}
	return v
}
