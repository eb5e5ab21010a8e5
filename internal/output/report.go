// Package output renders run results: a human-readable summary, a JSON
// report, a live progress line, and the results-directory sink.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/wfbench/wfbench/internal/bench"
	"github.com/wfbench/wfbench/internal/metrics"
)

// PrintReport outputs a human-readable summary of one benchmark run.
func PrintReport(w io.Writer, run *bench.Run, stats metrics.Stats) {
	fmt.Fprintf(w, "\n--- Benchmark %s (%s) ---\n", run.Benchmark, run.Scenario)
	fmt.Fprintf(w, "Run ID:            %s\n", run.ID)
	fmt.Fprintf(w, "Outcome:           %s\n", run.Outcome)
	if run.AbortReason != "" {
		fmt.Fprintf(w, "Abort Reason:      %s\n", run.AbortReason)
	}
	if run.Interrupted {
		fmt.Fprintln(w, "Interrupted:       yes (partial results)")
	}
	fmt.Fprintf(w, "Total Jobs:        %d\n", stats.Total)
	fmt.Fprintf(w, "OK:                %d\n", stats.OK)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failed)
	fmt.Fprintf(w, "Timed Out:         %d\n", stats.Timeout)
	fmt.Fprintf(w, "Submit Errors:     %d\n", stats.SubmitErrors)
	fmt.Fprintf(w, "Wall Clock:        %s\n", run.Finished.Sub(run.Started).Round(1e7))
	fmt.Fprintln(w, "\nJob Runtime:")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinRuntime)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxRuntime)
	fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanRuntime)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Runtime)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Runtime)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Runtime)

	if len(stats.Destinations) > 0 {
		fmt.Fprintln(w, "\nDestination Breakdown:")
		names := make([]string, 0, len(stats.Destinations))
		for name := range stats.Destinations {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			dest := stats.Destinations[name]
			fmt.Fprintf(
				w,
				"  - %s: total=%d, ok=%d, failed=%d, timeout=%d, submit_errors=%d, mean=%s, p99=%s\n",
				name,
				dest.Total,
				dest.OK,
				dest.Failed,
				dest.Timeout,
				dest.SubmitErrors,
				dest.MeanRuntime,
				dest.P99Runtime,
			)
		}
	}

	if len(run.TaskFailures) > 0 {
		fmt.Fprintln(w, "\nTask Failures:")
		for _, tf := range run.TaskFailures {
			fmt.Fprintf(w, "  - [%s] %s: %s\n", tf.Stage, tf.Task, tf.Error)
		}
	}
}

// jsonReport bundles the run with its aggregated stats for machine output.
type jsonReport struct {
	Run   *bench.Run    `json:"run"`
	Stats metrics.Stats `json:"stats"`
}

// PrintJSONReport outputs the run and its statistics as indented JSON.
func PrintJSONReport(w io.Writer, run *bench.Run, stats metrics.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{Run: run, Stats: stats})
}
