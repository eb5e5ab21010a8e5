package config

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wfbench --config benchmarks.yaml",
		Short:         "Benchmark job-execution back-ends by submitting and tracking workflows",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to the benchmark configuration file (YAML)")

	// Run selection
	flags.StringSlice("filter", nil, "Only run benchmarks with these names")
	flags.Bool("no-pretasks", false, "Skip benchmark pre-tasks")
	flags.Bool("no-posttasks", false, "Skip benchmark post-tasks")

	// Engine tuning
	flags.Duration("poll-interval", 5*time.Second, "Time between job status checks")
	flags.Int("poll-retries", 3, "Consecutive transient poll errors tolerated per job")

	// Output
	flags.String("results-path", "results", "Directory for per-benchmark result files")
	flags.Bool("results-print", false, "Print full result sets to stdout")
	flags.Bool("results-save-raw", false, "Keep warmup results in the written result files")
	flags.Bool("json", false, "Emit reports as JSON instead of text")
	flags.Bool("dashboard", false, "Show a live terminal dashboard during runs")
}

func displayHelp(cmd *cobra.Command) {
	_ = cmd.Help()
}
