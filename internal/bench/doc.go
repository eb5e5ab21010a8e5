// Package bench is the benchmark run engine. It expands a declarative
// benchmark definition (destinations x workflows x repetitions) into an
// ordered plan of submissions, gates when each submission may start, tracks
// every submitted job through a polling state machine until it terminates or
// times out, and assembles a partial-failure-tolerant result set.
//
// # Scenarios
//
//   - [ScenarioDestinationComparison]: every destination runs every workflow
//     the configured number of times, destinations in parallel, attempts per
//     destination strictly sequential. An optional warmup attempt per
//     destination/workflow pair is executed first and excluded from results.
//   - [ScenarioColdWarm]: a single destination alternates cold attempts
//     (preceded by a mandatory preparation task and optional cleanup) with
//     warm attempts, so first-time and primed execution can be compared.
//   - [ScenarioBurst]: submissions are released at a fixed global rate
//     regardless of completion speed, measuring how a destination absorbs
//     concurrent pressure.
//
// # Failure model
//
// Job-level failures (rejected submissions, destination-reported failures,
// exceeded timeouts) are recorded as JobResults and never abort the run. Only
// an invalid benchmark definition aborts a run, and post-tasks are still
// attempted. The result set is the single source of truth for what happened.
package bench
