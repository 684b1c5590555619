/*
Package log provides structured logging for convergectl using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level.

Because convergectl is a run-to-completion tool whose output is read in CI job
logs, the log stream doubles as the diagnostic record of a run: the control
loops write their one-time dumps (describe output, container logs, events)
through this package so that everything lands in a single ordered stream.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init() in the root command
  - Tagged with a per-run run_id for correlating CI reruns

Log Levels:
  - Debug: per-poll ticks and suppressed duplicate states
  - Info: state changes, discovered addresses, diagnostic dumps
  - Warn: transient failures that will be retried
  - Error: degradation events and terminal failures

Context Loggers:
  - WithComponent: tags logs with the owning control loop
  - WithRunID: tags every log of one invocation
  - WithApp: tags logs with the tracked application

# Usage

Initializing the logger:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})
	log.Logger = log.WithRunID(uuid.NewString())

Component loggers:

	logger := log.WithComponent("terraform")
	logger.Warn().
		Str("lock_id", info.ID).
		Int("attempt", attempt.Index).
		Msg("state lock held by another operation")

Console output is the default for interactive use; CI pipelines set
log_json = true (or CONVERGE_LOG_JSON=1) for parseable output.

# Integration Points

This package integrates with:

  - pkg/terraform: logs lock contention and force-unlock remediation
  - pkg/poller: logs convergence progress and diagnostic dumps
  - pkg/endpoint: logs address discovery and smoke verification
  - pkg/config: warns about invalid settings replaced by defaults

# Best Practices

Do:
  - Use structured fields for queryable data (lock_id, attempt, poll)
  - Create component-specific loggers per control loop
  - Log errors with .Err() rather than string formatting

Don't:
  - Log per-poll noise at Info level; unchanged state is Debug
  - Re-log diagnostics for a failure state already captured
*/
package log
