/*
Package config builds the effective settings for a convergectl run.

Precedence is documented defaults, overridden by an optional TOML file
(convergectl.toml by default), overridden by CONVERGE_* environment
variables. The environment layer exists for CI, where thresholds are
tuned per-workflow without committing a config file.

Invalid values never abort a run: a malformed or out-of-range threshold
is replaced by its default with a warning. The tool's job is to drive
an environment to convergence, and refusing to start over a typo in a
retry knob would fail the pipeline for no operational reason.
*/
package config
