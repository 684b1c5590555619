/*
Package poller blocks until a GitOps-managed application converges,
with diagnostics proportional to state changes rather than poll count.

A convergence wait can run for fifteen minutes at a ten second interval.
Logging the full resource table on every poll makes the one line that
matters unfindable, so the poller treats its log output as a budget:
each distinct failure state is reported exactly once, and an unchanged
state costs a single debug line per tick.

# Architecture

	┌───────────────────────────────────────────────────────┐
	│                 Poll (1..max_polls)                   │
	│                                                       │
	│  kubectl get application -o json                      │
	└──────────────┬────────────────────────────────────────┘
	               │
	               ▼
	┌───────────────────────────────────────────────────────┐
	│  Partition resources (pure function of the report)    │
	│  • Unhealthy:  not synced, or non-healthy report      │
	│  • Unreported: synced, no health check attached       │
	│  • Converged:  everything else                        │
	└──────────────┬────────────────────────────────────────┘
	               │
	               ▼
	┌───────────────────────────────────────────────────────┐
	│  Dedup against State (explicit accumulator)           │
	│  • unhealthy set changed   → enumerate once           │
	│  • unreported set stable   → dump once after N polls  │
	│  • degraded episode        → diagnostics once         │
	│  • crash signature changed → describe + logs once     │
	└──────────────┬────────────────────────────────────────┘
	               │
	               ▼
	    converged → return nil
	    budget out → final dump + *TimeoutError

# Crash Signatures

The pod snapshot is reduced to a set of (pod, scope, container, reason)
tuples and hashed. Restart counts are excluded: a crash-looping
container increments its counter every poll, and including it would
re-trigger the capture on each tick for the same failure.

# State

All suppression state lives in a State value owned by the Wait loop.
Nothing is package-global, so concurrent polls of different
applications never share dedup state and the logic is testable without
a live controller.

# Usage

	p := &poller.Poller{
		Apps:      argoClient,
		Cluster:   kubeClient,
		AppName:   "iam",
		Namespace: "iam",
		Interval:  10 * time.Second,
		MaxPolls:  90,
	}
	err := p.Wait(ctx)

A *TimeoutError means the budget ran out; the final dump has already
been written to the log by then.
*/
package poller
