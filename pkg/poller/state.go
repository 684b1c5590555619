package poller

// State is the dedup accumulator threaded explicitly through polls.
// Keeping it a value the loop owns (rather than package state) makes
// the suppression logic testable without a live controller.
type State struct {
	// unhealthyFP is the fingerprint of the last printed unhealthy
	// set. An identical set across polls is never re-enumerated.
	unhealthyFP string

	// unreportedFP tracks the current "synced but no health check"
	// set, with the number of consecutive polls it has persisted and
	// whether its one-time dump already happened. A changed set resets
	// both.
	unreportedFP     string
	unreportedStreak int
	unreportedDumped bool

	// degradedDumped marks that diagnostics were captured for the
	// current degraded episode. A return to Healthy clears it.
	degradedDumped bool

	// crashSig is the last captured crash signature; crashPods are the
	// pods that were part of it, used to describe only newly-crashing
	// pods.
	crashSig  string
	crashPods map[string]bool
}

// NewState returns the accumulator for a fresh polling run.
func NewState() *State {
	return &State{crashPods: make(map[string]bool)}
}
