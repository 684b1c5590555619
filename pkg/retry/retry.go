package retry

import (
	"fmt"
	"time"
)

// Outcome classifies the result of a single attempt.
type Outcome int

const (
	// Success means the operation completed; the loop returns immediately.
	Success Outcome = iota

	// Retryable means the failure is transient and the loop may try again.
	Retryable

	// Fatal means the failure is permanent; the loop returns immediately
	// even if attempts remain.
	Fatal
)

// Classification is the verdict for one attempt.
type Classification struct {
	Outcome Outcome
	Err     error
}

// Attempt describes where the loop currently stands.
type Attempt struct {
	// Index is 1-based.
	Index int
	// Max is the configured attempt budget.
	Max int
}

// Policy holds the backoff schedule for a bounded attempt loop.
type Policy struct {
	// MaxAttempts is the total attempt budget (minimum 1).
	MaxAttempts int

	// Base is the backoff after the first failed attempt.
	Base time.Duration

	// Cap is a hard ceiling on any single backoff.
	Cap time.Duration

	// Sleep is the suspension function between attempts.
	// Defaults to time.Sleep; tests inject a recorder.
	Sleep func(time.Duration)
}

// Backoff returns the sleep duration after the given 1-based attempt:
// min(Base * 2^(attempt-1), Cap).
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.Cap {
			return p.Cap
		}
	}
	if d > p.Cap {
		return p.Cap
	}
	return d
}

// MaxElapsed returns the worst-case total sleep time for the policy.
// The final attempt triggers no sleep.
func (p Policy) MaxElapsed() time.Duration {
	var total time.Duration
	for i := 1; i < p.MaxAttempts; i++ {
		total += p.Backoff(i)
	}
	return total
}

// ExhaustedError reports that every attempt was consumed without success.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("exhausted %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap returns the last observed error for errors.Is/As compatibility.
func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Run executes op under the policy. After each Retryable classification
// with attempts remaining it calls remediate (if non-nil), sleeps the
// backoff for the current attempt, and tries again. A Fatal classification
// propagates immediately. Exhausting the budget returns an ExhaustedError
// wrapping the last observed error.
func Run(p Policy, op func(a Attempt) Classification, remediate func(a Attempt)) error {
	max := p.MaxAttempts
	if max < 1 {
		max = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var last error
	for i := 1; i <= max; i++ {
		a := Attempt{Index: i, Max: max}
		c := op(a)
		switch c.Outcome {
		case Success:
			return nil
		case Fatal:
			return c.Err
		}
		last = c.Err
		if i == max {
			break
		}
		if remediate != nil {
			remediate(a)
		}
		sleep(p.Backoff(i))
	}
	return &ExhaustedError{Attempts: max, Last: last}
}
