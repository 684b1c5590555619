/*
Package retry implements the bounded attempt loop shared by the control
loops: a deterministic exponential backoff schedule, a three-way outcome
classification, and an optional remediation hook between attempts.

The schedule is closed-form, min(base * 2^(attempt-1), cap), so the
worst-case duration of a run is computable up front (MaxElapsed) and
CI job timeouts can be set against it.

Classification separates retryable contention from fatal failures: a
fatal outcome stops the loop immediately without burning the remaining
attempts. When every attempt is consumed the loop returns an
ExhaustedError wrapping the last attempt's error.

	p := retry.Policy{MaxAttempts: 5, Base: 15 * time.Second, Cap: 300 * time.Second}
	err := retry.Run(p, func(a retry.Attempt) retry.Classification {
		...
	}, func(a retry.Attempt) {
		// remediation between attempts, before the backoff sleep
	})
*/
package retry
