/*
Package terraform provides the lock-retry executor for infrastructure
provisioning.

Concurrent CI pipelines sharing remote state collide on the distributed
state lock. A lock collision is expected contention, not a provisioning
failure, so the executor retries with exponential backoff instead of
failing the run, and force-unlocks abandoned locks from crashed runs
that would otherwise block every future pipeline.

# Architecture

Each attempt runs the provisioner once and classifies the combined
output:

	┌────────────────────────────────────────────────────────┐
	│                    Attempt (1..max)                    │
	│                                                        │
	│  terraform -chdir=<dir> apply -auto-approve            │
	│            -input=false -no-color                      │
	└────────────────┬───────────────────────────────────────┘
	                 │
	                 ▼
	┌────────────────────────────────────────────────────────┐
	│  Classify combined output                              │
	│  • exit 0                        → success, done       │
	│  • lock signature matched        → contention, retry   │
	│  • anything else                 → fatal, stop         │
	└────────────────┬───────────────────────────────────────┘
	                 │ contention
	                 ▼
	┌────────────────────────────────────────────────────────┐
	│  Track lock identity (ID + Created from Lock Info)     │
	│                                                        │
	│  Remediate before backoff when EITHER trigger fires:   │
	│  • lock age      ≥ force_unlock_after_seconds          │
	│  • observations  ≥ force_unlock_after_attempts         │
	│                                                        │
	│  terraform force-unlock -force <id>                    │
	│  (failure logged, never fatal; retry continues)        │
	└────────────────┬───────────────────────────────────────┘
	                 │
	                 ▼
	           sleep backoff(attempt), next attempt

# Lock Signatures

Contention is recognized by case-insensitive substring signatures over
the provisioner output. The table ships embedded (signatures.yaml) and
can be replaced at runtime for backends with different lock error
phrasing:

	table, err := terraform.LoadSignatures("my-signatures.yaml")

# Force-Unlock Safety

The two triggers are independent and each disabled by a zero threshold.
Lock identity tracking resets when the lock ID changes (a different
writer legitimately holds the lock now) and after every successful
force-unlock, so a freshly taken lock is never unlocked on sight.

# Usage

	exec := &terraform.Executor{
		Runner:                   &runner.ExecRunner{},
		Bin:                      "terraform",
		Dir:                      "infra/live",
		Policy:                   retry.Policy{MaxAttempts: 5, Base: 15 * time.Second, Cap: 300 * time.Second},
		Signatures:               terraform.DefaultSignatures(),
		ForceUnlockAfter:         30 * time.Minute,
		ForceUnlockAfterAttempts: 3,
	}
	err := exec.Apply(ctx)

A *ContentionError return means the attempt budget ran out while the
state was still locked; any other error is a real provisioning failure.
*/
package terraform
