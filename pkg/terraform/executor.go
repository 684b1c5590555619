package terraform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gitopslab/convergectl/pkg/log"
	"github.com/gitopslab/convergectl/pkg/retry"
	"github.com/gitopslab/convergectl/pkg/runner"
)

// ContentionError reports that every attempt still saw lock contention.
// It is distinct from a fatal command failure so callers can alert on
// "still converging too slowly" separately from "broken".
type ContentionError struct {
	Attempts int
	LockID   string
}

func (e *ContentionError) Error() string {
	if e.LockID != "" {
		return fmt.Sprintf("state lock still held after %d attempts (lock id %s)", e.Attempts, e.LockID)
	}
	return fmt.Sprintf("state lock still held after %d attempts", e.Attempts)
}

// Executor runs a single mutating provisioner command and survives
// transient contention on the remote state lock. Non-lock failures are
// never retried so real errors are not masked by blind retries.
type Executor struct {
	Runner runner.Runner

	// Bin is the provisioner binary, normally "terraform".
	Bin string

	// Dir is passed via -chdir when not "." or empty.
	Dir string

	Policy     retry.Policy
	Signatures SignatureTable

	// ForceUnlockAfter releases a lock older than this before the next
	// retry. Zero disables the age trigger.
	ForceUnlockAfter time.Duration

	// ForceUnlockAfterAttempts releases a lock observed on this many
	// consecutive attempts. Zero disables the attempt trigger.
	ForceUnlockAfterAttempts int

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// lockState tracks the lock observed across consecutive attempts.
// observed resets to 1 whenever the lock id changes.
type lockState struct {
	id        string
	created   time.Time
	createdOK bool
	observed  int
}

func (s *lockState) observe(info LockInfo) {
	if info.ID != s.id {
		s.id = info.ID
		s.observed = 1
	} else {
		s.observed++
	}
	// Timestamp is re-parsed per attempt; absence only disables the
	// age trigger for this attempt.
	s.created = info.Created
	s.createdOK = info.CreatedOK
}

func (s *lockState) reset() {
	*s = lockState{}
}

// Apply runs "terraform apply" with non-interactive flags plus any
// extra args, under the lock-retry policy.
func (e *Executor) Apply(ctx context.Context, extraArgs ...string) error {
	args := append([]string{"apply", "-auto-approve", "-input=false", "-no-color"}, extraArgs...)
	return e.Execute(ctx, args...)
}

// Execute runs one provisioner invocation per attempt. Exit 0 is
// terminal success. Output matching a lock-contention signature is
// retried with backoff; anything else is fatal on first sight.
// Exhausting the budget under contention returns a ContentionError.
func (e *Executor) Execute(ctx context.Context, args ...string) error {
	logger := e.logger()
	state := &lockState{}

	op := func(a retry.Attempt) retry.Classification {
		res, err := e.Runner.CombinedOutput(ctx, e.Bin, e.commandArgs(args)...)
		if err != nil {
			return retry.Classification{
				Outcome: retry.Fatal,
				Err:     fmt.Errorf("failed to run %s: %v", e.Bin, err),
			}
		}
		if res.ExitCode == 0 {
			logger.Info().Int("attempt", a.Index).Msg("provisioner command succeeded")
			return retry.Classification{Outcome: retry.Success}
		}
		if e.Signatures.Match(res.Output) {
			state.observe(ParseLockInfo(res.Output))
			event := logger.Warn().
				Int("attempt", a.Index).
				Int("max_attempts", a.Max).
				Str("lock_id", state.id).
				Int("observed_count", state.observed)
			if state.createdOK {
				event = event.Time("lock_created_at", state.created)
			}
			event.Msg("state lock contention, will retry")
			return retry.Classification{
				Outcome: retry.Retryable,
				Err:     fmt.Errorf("state lock held (lock id %q)", state.id),
			}
		}
		logger.Error().
			Int("attempt", a.Index).
			Int("exit_code", res.ExitCode).
			Msg("provisioner command failed")
		logOutput(logger, res.Output)
		return retry.Classification{
			Outcome: retry.Fatal,
			Err:     fmt.Errorf("%s %s exited with status %d", e.Bin, args[0], res.ExitCode),
		}
	}

	remediate := func(a retry.Attempt) {
		e.remediate(ctx, logger, state)
	}

	err := retry.Run(e.Policy, op, remediate)
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return &ContentionError{Attempts: exhausted.Attempts, LockID: state.id}
	}
	return err
}

// remediate force-releases the lock when either threshold fires. The
// two triggers are independent and OR-combined. A failed force-unlock
// is logged and the outer retry continues regardless.
func (e *Executor) remediate(ctx context.Context, logger zerolog.Logger, state *lockState) {
	if state.id == "" {
		return
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	ageFired := e.ForceUnlockAfter > 0 && state.createdOK &&
		now().Sub(state.created) >= e.ForceUnlockAfter
	attemptsFired := e.ForceUnlockAfterAttempts > 0 &&
		state.observed >= e.ForceUnlockAfterAttempts
	if !ageFired && !attemptsFired {
		return
	}

	logger.Warn().
		Str("lock_id", state.id).
		Bool("age_trigger", ageFired).
		Bool("attempts_trigger", attemptsFired).
		Int("observed_count", state.observed).
		Msg("forcing release of stale state lock")

	res, err := e.Runner.CombinedOutput(ctx, e.Bin, e.commandArgs([]string{"force-unlock", "-force", state.id})...)
	if err != nil {
		logger.Error().Err(err).Str("lock_id", state.id).Msg("force-unlock failed")
		return
	}
	if res.ExitCode != 0 {
		logger.Error().
			Str("lock_id", state.id).
			Int("exit_code", res.ExitCode).
			Msg("force-unlock failed")
		logOutput(logger, res.Output)
		return
	}

	logger.Info().Str("lock_id", state.id).Msg("stale state lock released")
	// A freshly created lock must be tracked from scratch.
	state.reset()
}

// commandArgs prepends -chdir when a working directory is configured.
func (e *Executor) commandArgs(args []string) []string {
	if e.Dir == "" || e.Dir == "." {
		return args
	}
	return append([]string{"-chdir=" + e.Dir}, args...)
}

func (e *Executor) logger() zerolog.Logger {
	return log.WithComponent("terraform")
}

// logOutput surfaces the tail of a failed command's output. The
// scratch buffer is discarded after this; it is only retained long
// enough to classify the failure.
func logOutput(logger zerolog.Logger, output []byte) {
	const maxTail = 4096
	text := strings.TrimSpace(string(output))
	if text == "" {
		return
	}
	if len(text) > maxTail {
		text = "..." + text[len(text)-maxTail:]
	}
	logger.Error().Msg("command output:\n" + text)
}
