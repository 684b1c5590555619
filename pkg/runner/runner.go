package runner

import (
	"bytes"
	"context"
	"os/exec"
)

// Result holds the fully captured output of a finished child process.
type Result struct {
	// Output is the combined stdout+stderr stream. It is captured in
	// full, not streamed, so callers can scan it for failure signatures.
	Output []byte

	// ExitCode is the process exit status.
	ExitCode int
}

// Runner executes one child process per call. It is the only
// integration point with external CLIs; the control loops are tested
// against fakes of this interface.
type Runner interface {
	// CombinedOutput runs name with args and returns the captured
	// output and exit code. A non-zero exit code is not an error;
	// err is reserved for failures to run the process at all.
	CombinedOutput(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands on the host via os/exec.
type ExecRunner struct{}

// CombinedOutput implements Runner.
func (ExecRunner) CombinedOutput(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	res := Result{Output: buf.Bytes()}
	if err == nil {
		return res, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}
