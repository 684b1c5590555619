package argocd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gitopslab/convergectl/pkg/runner"
)

// Client reads application health reports through kubectl. It is
// strictly read-only; the reconciliation controller owns the objects.
type Client struct {
	Runner runner.Runner

	// Bin is the kubectl binary, normally "kubectl".
	Bin string

	// Namespace is where Application objects live, normally "argocd".
	Namespace string
}

// GetApplication fetches a fresh health report for the named
// application. Failures are transient from the caller's point of view:
// the poller logs and retries on the next tick.
func (c *Client) GetApplication(ctx context.Context, name string) (*Application, error) {
	res, err := c.Runner.CombinedOutput(ctx, c.Bin,
		"-n", c.Namespace, "get", "applications.argoproj.io", name, "-o", "json")
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %v", c.Bin, err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("failed to fetch application %s: %s",
			name, strings.TrimSpace(string(res.Output)))
	}
	var app Application
	if err := json.Unmarshal(res.Output, &app); err != nil {
		return nil, fmt.Errorf("failed to parse application %s: %v", name, err)
	}
	return &app, nil
}

// GetApplicationRaw returns the full application object as YAML for
// diagnostic dumps.
func (c *Client) GetApplicationRaw(ctx context.Context, name string) (string, error) {
	res, err := c.Runner.CombinedOutput(ctx, c.Bin,
		"-n", c.Namespace, "get", "applications.argoproj.io", name, "-o", "yaml")
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %v", c.Bin, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("failed to dump application %s: %s",
			name, strings.TrimSpace(string(res.Output)))
	}
	return string(res.Output), nil
}
