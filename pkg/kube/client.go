package kube

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gitopslab/convergectl/pkg/runner"
)

// Client wraps the kubectl get/describe/logs primitives the control
// loops consume. Everything here is read-only.
type Client struct {
	Runner runner.Runner

	// Bin is the kubectl binary, normally "kubectl".
	Bin string
}

// Wire format subset for kubectl get pods -o json.
type podList struct {
	Items []podItem `json:"items"`
}

type podItem struct {
	Metadata struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Status struct {
		Phase                 string            `json:"phase"`
		InitContainerStatuses []containerStatus `json:"initContainerStatuses,omitempty"`
		ContainerStatuses     []containerStatus `json:"containerStatuses,omitempty"`
	} `json:"status"`
}

type containerStatus struct {
	Name         string `json:"name"`
	Ready        bool   `json:"ready"`
	RestartCount int    `json:"restartCount"`
	State        struct {
		Waiting *struct {
			Reason  string `json:"reason,omitempty"`
			Message string `json:"message,omitempty"`
		} `json:"waiting,omitempty"`
	} `json:"state"`
}

// ListPods returns a snapshot of all pods in the namespace with their
// init and app container states.
func (c *Client) ListPods(ctx context.Context, namespace string) ([]Pod, error) {
	out, err := c.get(ctx, namespace, "pods", "", "json")
	if err != nil {
		return nil, err
	}
	var list podList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		return nil, fmt.Errorf("failed to parse pod list: %v", err)
	}
	pods := make([]Pod, 0, len(list.Items))
	for _, item := range list.Items {
		pods = append(pods, Pod{
			Name:           item.Metadata.Name,
			Phase:          item.Status.Phase,
			InitContainers: convertStatuses(item.Status.InitContainerStatuses),
			Containers:     convertStatuses(item.Status.ContainerStatuses),
		})
	}
	return pods, nil
}

func convertStatuses(statuses []containerStatus) []ContainerState {
	out := make([]ContainerState, 0, len(statuses))
	for _, s := range statuses {
		state := ContainerState{
			Name:         s.Name,
			Ready:        s.Ready,
			RestartCount: s.RestartCount,
		}
		if s.State.Waiting != nil {
			state.WaitingReason = s.State.Waiting.Reason
			state.WaitingMessage = s.State.Waiting.Message
		}
		out = append(out, state)
	}
	return out
}

// Describe returns the kubectl describe output for a resource.
func (c *Client) Describe(ctx context.Context, namespace, kind, name string) (string, error) {
	res, err := c.Runner.CombinedOutput(ctx, c.Bin, "-n", namespace, "describe", kind, name)
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %v", c.Bin, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("failed to describe %s/%s: %s",
			kind, name, strings.TrimSpace(string(res.Output)))
	}
	return string(res.Output), nil
}

// GetRaw returns the raw manifest of a resource as YAML.
func (c *Client) GetRaw(ctx context.Context, namespace, kind, name string) (string, error) {
	return c.get(ctx, namespace, kind, name, "yaml")
}

// Logs tails the recent log of one container. With previous set it
// reads the prior instance's log, which is where crash-loop causes
// usually live.
func (c *Client) Logs(ctx context.Context, namespace, pod, container string, tail int, previous bool) (string, error) {
	args := []string{"-n", namespace, "logs", pod, "-c", container, "--tail", strconv.Itoa(tail)}
	if previous {
		args = append(args, "--previous")
	}
	res, err := c.Runner.CombinedOutput(ctx, c.Bin, args...)
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %v", c.Bin, err)
	}
	if res.ExitCode != 0 {
		// A missing previous instance is routine, not an error worth
		// propagating; the caller logs whatever we return.
		return "", fmt.Errorf("failed to fetch logs for %s/%s: %s",
			pod, container, strings.TrimSpace(string(res.Output)))
	}
	return string(res.Output), nil
}

// Events returns recent namespace events sorted by time.
func (c *Client) Events(ctx context.Context, namespace string) (string, error) {
	res, err := c.Runner.CombinedOutput(ctx, c.Bin,
		"-n", namespace, "get", "events", "--sort-by=.lastTimestamp")
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %v", c.Bin, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("failed to fetch events: %s", strings.TrimSpace(string(res.Output)))
	}
	return string(res.Output), nil
}

// PodsWide returns the namespace pod table for diagnostic dumps.
func (c *Client) PodsWide(ctx context.Context, namespace string) (string, error) {
	res, err := c.Runner.CombinedOutput(ctx, c.Bin, "-n", namespace, "get", "pods", "-o", "wide")
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %v", c.Bin, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("failed to list pods: %s", strings.TrimSpace(string(res.Output)))
	}
	return string(res.Output), nil
}

// ServiceLoadBalancer returns the load balancer ingress status of a
// service, which may be empty while the cloud provider provisions it.
func (c *Client) ServiceLoadBalancer(ctx context.Context, namespace, name string) (LoadBalancerStatus, error) {
	out, err := c.get(ctx, namespace, "service", name, "json")
	if err != nil {
		return LoadBalancerStatus{}, err
	}
	var svc struct {
		Status struct {
			LoadBalancer LoadBalancerStatus `json:"loadBalancer"`
		} `json:"status"`
	}
	if err := json.Unmarshal([]byte(out), &svc); err != nil {
		return LoadBalancerStatus{}, fmt.Errorf("failed to parse service %s: %v", name, err)
	}
	return svc.Status.LoadBalancer, nil
}

// Ingresses returns the ingress resource table for triage dumps.
func (c *Client) Ingresses(ctx context.Context, namespace string) (string, error) {
	res, err := c.Runner.CombinedOutput(ctx, c.Bin, "-n", namespace, "get", "ingress", "-o", "wide")
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %v", c.Bin, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("failed to list ingresses: %s", strings.TrimSpace(string(res.Output)))
	}
	return string(res.Output), nil
}

func (c *Client) get(ctx context.Context, namespace, kind, name, format string) (string, error) {
	args := []string{"-n", namespace, "get", kind}
	if name != "" {
		args = append(args, name)
	}
	args = append(args, "-o", format)
	res, err := c.Runner.CombinedOutput(ctx, c.Bin, args...)
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %v", c.Bin, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("failed to get %s %s: %s",
			kind, name, strings.TrimSpace(string(res.Output)))
	}
	return string(res.Output), nil
}
