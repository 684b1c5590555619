package kube

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitopslab/convergectl/pkg/runner"
)

const podListJSON = `{
  "items": [
    {
      "metadata": {"name": "keycloak-0"},
      "status": {
        "phase": "Running",
        "initContainerStatuses": [
          {"name": "wait-for-db", "ready": true, "restartCount": 0, "state": {}}
        ],
        "containerStatuses": [
          {"name": "keycloak", "ready": false, "restartCount": 4,
           "state": {"waiting": {"reason": "CrashLoopBackOff", "message": "back-off 40s"}}}
        ]
      }
    },
    {
      "metadata": {"name": "midpoint-0"},
      "status": {
        "phase": "Pending",
        "containerStatuses": [
          {"name": "midpoint", "ready": false, "restartCount": 0,
           "state": {"waiting": {"reason": "ContainerCreating"}}}
        ]
      }
    }
  ]
}`

type fakeRunner struct {
	result runner.Result
	args   []string
}

func (f *fakeRunner) CombinedOutput(ctx context.Context, name string, args ...string) (runner.Result, error) {
	f.args = args
	return f.result, nil
}

func TestListPods(t *testing.T) {
	f := &fakeRunner{result: runner.Result{Output: []byte(podListJSON)}}
	c := &Client{Runner: f, Bin: "kubectl"}

	pods, err := c.ListPods(context.Background(), "iam")
	require.NoError(t, err)
	require.Len(t, pods, 2)

	kc := pods[0]
	assert.Equal(t, "keycloak-0", kc.Name)
	assert.Equal(t, "Running", kc.Phase)
	require.Len(t, kc.InitContainers, 1)
	assert.False(t, kc.InitContainers[0].Crashing())
	require.Len(t, kc.Containers, 1)
	assert.True(t, kc.Containers[0].Crashing())
	assert.Equal(t, 4, kc.Containers[0].RestartCount)
	assert.Equal(t, "back-off 40s", kc.Containers[0].WaitingMessage)

	// ContainerCreating is startup churn, not a crash.
	mp := pods[1]
	assert.False(t, mp.Containers[0].Crashing())
}

func TestIsCrashReason(t *testing.T) {
	for _, reason := range []string{
		"CrashLoopBackOff", "Error", "ErrImagePull", "ImagePullBackOff",
		"CreateContainerConfigError", "RunContainerError",
	} {
		assert.True(t, IsCrashReason(reason), reason)
	}
	for _, reason := range []string{"", "ContainerCreating", "PodInitializing", "Completed"} {
		assert.False(t, IsCrashReason(reason), reason)
	}
}

func TestServiceLoadBalancer(t *testing.T) {
	f := &fakeRunner{result: runner.Result{Output: []byte(`{
	  "status": {"loadBalancer": {"ingress": [
	    {"hostname": "lb.example.com"},
	    {"ip": "203.0.113.7"}
	  ]}}
	}`)}}
	c := &Client{Runner: f, Bin: "kubectl"}

	lb, err := c.ServiceLoadBalancer(context.Background(), "ingress-nginx", "ingress-nginx-controller")
	require.NoError(t, err)
	require.Len(t, lb.Ingress, 2)
	assert.Equal(t, "lb.example.com", lb.Ingress[0].Hostname)
	assert.Equal(t, "203.0.113.7", lb.Ingress[1].IP)
}

func TestServiceLoadBalancerPending(t *testing.T) {
	f := &fakeRunner{result: runner.Result{Output: []byte(`{"status": {"loadBalancer": {}}}`)}}
	c := &Client{Runner: f, Bin: "kubectl"}

	lb, err := c.ServiceLoadBalancer(context.Background(), "ingress-nginx", "ingress-nginx-controller")
	require.NoError(t, err)
	assert.Empty(t, lb.Ingress)
}

func TestLogsArgs(t *testing.T) {
	f := &fakeRunner{result: runner.Result{Output: []byte("log line\n")}}
	c := &Client{Runner: f, Bin: "kubectl"}

	out, err := c.Logs(context.Background(), "iam", "keycloak-0", "keycloak", 100, true)
	require.NoError(t, err)
	assert.Equal(t, "log line\n", out)
	assert.Equal(t, []string{"-n", "iam", "logs", "keycloak-0", "-c", "keycloak",
		"--tail", "100", "--previous"}, f.args)
}

func TestDescribeFailure(t *testing.T) {
	f := &fakeRunner{result: runner.Result{Output: []byte("error: pod not found"), ExitCode: 1}}
	c := &Client{Runner: f, Bin: "kubectl"}

	_, err := c.Describe(context.Background(), "iam", "pod", "gone-0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pod not found")
}
