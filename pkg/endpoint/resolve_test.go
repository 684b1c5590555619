package endpoint

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitopslab/convergectl/pkg/kube"
)

type fakeLB struct {
	statuses []kube.LoadBalancerStatus
	err      error
	calls    int

	describeCalls int
	ingressCalls  int
}

func (f *fakeLB) ServiceLoadBalancer(ctx context.Context, namespace, name string) (kube.LoadBalancerStatus, error) {
	idx := f.calls
	f.calls++
	if f.err != nil {
		return kube.LoadBalancerStatus{}, f.err
	}
	if len(f.statuses) == 0 {
		return kube.LoadBalancerStatus{}, nil
	}
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return f.statuses[idx], nil
}

func (f *fakeLB) Describe(ctx context.Context, namespace, kind, name string) (string, error) {
	f.describeCalls++
	return "Name: " + name + "\n", nil
}

func (f *fakeLB) Ingresses(ctx context.Context, namespace string) (string, error) {
	f.ingressCalls++
	return "NAME   HOSTS\n", nil
}

func okDial(network, addr string, timeout time.Duration) (net.Conn, error) {
	c1, c2 := net.Pipe()
	c2.Close()
	return c1, nil
}

func failDial(network, addr string, timeout time.Duration) (net.Conn, error) {
	return nil, errors.New("connection refused")
}

func newTestResolver(lb *fakeLB, sleeps *[]time.Duration) *Resolver {
	return &Resolver{
		Cluster:  lb,
		Service:  "ingress-nginx/ingress-nginx-controller",
		Attempts: 3,
		Delay:    10 * time.Second,
		Dial:     okDial,
		Sleep:    func(d time.Duration) { *sleeps = append(*sleeps, d) },
	}
}

func TestResolvePublishedIP(t *testing.T) {
	lb := &fakeLB{statuses: []kube.LoadBalancerStatus{
		{},
		{Ingress: []kube.IngressPoint{{IP: "203.0.113.7"}}},
	}}
	var sleeps []time.Duration
	r := newTestResolver(lb, &sleeps)
	r.LookupHost = func(host string) ([]string, error) {
		t.Errorf("unexpected DNS lookup for %s", host)
		return nil, nil
	}

	rec, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", rec.Address)
	assert.Equal(t, "kc.203.0.113.7.nip.io", rec.Hosts.Keycloak)
	assert.Equal(t, []time.Duration{10 * time.Second}, sleeps)
}

// TestResolveLatestIPWins tests that the most recently appended ingress
// entry takes precedence
func TestResolveLatestIPWins(t *testing.T) {
	lb := &fakeLB{statuses: []kube.LoadBalancerStatus{
		{Ingress: []kube.IngressPoint{{IP: "198.51.100.9"}, {IP: "203.0.113.7"}}},
	}}
	var sleeps []time.Duration
	r := newTestResolver(lb, &sleeps)

	rec, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", rec.Address)
}

func TestResolveHostnameFallback(t *testing.T) {
	lb := &fakeLB{statuses: []kube.LoadBalancerStatus{
		{Ingress: []kube.IngressPoint{{Hostname: "lb.example.com"}}},
	}}
	var sleeps []time.Duration
	r := newTestResolver(lb, &sleeps)
	r.LookupHost = func(host string) ([]string, error) {
		assert.Equal(t, "lb.example.com", host)
		return []string{"203.0.113.7"}, nil
	}

	rec, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", rec.Address)
}

// TestResolveExplicitHostnameFirst tests that an operator-supplied
// hostname is resolved before published ones
func TestResolveExplicitHostnameFirst(t *testing.T) {
	lb := &fakeLB{statuses: []kube.LoadBalancerStatus{
		{Ingress: []kube.IngressPoint{{Hostname: "lb.example.com"}}},
	}}
	var sleeps []time.Duration
	r := newTestResolver(lb, &sleeps)
	r.ExplicitHostname = "override.example.com"
	var lookups []string
	r.LookupHost = func(host string) ([]string, error) {
		lookups = append(lookups, host)
		return []string{"203.0.113.7"}, nil
	}

	_, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"override.example.com"}, lookups)
}

func TestResolveExplicitIPSkipsDiscovery(t *testing.T) {
	lb := &fakeLB{}
	var sleeps []time.Duration
	r := newTestResolver(lb, &sleeps)
	r.ExplicitIP = "203.0.113.7"

	rec, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", rec.Address)
	assert.Zero(t, lb.calls)
}

func TestResolveRejectsPrivateAddress(t *testing.T) {
	lb := &fakeLB{statuses: []kube.LoadBalancerStatus{
		{Ingress: []kube.IngressPoint{{IP: "10.0.0.5"}}},
	}}
	var sleeps []time.Duration
	r := newTestResolver(lb, &sleeps)

	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-public")
}

func TestResolveReachabilityPrecheck(t *testing.T) {
	lb := &fakeLB{statuses: []kube.LoadBalancerStatus{
		{Ingress: []kube.IngressPoint{{IP: "203.0.113.7"}}},
	}}
	var sleeps []time.Duration
	r := newTestResolver(lb, &sleeps)
	r.Dial = failDial

	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")

	// Downgraded to a warning when explicitly skipped.
	lb.calls = 0
	r.SkipReachability = true
	rec, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", rec.Address)
}

// TestResolveTimeout tests the end-to-end exhaustion path: no address
// after the attempt budget dumps triage state and returns a timeout
func TestResolveTimeout(t *testing.T) {
	lb := &fakeLB{}
	var sleeps []time.Duration
	r := newTestResolver(lb, &sleeps)

	_, err := r.Resolve(context.Background())
	var timeout *ResolveTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 3, timeout.Attempts)
	assert.Equal(t, 3, lb.calls)

	// No sleep after the final attempt.
	assert.Len(t, sleeps, 2)
	assert.Equal(t, 1, lb.describeCalls)
	assert.Equal(t, 1, lb.ingressCalls)
}

// TestResolveQueryErrorsAreTransient tests that cluster query failures
// burn an attempt instead of aborting
func TestResolveQueryErrorsAreTransient(t *testing.T) {
	lb := &fakeLB{err: errors.New("connection reset")}
	var sleeps []time.Duration
	r := newTestResolver(lb, &sleeps)

	_, err := r.Resolve(context.Background())
	var timeout *ResolveTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 3, lb.calls)
}

// TestDumpTriage tests the shared triage dump used after terminal
// verification failures
func TestDumpTriage(t *testing.T) {
	lb := &fakeLB{}
	DumpTriage(context.Background(), lb, "ingress-nginx/ingress-nginx-controller", "iam")
	assert.Equal(t, 1, lb.describeCalls)
	assert.Equal(t, 1, lb.ingressCalls)
}

func TestDumpTriageBadServiceRef(t *testing.T) {
	lb := &fakeLB{}
	DumpTriage(context.Background(), lb, "nonsense", "iam")
	assert.Zero(t, lb.describeCalls)
	assert.Zero(t, lb.ingressCalls)
}

func TestResolveBadServiceRef(t *testing.T) {
	var sleeps []time.Duration
	r := newTestResolver(&fakeLB{}, &sleeps)
	r.Service = "nonsense"

	_, err := r.Resolve(context.Background())
	assert.Error(t, err)
}
