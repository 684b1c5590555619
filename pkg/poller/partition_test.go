package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitopslab/convergectl/pkg/argocd"
)

func res(kind, name, sync, health string) argocd.Resource {
	r := argocd.Resource{Kind: kind, Namespace: "iam", Name: name, Status: sync}
	if health != "" {
		r.Health = &argocd.HealthStatus{Status: health}
	}
	return r
}

func TestPartitionResources(t *testing.T) {
	p := PartitionResources([]argocd.Resource{
		res("Deployment", "keycloak", argocd.SyncSynced, argocd.HealthHealthy),
		res("StatefulSet", "midpoint", argocd.SyncSynced, argocd.HealthDegraded),
		res("Deployment", "proxy", argocd.SyncOutOfSync, argocd.HealthHealthy),
		res("ConfigMap", "realm", argocd.SyncSynced, ""),
		res("Secret", "creds", argocd.SyncOutOfSync, ""),
		res("Job", "migrate", argocd.SyncSynced, argocd.HealthProgressing),
	})

	keys := func(rs []argocd.Resource) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.Key())
		}
		return out
	}

	assert.Equal(t, []string{"Deployment/iam/keycloak"}, keys(p.Converged))
	// Out-of-sync counts as unhealthy even with no health report.
	assert.Equal(t, []string{
		"StatefulSet/iam/midpoint",
		"Deployment/iam/proxy",
		"Secret/iam/creds",
		"Job/iam/migrate",
	}, keys(p.Unhealthy))
	assert.Equal(t, []string{"ConfigMap/iam/realm"}, keys(p.Unreported))
}

// TestPartitionDisjoint tests that every resource lands in exactly one
// set
func TestPartitionDisjoint(t *testing.T) {
	syncs := []string{argocd.SyncSynced, argocd.SyncOutOfSync, argocd.SyncUnknown}
	healths := []string{"", argocd.HealthHealthy, argocd.HealthDegraded, argocd.HealthProgressing, argocd.HealthMissing}

	var all []argocd.Resource
	for i, s := range syncs {
		for j, h := range healths {
			all = append(all, res("Deployment", string(rune('a'+i*len(healths)+j)), s, h))
		}
	}

	p := PartitionResources(all)
	require.Equal(t, len(all), len(p.Converged)+len(p.Unhealthy)+len(p.Unreported))
}

func TestUnhealthyFingerprint(t *testing.T) {
	a := res("Deployment", "keycloak", argocd.SyncSynced, argocd.HealthDegraded)
	b := res("StatefulSet", "midpoint", argocd.SyncOutOfSync, "")

	// Order-independent.
	assert.Equal(t,
		unhealthyFingerprint([]argocd.Resource{a, b}),
		unhealthyFingerprint([]argocd.Resource{b, a}))

	// A health message change is a state change.
	c := a
	c.Health = &argocd.HealthStatus{Status: argocd.HealthDegraded, Message: "0/1 ready"}
	assert.NotEqual(t,
		unhealthyFingerprint([]argocd.Resource{a}),
		unhealthyFingerprint([]argocd.Resource{c}))

	assert.Empty(t, unhealthyFingerprint(nil))
}

func TestUnreportedFingerprint(t *testing.T) {
	a := res("ConfigMap", "realm", argocd.SyncSynced, "")
	b := res("Secret", "creds", argocd.SyncSynced, "")

	assert.Equal(t,
		unreportedFingerprint([]argocd.Resource{a, b}),
		unreportedFingerprint([]argocd.Resource{b, a}))
	assert.NotEqual(t,
		unreportedFingerprint([]argocd.Resource{a}),
		unreportedFingerprint([]argocd.Resource{a, b}))
	assert.Empty(t, unreportedFingerprint(nil))
}
