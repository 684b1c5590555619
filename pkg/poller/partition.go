package poller

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gitopslab/convergectl/pkg/argocd"
)

// Partition splits a health report's resources into three disjoint
// sets. Membership is a pure function of the current report; the only
// cross-poll state lives in State.
type Partition struct {
	// Converged: synced and reported healthy.
	Converged []argocd.Resource

	// Unhealthy: out of sync, or reporting a non-healthy state.
	Unhealthy []argocd.Resource

	// Unreported: synced but the controller has not attached a health
	// check to this kind.
	Unreported []argocd.Resource
}

// PartitionResources classifies every resource in the report.
func PartitionResources(resources []argocd.Resource) Partition {
	var p Partition
	for _, r := range resources {
		health := r.HealthState()
		switch {
		case r.Status != argocd.SyncSynced || (health != "" && health != argocd.HealthHealthy):
			p.Unhealthy = append(p.Unhealthy, r)
		case health == "":
			p.Unreported = append(p.Unreported, r)
		default:
			p.Converged = append(p.Converged, r)
		}
	}
	return p
}

// unhealthyFingerprint identifies the unhealthy set by identity, sync
// state, health state and message. Order-independent.
func unhealthyFingerprint(resources []argocd.Resource) string {
	if len(resources) == 0 {
		return ""
	}
	lines := make([]string, 0, len(resources))
	for _, r := range resources {
		lines = append(lines, fmt.Sprintf("%s sync=%s health=%s msg=%s",
			r.Key(), r.Status, r.HealthState(), r.HealthMessage()))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// unreportedFingerprint identifies the unreported set by identity
// alone. Order-independent.
func unreportedFingerprint(resources []argocd.Resource) string {
	if len(resources) == 0 {
		return ""
	}
	keys := make([]string, 0, len(resources))
	for _, r := range resources {
		keys = append(keys, r.Key())
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}
