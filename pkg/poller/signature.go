package poller

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/gitopslab/convergectl/pkg/kube"
)

// CrashEntry is one crash-like container observation. Restart counts
// are intentionally excluded: a signature that only differs in restart
// count is the same failure and must not re-trigger diagnostics.
type CrashEntry struct {
	Pod       string
	Scope     kube.ContainerScope
	Container string
	Reason    string
}

// CrashEntries collects every container currently in a crash-like
// waiting state across the pod snapshot.
func CrashEntries(pods []kube.Pod) []CrashEntry {
	var entries []CrashEntry
	for _, pod := range pods {
		for _, c := range pod.InitContainers {
			if c.Crashing() {
				entries = append(entries, CrashEntry{
					Pod: pod.Name, Scope: kube.ScopeInit, Container: c.Name, Reason: c.WaitingReason,
				})
			}
		}
		for _, c := range pod.Containers {
			if c.Crashing() {
				entries = append(entries, CrashEntry{
					Pod: pod.Name, Scope: kube.ScopeApp, Container: c.Name, Reason: c.WaitingReason,
				})
			}
		}
	}
	return entries
}

// Signature returns a deterministic digest of the crash set, or ""
// when nothing is crashing. Diagnostics are captured at most once per
// distinct signature value.
func Signature(entries []CrashEntry) string {
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Pod+"|"+string(e.Scope)+"|"+e.Container+"|"+e.Reason)
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
