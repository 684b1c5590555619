package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gitopslab/convergectl/pkg/argocd"
	"github.com/gitopslab/convergectl/pkg/kube"
	"github.com/gitopslab/convergectl/pkg/log"
)

// AppClient is the read-only application health query the poller
// consumes.
type AppClient interface {
	GetApplication(ctx context.Context, name string) (*argocd.Application, error)
	GetApplicationRaw(ctx context.Context, name string) (string, error)
}

// ClusterClient is the subset of cluster primitives the poller needs
// for crash scanning and diagnostic dumps.
type ClusterClient interface {
	ListPods(ctx context.Context, namespace string) ([]kube.Pod, error)
	Describe(ctx context.Context, namespace, kind, name string) (string, error)
	GetRaw(ctx context.Context, namespace, kind, name string) (string, error)
	Logs(ctx context.Context, namespace, pod, container string, tail int, previous bool) (string, error)
	Events(ctx context.Context, namespace string) (string, error)
	PodsWide(ctx context.Context, namespace string) (string, error)
}

// TimeoutError reports that the poll budget ran out before the
// application converged.
type TimeoutError struct {
	App   string
	Polls int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("application %s did not converge within %d polls", e.App, e.Polls)
}

// workloadKinds get a describe-based deep dive; everything else dumps
// its raw manifest.
var workloadKinds = map[string]bool{
	"Pod":         true,
	"Deployment":  true,
	"StatefulSet": true,
	"DaemonSet":   true,
	"ReplicaSet":  true,
	"Job":         true,
}

// Poller blocks until the tracked application reports Synced+Healthy
// or the poll budget is exhausted, while keeping its log output
// proportional to state changes instead of poll count.
type Poller struct {
	Apps    AppClient
	Cluster ClusterClient

	// AppName is the tracked application.
	AppName string

	// Namespace is where the application's workloads run.
	Namespace string

	Interval time.Duration
	MaxPolls int

	// UnreportedDumpPolls is how many consecutive polls an identical
	// unreported set must persist before its one-time dump. Default 6.
	UnreportedDumpPolls int

	// LogTail is the number of log lines captured per container in a
	// crash dump. Default 100.
	LogTail int

	// Sleep defaults to time.Sleep; tests inject a recorder.
	Sleep func(time.Duration)
}

// Wait runs the polling loop to a terminal state: nil on convergence,
// *TimeoutError when the budget is exhausted.
func (p *Poller) Wait(ctx context.Context) error {
	logger := log.WithApp(p.AppName).With().Str("component", "poller").Logger()
	st := NewState()

	logger.Info().
		Int("max_polls", p.MaxPolls).
		Dur("interval", p.Interval).
		Msg("waiting for application to converge")

	for poll := 1; poll <= p.MaxPolls; poll++ {
		app, err := p.Apps.GetApplication(ctx, p.AppName)
		if err != nil {
			// Transient: retried on the next tick without consuming
			// any diagnostic action.
			logger.Warn().Err(err).Int("poll", poll).Msg("health report fetch failed, will retry")
		} else if p.observe(ctx, logger, st, app, poll) {
			return nil
		}

		p.scanCrashes(ctx, logger, st)

		if poll < p.MaxPolls {
			p.sleep(p.Interval)
		}
	}

	logger.Error().Int("polls", p.MaxPolls).Msg("poll budget exhausted without convergence")
	p.dumpFinal(ctx, logger)
	return &TimeoutError{App: p.AppName, Polls: p.MaxPolls}
}

// observe processes one fresh health report and returns true on
// terminal convergence.
func (p *Poller) observe(ctx context.Context, logger zerolog.Logger, st *State, app *argocd.Application, poll int) bool {
	part := PartitionResources(app.Status.Resources)

	// Enumerate the unhealthy set only when it actually changed.
	fp := unhealthyFingerprint(part.Unhealthy)
	if fp != st.unhealthyFP {
		st.unhealthyFP = fp
		if len(part.Unhealthy) == 0 {
			logger.Info().Msg("all tracked resources healthy")
		} else {
			logger.Info().
				Int("unhealthy", len(part.Unhealthy)).
				Int("converged", len(part.Converged)).
				Msg("resources out of convergence")
			for _, r := range part.Unhealthy {
				logger.Info().
					Str("resource", r.Key()).
					Str("sync", r.Status).
					Str("health", r.HealthState()).
					Str("message", r.HealthMessage()).
					Msg("not converged")
			}
		}
	} else {
		logger.Debug().
			Int("poll", poll).
			Str("sync", app.Status.Sync.Status).
			Str("health", app.Status.Health.Status).
			Msg("state unchanged")
	}

	p.trackUnreported(ctx, logger, st, part.Unreported)

	if app.Converged() {
		logger.Info().
			Str("sync", app.Status.Sync.Status).
			Str("health", app.Status.Health.Status).
			Int("resources", len(app.Status.Resources)).
			Msg("application converged")
		return true
	}

	// A return to Healthy closes the degraded episode so a future
	// degradation dumps fresh diagnostics.
	if app.Status.Health.Status == argocd.HealthHealthy {
		st.degradedDumped = false
	}

	phase := app.OperationPhase()
	degraded := phase == argocd.PhaseFailed || phase == argocd.PhaseError ||
		app.Status.Health.Status == argocd.HealthDegraded
	if degraded && !st.degradedDumped {
		logger.Error().
			Str("phase", phase).
			Str("health", app.Status.Health.Status).
			Msg("application degraded, capturing diagnostics")
		p.dumpDiagnostics(ctx, logger, part.Unhealthy)
		st.degradedDumped = true
	}

	return false
}

// trackUnreported dumps detailed state once per unreported set that
// has persisted unchanged long enough; a changed set resets the
// counter and the dump flag.
func (p *Poller) trackUnreported(ctx context.Context, logger zerolog.Logger, st *State, unreported []argocd.Resource) {
	fp := unreportedFingerprint(unreported)
	if fp != st.unreportedFP {
		st.unreportedFP = fp
		st.unreportedStreak = 1
		st.unreportedDumped = false
	} else {
		st.unreportedStreak++
	}
	if fp == "" || st.unreportedDumped || st.unreportedStreak < p.unreportedDumpPolls() {
		return
	}
	logger.Info().
		Int("count", len(unreported)).
		Int("polls", st.unreportedStreak).
		Msg("resources synced without health checks, capturing state once")
	for _, r := range unreported {
		p.dumpResource(ctx, logger, r)
	}
	st.unreportedDumped = true
}

// scanCrashes captures diagnostics for crash-like container states,
// at most once per distinct failure signature.
func (p *Poller) scanCrashes(ctx context.Context, logger zerolog.Logger, st *State) {
	pods, err := p.Cluster.ListPods(ctx, p.Namespace)
	if err != nil {
		logger.Warn().Err(err).Msg("pod snapshot failed")
		return
	}

	entries := CrashEntries(pods)
	sig := Signature(entries)
	if sig == st.crashSig {
		return
	}
	if sig == "" {
		st.crashSig = ""
		st.crashPods = make(map[string]bool)
		return
	}

	logger.Error().Int("containers", len(entries)).Msg("crash-like container states detected")

	podsByName := make(map[string]kube.Pod, len(pods))
	for _, pod := range pods {
		podsByName[pod.Name] = pod
	}
	current := make(map[string]bool)
	for _, e := range entries {
		current[e.Pod] = true
	}

	for name := range current {
		if !st.crashPods[name] {
			if out, err := p.Cluster.Describe(ctx, p.Namespace, "pod", name); err != nil {
				logger.Warn().Err(err).Str("pod", name).Msg("describe failed")
			} else {
				dump(logger, "describe pod "+name, out)
			}
		}
		pod := podsByName[name]
		p.dumpContainerLogs(ctx, logger, name, pod.InitContainers)
		p.dumpContainerLogs(ctx, logger, name, pod.Containers)
	}

	st.crashSig = sig
	st.crashPods = current
}

// dumpContainerLogs tails recent and previous logs for each container.
func (p *Poller) dumpContainerLogs(ctx context.Context, logger zerolog.Logger, pod string, containers []kube.ContainerState) {
	for _, c := range containers {
		for _, previous := range []bool{false, true} {
			out, err := p.Cluster.Logs(ctx, p.Namespace, pod, c.Name, p.logTail(), previous)
			label := fmt.Sprintf("logs %s/%s previous=%t", pod, c.Name, previous)
			if err != nil {
				// Missing previous instances are routine.
				logger.Debug().Err(err).Msg(label + " unavailable")
				continue
			}
			dump(logger, label, out)
		}
	}
}

// dumpDiagnostics is the one-shot capture for a degraded episode:
// full application state, a kind-specific deep dive per unhealthy
// resource, and a namespace-wide snapshot.
func (p *Poller) dumpDiagnostics(ctx context.Context, logger zerolog.Logger, unhealthy []argocd.Resource) {
	if out, err := p.Apps.GetApplicationRaw(ctx, p.AppName); err != nil {
		logger.Warn().Err(err).Msg("application dump failed")
	} else {
		dump(logger, "application "+p.AppName, out)
	}

	for _, r := range unhealthy {
		p.dumpResource(ctx, logger, r)
	}

	p.dumpNamespace(ctx, logger)
}

// dumpResource captures one resource: describe for workload kinds,
// raw manifest for everything else.
func (p *Poller) dumpResource(ctx context.Context, logger zerolog.Logger, r argocd.Resource) {
	namespace := r.Namespace
	if namespace == "" {
		namespace = p.Namespace
	}
	var out string
	var err error
	if workloadKinds[r.Kind] {
		out, err = p.Cluster.Describe(ctx, namespace, r.Kind, r.Name)
	} else {
		out, err = p.Cluster.GetRaw(ctx, namespace, r.Kind, r.Name)
	}
	if err != nil {
		logger.Warn().Err(err).Str("resource", r.Key()).Msg("resource dump failed")
		return
	}
	dump(logger, r.Key(), out)
}

// dumpNamespace captures the pod table and recent events.
func (p *Poller) dumpNamespace(ctx context.Context, logger zerolog.Logger) {
	if out, err := p.Cluster.PodsWide(ctx, p.Namespace); err != nil {
		logger.Warn().Err(err).Msg("pod table dump failed")
	} else {
		dump(logger, "pods in "+p.Namespace, out)
	}
	if out, err := p.Cluster.Events(ctx, p.Namespace); err != nil {
		logger.Warn().Err(err).Msg("event dump failed")
	} else {
		dump(logger, "events in "+p.Namespace, out)
	}
}

// dumpFinal captures maximal context exactly once at terminal failure.
func (p *Poller) dumpFinal(ctx context.Context, logger zerolog.Logger) {
	if out, err := p.Apps.GetApplicationRaw(ctx, p.AppName); err != nil {
		logger.Warn().Err(err).Msg("application dump failed")
	} else {
		dump(logger, "application "+p.AppName, out)
	}
	p.dumpNamespace(ctx, logger)
}

func (p *Poller) unreportedDumpPolls() int {
	if p.UnreportedDumpPolls > 0 {
		return p.UnreportedDumpPolls
	}
	return 6
}

func (p *Poller) logTail() int {
	if p.LogTail > 0 {
		return p.LogTail
	}
	return 100
}

func (p *Poller) sleep(d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

func dump(logger zerolog.Logger, label, content string) {
	logger.Info().Msg(label + ":\n" + content)
}
