package argocd

// Sync and health states reported by the reconciliation controller.
const (
	SyncSynced    = "Synced"
	SyncOutOfSync = "OutOfSync"
	SyncUnknown   = "Unknown"

	HealthHealthy     = "Healthy"
	HealthDegraded    = "Degraded"
	HealthProgressing = "Progressing"
	HealthMissing     = "Missing"
	HealthUnknown     = "Unknown"

	PhaseFailed    = "Failed"
	PhaseError     = "Error"
	PhaseSucceeded = "Succeeded"
	PhaseRunning   = "Running"
)

// Application is the subset of an Argo CD Application object the
// poller consumes. It is produced fresh on every poll and never
// mutated, only compared against the previous report.
type Application struct {
	Metadata Metadata          `json:"metadata"`
	Status   ApplicationStatus `json:"status"`
}

type Metadata struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

type ApplicationStatus struct {
	Sync           SyncStatus      `json:"sync"`
	Health         HealthStatus    `json:"health"`
	OperationState *OperationState `json:"operationState,omitempty"`
	Resources      []Resource      `json:"resources,omitempty"`
}

type SyncStatus struct {
	Status   string `json:"status"`
	Revision string `json:"revision,omitempty"`
}

type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OperationState reports the controller's last sync operation.
type OperationState struct {
	Phase   string `json:"phase"`
	Message string `json:"message,omitempty"`
}

// Resource is the per-resource status line inside an application
// report. Health is nil when the controller has not attached a health
// check to this kind.
type Resource struct {
	Group     string        `json:"group,omitempty"`
	Kind      string        `json:"kind"`
	Namespace string        `json:"namespace,omitempty"`
	Name      string        `json:"name"`
	Status    string        `json:"status,omitempty"`
	Health    *HealthStatus `json:"health,omitempty"`
}

// Key identifies a resource across polls.
func (r Resource) Key() string {
	return r.Kind + "/" + r.Namespace + "/" + r.Name
}

// HealthState returns the resource health status, or "" when the
// controller reported none.
func (r Resource) HealthState() string {
	if r.Health == nil {
		return ""
	}
	return r.Health.Status
}

// HealthMessage returns the resource health message, if any.
func (r Resource) HealthMessage() string {
	if r.Health == nil {
		return ""
	}
	return r.Health.Message
}

// Converged reports application-level convergence: desired state
// applied and everything the controller tracks is healthy.
func (a *Application) Converged() bool {
	return a.Status.Sync.Status == SyncSynced && a.Status.Health.Status == HealthHealthy
}

// OperationPhase returns the last operation phase, or "" when the
// controller has not run an operation yet.
func (a *Application) OperationPhase() string {
	if a.Status.OperationState == nil {
		return ""
	}
	return a.Status.OperationState.Phase
}
