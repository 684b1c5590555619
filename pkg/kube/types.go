package kube

// ContainerScope distinguishes init containers from app containers in
// diagnostics and crash signatures.
type ContainerScope string

const (
	ScopeInit ContainerScope = "init"
	ScopeApp  ContainerScope = "app"
)

// crashReasons is the fixed set of waiting reasons treated as
// crash-like. Restart counts are deliberately not part of this
// classification.
var crashReasons = map[string]bool{
	"CrashLoopBackOff":           true,
	"Error":                      true,
	"ErrImagePull":               true,
	"ImagePullBackOff":           true,
	"CreateContainerConfigError": true,
	"RunContainerError":          true,
}

// IsCrashReason reports whether a container waiting reason indicates a
// crash-like state.
func IsCrashReason(reason string) bool {
	return crashReasons[reason]
}

// ContainerState is the observed status of one container in a pod.
type ContainerState struct {
	Name           string
	Ready          bool
	RestartCount   int
	WaitingReason  string
	WaitingMessage string
}

// Crashing reports whether the container is in a crash-like state.
func (c ContainerState) Crashing() bool {
	return IsCrashReason(c.WaitingReason)
}

// Pod is the snapshot of one pod used by the convergence poller.
type Pod struct {
	Name           string
	Phase          string
	InitContainers []ContainerState
	Containers     []ContainerState
}

// IngressPoint is one entry of a load balancer's ingress status.
type IngressPoint struct {
	IP       string `json:"ip,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

// LoadBalancerStatus is the externally assigned address set of a
// LoadBalancer service.
type LoadBalancerStatus struct {
	Ingress []IngressPoint `json:"ingress,omitempty"`
}
