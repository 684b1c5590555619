package endpoint

import (
	"fmt"
	"net"
	"strings"
)

// Hosts are the synthetic nip.io hostnames derived from the external
// address. They resolve back to the address without any DNS setup.
type Hosts struct {
	Keycloak string
	Midpoint string
	ArgoCD   string
}

// Record is the outcome of one discovery run. It is re-derived on
// every invocation and never cached, so address rotation is picked up.
type Record struct {
	Address string
	Hosts   Hosts
}

// BuildHosts derives the per-service hostnames for an IP address.
func BuildHosts(ip string) (Hosts, error) {
	if net.ParseIP(ip) == nil {
		return Hosts{}, fmt.Errorf("invalid ingress address %q", ip)
	}
	return Hosts{
		Keycloak: "kc." + ip + ".nip.io",
		Midpoint: "mp." + ip + ".nip.io",
		ArgoCD:   "argocd." + ip + ".nip.io",
	}, nil
}

// IsPublicAddress reports whether the address is usable as an external
// endpoint. Private, loopback, link-local, multicast and unspecified
// addresses indicate the load balancer has not really published one.
func IsPublicAddress(raw string) bool {
	ip := net.ParseIP(raw)
	if ip == nil {
		return false
	}
	return !ip.IsPrivate() &&
		!ip.IsLoopback() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsMulticast() &&
		!ip.IsUnspecified()
}

// ParseServiceRef splits "<namespace>/<name>" or
// "<namespace>/<resource>/<name>" into namespace and name.
func ParseServiceRef(ref string) (namespace, name string, err error) {
	parts := strings.Split(ref, "/")
	switch len(parts) {
	case 2:
		return parts[0], parts[1], nil
	case 3:
		return parts[0], parts[2], nil
	default:
		return "", "", fmt.Errorf("service reference %q must be <namespace>/<name> or <namespace>/<resource>/<name>", ref)
	}
}
