package endpoint

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/gitopslab/convergectl/pkg/kube"
	"github.com/gitopslab/convergectl/pkg/log"
)

// LoadBalancerClient is the cluster surface the resolver consumes.
type LoadBalancerClient interface {
	ServiceLoadBalancer(ctx context.Context, namespace, name string) (kube.LoadBalancerStatus, error)
	Describe(ctx context.Context, namespace, kind, name string) (string, error)
	Ingresses(ctx context.Context, namespace string) (string, error)
}

// ResolveTimeoutError reports that the load balancer never published a
// usable address within the attempt budget.
type ResolveTimeoutError struct {
	Service  string
	Attempts int
}

func (e *ResolveTimeoutError) Error() string {
	return fmt.Sprintf("service %s did not publish an external address within %d attempts", e.Service, e.Attempts)
}

// Resolver discovers the load-balancer-assigned external address.
// Load balancer provisioning has a roughly fixed SLA, so the retry is
// a fixed inter-attempt delay rather than exponential backoff.
type Resolver struct {
	Cluster LoadBalancerClient

	// Service is "<namespace>/<name>" of the ingress controller
	// service.
	Service string

	Attempts int
	Delay    time.Duration

	// ExplicitIP skips discovery entirely; ExplicitHostname seeds the
	// hostname fallback.
	ExplicitIP       string
	ExplicitHostname string

	// SkipReachability downgrades a failed TCP precheck to a warning.
	SkipReachability bool

	// LookupHost defaults to net.LookupHost.
	LookupHost func(host string) ([]string, error)

	// Dial defaults to net.DialTimeout; tests inject a fake.
	Dial func(network, addr string, timeout time.Duration) (net.Conn, error)

	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Resolve discovers the external address, preferring a published IP
// and falling back to DNS resolution of published hostnames, then
// derives the host set. On exhaustion it dumps the service and ingress
// state for triage and returns a ResolveTimeoutError.
func (r *Resolver) Resolve(ctx context.Context) (Record, error) {
	logger := log.WithComponent("endpoint")

	namespace, name, err := ParseServiceRef(r.Service)
	if err != nil {
		return Record{}, err
	}

	if r.ExplicitIP != "" {
		return r.finish(logger, r.ExplicitIP)
	}

	for attempt := 1; attempt <= r.Attempts; attempt++ {
		ip, err := r.discover(ctx, namespace, name)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("load balancer query failed")
		} else if ip != "" {
			logger.Info().
				Str("address", ip).
				Int("attempt", attempt).
				Msg("discovered external address")
			return r.finish(logger, ip)
		} else {
			logger.Info().
				Int("attempt", attempt).
				Int("max_attempts", r.Attempts).
				Msg("load balancer address not published yet")
		}
		if attempt < r.Attempts {
			r.sleep(r.Delay)
		}
	}

	r.triage(ctx, logger, namespace, name)
	return Record{}, &ResolveTimeoutError{Service: r.Service, Attempts: r.Attempts}
}

// discover returns the best address candidate from the current load
// balancer status, or "" when none is usable yet.
func (r *Resolver) discover(ctx context.Context, namespace, name string) (string, error) {
	status, err := r.Cluster.ServiceLoadBalancer(ctx, namespace, name)
	if err != nil {
		return "", err
	}

	// Prefer published IPs; the most recently appended entry wins.
	for i := len(status.Ingress) - 1; i >= 0; i-- {
		if ip := status.Ingress[i].IP; ip != "" && net.ParseIP(ip) != nil {
			return ip, nil
		}
	}

	// Fall back to resolving published hostnames.
	hostnames := []string{}
	if r.ExplicitHostname != "" {
		hostnames = append(hostnames, r.ExplicitHostname)
	}
	for _, ing := range status.Ingress {
		if ing.Hostname != "" {
			hostnames = append(hostnames, ing.Hostname)
		}
	}
	lookup := r.LookupHost
	if lookup == nil {
		lookup = net.LookupHost
	}
	for _, hostname := range hostnames {
		addrs, err := lookup(hostname)
		if err != nil || len(addrs) == 0 {
			continue
		}
		return addrs[0], nil
	}
	return "", nil
}

// finish validates the address, prechecks reachability and derives the
// host set.
func (r *Resolver) finish(logger zerolog.Logger, ip string) (Record, error) {
	if !IsPublicAddress(ip) {
		return Record{}, fmt.Errorf("ingress resolved to a non-public address %s; wait for the service to publish an external address or override it", ip)
	}
	if err := r.checkReachable(ip); err != nil {
		if !r.SkipReachability {
			return Record{}, err
		}
		logger.Warn().Err(err).Msg("reachability check failed, continuing")
	}
	hosts, err := BuildHosts(ip)
	if err != nil {
		return Record{}, err
	}
	return Record{Address: ip, Hosts: hosts}, nil
}

// checkReachable verifies the load balancer accepts TCP connections on
// at least one well-known ingress port.
func (r *Resolver) checkReachable(ip string) error {
	dial := r.Dial
	if dial == nil {
		dial = net.DialTimeout
	}
	var lastErr error
	for _, port := range []string{"80", "443"} {
		conn, err := dial("tcp", net.JoinHostPort(ip, port), 5*time.Second)
		if err != nil {
			lastErr = err
			continue
		}
		conn.Close()
		return nil
	}
	return fmt.Errorf("load balancer %s unreachable on ports 80 and 443: %v", ip, lastErr)
}

// triage surfaces the service and ingress state when discovery times
// out.
func (r *Resolver) triage(ctx context.Context, logger zerolog.Logger, namespace, name string) {
	dumpLoadBalancerState(ctx, logger, r.Cluster, namespace, name, namespace)
}

// DumpTriage surfaces the ingress service description and the ingress
// resource states after a terminal verification failure. Dump failures
// are logged and swallowed so triage never masks the original error.
func DumpTriage(ctx context.Context, cluster LoadBalancerClient, serviceRef, ingressNamespace string) {
	logger := log.WithComponent("verify")
	namespace, name, err := ParseServiceRef(serviceRef)
	if err != nil {
		logger.Warn().Err(err).Msg("bad ingress service reference")
		return
	}
	dumpLoadBalancerState(ctx, logger, cluster, namespace, name, ingressNamespace)
}

func dumpLoadBalancerState(ctx context.Context, logger zerolog.Logger, cluster LoadBalancerClient, namespace, name, ingressNamespace string) {
	if out, err := cluster.Describe(ctx, namespace, "service", name); err != nil {
		logger.Warn().Err(err).Msg("service describe failed")
	} else {
		logger.Info().Msg("service " + namespace + "/" + name + ":\n" + out)
	}
	if out, err := cluster.Ingresses(ctx, ingressNamespace); err != nil {
		logger.Warn().Err(err).Msg("ingress dump failed")
	} else {
		logger.Info().Msg("ingresses in " + ingressNamespace + ":\n" + out)
	}
}

func (r *Resolver) sleep(d time.Duration) {
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}
