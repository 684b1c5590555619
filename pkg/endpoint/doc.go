/*
Package endpoint discovers the external ingress address and maintains
the hostname configuration derived from it.

Cloud load balancers publish their external address minutes after the
service is created, and the address changes when the environment is
rebuilt. This package resolves the address (with a bounded fixed-delay
retry), derives deterministic nip.io hostnames from it, rewrites the
GitOps parameter files and manifests that embed those hostnames, and
smoke-verifies that the services actually answer on them.

# Discovery

The resolver prefers a published IP (most recently appended ingress
entry first) and falls back to DNS resolution of published hostnames.
Addresses must be public: a private or loopback address means the load
balancer has not really provisioned, and deriving hosts from it would
poison the GitOps state. A TCP precheck on ports 80/443 catches
firewalled addresses before they reach the parameter files.

# Parameter Files

WriteParams output is a pure function of the ingress class and host
set. No timestamps, no ordering jitter: re-running against an unchanged
address produces a byte-identical file, so the GitOps diff is empty
exactly when nothing changed.

After a rewrite, EnsureRotated walks the managed paths and fails if any
nip.io hostname still embeds an old address, which catches manifests
added outside the managed list.

# Verification

The verifier probes each service's candidate paths (routes.yaml,
embedded, overridable) over a bounded number of rounds. Any 2xx or 3xx
on any candidate path passes the service: the check proves the ingress
routes to something alive, not that the application is semantically
correct. Redirects are not followed, since a redirect already proves
the service answered.
*/
package endpoint
