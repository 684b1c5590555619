package endpoint

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/gitopslab/convergectl/pkg/log"
)

//go:embed routes.yaml
var builtinRoutes []byte

// RouteTable lists the smoke-test candidate paths per service. Plain
// data, so a new deployment layout means a table edit, not code.
type RouteTable struct {
	Version  int            `yaml:"version"`
	Services []ServiceRoute `yaml:"services"`
}

// ServiceRoute is the candidate path set for one downstream service.
type ServiceRoute struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
}

// DefaultRoutes returns the embedded route table.
func DefaultRoutes() RouteTable {
	var t RouteTable
	if err := yaml.Unmarshal(builtinRoutes, &t); err != nil {
		panic(fmt.Sprintf("embedded route table is invalid: %v", err))
	}
	return t
}

// LoadRoutes reads a route table from a YAML file, falling back to the
// embedded table when the file does not exist.
func LoadRoutes(path string) (RouteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRoutes(), nil
		}
		return RouteTable{}, fmt.Errorf("failed to read route table: %v", err)
	}
	var t RouteTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return RouteTable{}, fmt.Errorf("failed to parse route table %s: %v", path, err)
	}
	return t, nil
}

// Target is one service to verify: a hostname plus its candidate
// paths.
type Target struct {
	Service string
	Host    string
	Paths   []string
}

// TargetsFor binds the route table to a derived host set.
func TargetsFor(h Hosts, table RouteTable) []Target {
	hostFor := map[string]string{
		"keycloak": h.Keycloak,
		"midpoint": h.Midpoint,
		"argocd":   h.ArgoCD,
	}
	var targets []Target
	for _, svc := range table.Services {
		host := hostFor[svc.Name]
		if host == "" {
			continue
		}
		targets = append(targets, Target{Service: svc.Name, Host: host, Paths: svc.Paths})
	}
	return targets
}

// VerifyError reports the services that never answered on any
// candidate path.
type VerifyError struct {
	Failed []string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("smoke verification failed for: %s", strings.Join(e.Failed, ", "))
}

// Verifier performs HTTP-level smoke verification over a bounded
// number of rounds. A service passes as soon as any candidate path
// returns 2xx/3xx.
type Verifier struct {
	// Client defaults to an http.Client with a 10 second timeout and
	// redirects disabled (a 3xx already proves the service answers).
	Client *http.Client

	Rounds int
	Delay  time.Duration

	// BaseURL maps a hostname to the request base. Defaults to plain
	// http; tests point it at a local server.
	BaseURL func(host string) string

	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Verify probes every target until all pass or the rounds run out.
func (v *Verifier) Verify(ctx context.Context, targets []Target) error {
	logger := log.WithComponent("verify")

	pending := make(map[string]Target, len(targets))
	for _, t := range targets {
		pending[t.Service] = t
	}

	for round := 1; round <= v.Rounds && len(pending) > 0; round++ {
		for service, target := range pending {
			path, ok := v.probe(ctx, logger, target)
			if ok {
				logger.Info().
					Str("service", service).
					Str("host", target.Host).
					Str("path", path).
					Int("round", round).
					Msg("service reachable")
				delete(pending, service)
			}
		}
		if len(pending) > 0 && round < v.Rounds {
			logger.Info().
				Int("round", round).
				Int("rounds", v.Rounds).
				Int("pending", len(pending)).
				Msg("services not reachable yet")
			v.sleep(v.Delay)
		}
	}

	if len(pending) == 0 {
		return nil
	}
	failed := make([]string, 0, len(pending))
	for service := range pending {
		failed = append(failed, service)
	}
	sort.Strings(failed)
	return &VerifyError{Failed: failed}
}

// probe tries each candidate path once and returns the first that
// answers 2xx/3xx.
func (v *Verifier) probe(ctx context.Context, logger zerolog.Logger, target Target) (string, bool) {
	base := "http://" + target.Host
	if v.BaseURL != nil {
		base = v.BaseURL(target.Host)
	}
	for _, path := range target.Paths {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
		if err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("failed to build request")
			continue
		}
		req.Host = target.Host
		resp, err := v.client().Do(req)
		if err != nil {
			logger.Debug().Err(err).Str("host", target.Host).Str("path", path).Msg("probe failed")
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 400 {
			return path, true
		}
		logger.Debug().
			Str("host", target.Host).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("probe rejected")
	}
	return "", false
}

func (v *Verifier) client() *http.Client {
	if v.Client != nil {
		return v.Client
	}
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (v *Verifier) sleep(d time.Duration) {
	if v.Sleep != nil {
		v.Sleep(d)
		return
	}
	time.Sleep(d)
}
