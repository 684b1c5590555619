package main

import (
	"path/filepath"
	"time"

	"github.com/gitopslab/convergectl/pkg/argocd"
	"github.com/gitopslab/convergectl/pkg/config"
	"github.com/gitopslab/convergectl/pkg/endpoint"
	"github.com/gitopslab/convergectl/pkg/kube"
	"github.com/gitopslab/convergectl/pkg/poller"
	"github.com/gitopslab/convergectl/pkg/retry"
	"github.com/gitopslab/convergectl/pkg/runner"
	"github.com/gitopslab/convergectl/pkg/terraform"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func newExecutor(s config.Settings, signatures terraform.SignatureTable) *terraform.Executor {
	return &terraform.Executor{
		Runner:     runner.ExecRunner{},
		Bin:        s.TerraformBin,
		Dir:        s.TerraformDir,
		Signatures: signatures,
		Policy: retry.Policy{
			MaxAttempts: s.MaxAttempts,
			Base:        seconds(s.BackoffBaseSeconds),
			Cap:         seconds(s.BackoffCapSeconds),
		},
		ForceUnlockAfter:         seconds(s.ForceUnlockAfterSeconds),
		ForceUnlockAfterAttempts: s.ForceUnlockAfterAttempts,
	}
}

func newKubeClient(s config.Settings) *kube.Client {
	return &kube.Client{Runner: runner.ExecRunner{}, Bin: s.KubectlBin}
}

func newPoller(s config.Settings) *poller.Poller {
	return &poller.Poller{
		Apps: &argocd.Client{
			Runner:    runner.ExecRunner{},
			Bin:       s.KubectlBin,
			Namespace: s.ArgoNamespace,
		},
		Cluster:   newKubeClient(s),
		AppName:   s.AppName,
		Namespace: s.TargetNamespace,
		Interval:  seconds(s.PollIntervalSeconds),
		MaxPolls:  s.MaxPolls,
		LogTail:   s.LogTailLines,
	}
}

func newResolver(s config.Settings, explicitIP, explicitHostname string) *endpoint.Resolver {
	return &endpoint.Resolver{
		Cluster:          newKubeClient(s),
		Service:          s.IngressService,
		Attempts:         s.EndpointAttempts,
		Delay:            seconds(s.EndpointDelaySeconds),
		ExplicitIP:       explicitIP,
		ExplicitHostname: explicitHostname,
		SkipReachability: s.SkipReachabilityCheck,
	}
}

func newVerifier(s config.Settings) *endpoint.Verifier {
	return &endpoint.Verifier{
		Rounds: s.VerifyRounds,
		Delay:  seconds(s.VerifyDelaySeconds),
	}
}

// applyHostRecord writes a resolved host set into every declarative
// artifact: the primary params file, any extra params files, inline
// manifests and the CI outputs, then validates that no managed
// hostname still references a stale address. Extra params files are
// deduplicated against the primary by absolute path.
func applyHostRecord(s config.Settings, rec endpoint.Record) error {
	ingressClass := endpoint.ReadIngressClass(s.ParamsFile)
	if ingressClass == "" {
		ingressClass = s.IngressClass
	}

	if err := endpoint.WriteParams(s.ParamsFile, ingressClass, rec.Hosts); err != nil {
		return err
	}
	primary, _ := filepath.Abs(s.ParamsFile)
	for _, extra := range s.ExtraParamsFiles {
		if extra == "" {
			continue
		}
		if abs, _ := filepath.Abs(extra); abs == primary {
			continue
		}
		if err := endpoint.WriteParams(extra, ingressClass, rec.Hosts); err != nil {
			return err
		}
	}

	if err := endpoint.RewriteManifests(s.ManifestFiles, rec.Hosts); err != nil {
		return err
	}
	if err := endpoint.EnsureRotated(s.ValidationPaths, rec.Address); err != nil {
		return err
	}
	return endpoint.AppendCIOutputs(rec)
}
