package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gitopslab/convergectl/pkg/log"
)

// EnvPrefix is prepended to every environment variable the CLI reads.
const EnvPrefix = "CONVERGE_"

// Settings is the full configuration surface. Every threshold has a
// safe default so the CLI is runnable with zero configuration; invalid
// values fall back to the default with a warning instead of aborting.
type Settings struct {
	// Lock-retry executor.
	TerraformBin             string `toml:"terraform_bin"`
	TerraformDir             string `toml:"terraform_dir"`
	MaxAttempts              int    `toml:"max_attempts"`
	BackoffBaseSeconds       int    `toml:"backoff_base_seconds"`
	BackoffCapSeconds        int    `toml:"backoff_cap_seconds"`
	ForceUnlockAfterSeconds  int    `toml:"force_unlock_after_seconds"`
	ForceUnlockAfterAttempts int    `toml:"force_unlock_after_attempts"`

	// Convergence poller.
	KubectlBin          string `toml:"kubectl_bin"`
	AppName             string `toml:"app_name"`
	ArgoNamespace       string `toml:"argo_namespace"`
	TargetNamespace     string `toml:"target_namespace"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxPolls            int    `toml:"max_polls"`
	LogTailLines        int    `toml:"log_tail_lines"`

	// Endpoint discovery and verification.
	IngressService        string   `toml:"ingress_service"`
	IngressClass          string   `toml:"ingress_class"`
	ParamsFile            string   `toml:"params_file"`
	ExtraParamsFiles      []string `toml:"extra_params_files"`
	ManifestFiles         []string `toml:"manifest_files"`
	ValidationPaths       []string `toml:"validation_paths"`
	EndpointAttempts      int      `toml:"endpoint_attempts"`
	EndpointDelaySeconds  int      `toml:"endpoint_delay_seconds"`
	VerifyRounds          int      `toml:"verify_rounds"`
	VerifyDelaySeconds    int      `toml:"verify_delay_seconds"`
	SkipReachabilityCheck bool     `toml:"skip_reachability_check"`

	// Logging.
	LogLevel string `toml:"log_level"`
	LogJSON  bool   `toml:"log_json"`
}

// Defaults returns the documented default settings.
func Defaults() Settings {
	return Settings{
		TerraformBin:             "terraform",
		TerraformDir:             ".",
		MaxAttempts:              5,
		BackoffBaseSeconds:       15,
		BackoffCapSeconds:        300,
		ForceUnlockAfterSeconds:  1800,
		ForceUnlockAfterAttempts: 3,

		KubectlBin:          "kubectl",
		AppName:             "iam",
		ArgoNamespace:       "argocd",
		TargetNamespace:     "iam",
		PollIntervalSeconds: 10,
		MaxPolls:            90,
		LogTailLines:        100,

		IngressService:        "ingress-nginx/ingress-nginx-controller",
		IngressClass:          "nginx",
		ParamsFile:            "gitops/apps/iam/params.env",
		ExtraParamsFiles:      []string{"gitops/clusters/aks/bootstrap/params.env"},
		ManifestFiles:         nil,
		ValidationPaths:       []string{"gitops"},
		EndpointAttempts:      30,
		EndpointDelaySeconds:  10,
		VerifyRounds:          6,
		VerifyDelaySeconds:    10,
		SkipReachabilityCheck: false,

		LogLevel: "info",
		LogJSON:  false,
	}
}

// Load builds the effective settings: documented defaults, overridden
// by an optional TOML file, overridden by environment variables.
func Load(file string) (Settings, error) {
	s := Defaults()

	if file != "" {
		if _, err := toml.DecodeFile(file, &s); err != nil {
			if os.IsNotExist(err) {
				log.Logger.Debug().Str("file", file).Msg("config file not found, using defaults")
			} else {
				return s, fmt.Errorf("failed to parse config file %s: %v", file, err)
			}
		}
	}

	s.applyEnv()
	s.clamp()
	return s, nil
}

// applyEnv overlays CONVERGE_* environment variables onto the settings.
func (s *Settings) applyEnv() {
	envString("TERRAFORM_BIN", &s.TerraformBin)
	envString("TERRAFORM_DIR", &s.TerraformDir)
	envInt("MAX_ATTEMPTS", &s.MaxAttempts)
	envInt("BACKOFF_BASE_SECONDS", &s.BackoffBaseSeconds)
	envInt("BACKOFF_CAP_SECONDS", &s.BackoffCapSeconds)
	envInt("FORCE_UNLOCK_AFTER_SECONDS", &s.ForceUnlockAfterSeconds)
	envInt("FORCE_UNLOCK_AFTER_ATTEMPTS", &s.ForceUnlockAfterAttempts)

	envString("KUBECTL_BIN", &s.KubectlBin)
	envString("APP_NAME", &s.AppName)
	envString("ARGO_NAMESPACE", &s.ArgoNamespace)
	envString("TARGET_NAMESPACE", &s.TargetNamespace)
	envInt("POLL_INTERVAL_SECONDS", &s.PollIntervalSeconds)
	envInt("MAX_POLLS", &s.MaxPolls)
	envInt("LOG_TAIL_LINES", &s.LogTailLines)

	envString("INGRESS_SERVICE", &s.IngressService)
	envString("INGRESS_CLASS", &s.IngressClass)
	envString("PARAMS_FILE", &s.ParamsFile)
	envList("EXTRA_PARAMS_FILES", &s.ExtraParamsFiles)
	envList("MANIFEST_FILES", &s.ManifestFiles)
	envList("VALIDATION_PATHS", &s.ValidationPaths)
	envInt("ENDPOINT_ATTEMPTS", &s.EndpointAttempts)
	envInt("ENDPOINT_DELAY_SECONDS", &s.EndpointDelaySeconds)
	envInt("VERIFY_ROUNDS", &s.VerifyRounds)
	envInt("VERIFY_DELAY_SECONDS", &s.VerifyDelaySeconds)
	envBool("SKIP_REACHABILITY_CHECK", &s.SkipReachabilityCheck)

	envString("LOG_LEVEL", &s.LogLevel)
	envBool("LOG_JSON", &s.LogJSON)
}

// clamp replaces out-of-range numeric settings with the documented
// defaults. Thresholds must never abort startup (force-unlock values
// of 0 are valid: they disable that trigger).
func (s *Settings) clamp() {
	d := Defaults()
	clampMin(&s.MaxAttempts, 1, d.MaxAttempts, "max_attempts")
	clampMin(&s.BackoffBaseSeconds, 0, d.BackoffBaseSeconds, "backoff_base_seconds")
	clampMin(&s.BackoffCapSeconds, 0, d.BackoffCapSeconds, "backoff_cap_seconds")
	clampMin(&s.ForceUnlockAfterSeconds, 0, d.ForceUnlockAfterSeconds, "force_unlock_after_seconds")
	clampMin(&s.ForceUnlockAfterAttempts, 0, d.ForceUnlockAfterAttempts, "force_unlock_after_attempts")
	clampMin(&s.PollIntervalSeconds, 1, d.PollIntervalSeconds, "poll_interval_seconds")
	clampMin(&s.MaxPolls, 1, d.MaxPolls, "max_polls")
	clampMin(&s.LogTailLines, 1, d.LogTailLines, "log_tail_lines")
	clampMin(&s.EndpointAttempts, 1, d.EndpointAttempts, "endpoint_attempts")
	clampMin(&s.EndpointDelaySeconds, 0, d.EndpointDelaySeconds, "endpoint_delay_seconds")
	clampMin(&s.VerifyRounds, 1, d.VerifyRounds, "verify_rounds")
	clampMin(&s.VerifyDelaySeconds, 0, d.VerifyDelaySeconds, "verify_delay_seconds")
}

func clampMin(v *int, min, def int, name string) {
	if *v < min {
		log.Logger.Warn().
			Str("setting", name).
			Int("value", *v).
			Int("default", def).
			Msg("invalid setting, using default")
		*v = def
	}
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		log.Logger.Warn().
			Str("variable", EnvPrefix+name).
			Str("value", v).
			Int("default", *dst).
			Msg("expected a non-negative integer, keeping default")
		return
	}
	*dst = n
}

func envBool(name string, dst *bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		log.Logger.Warn().
			Str("variable", EnvPrefix+name).
			Str("value", v).
			Msg("expected a boolean, keeping default")
		return
	}
	*dst = b
}

func envList(name string, dst *[]string) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
