package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Defaults()
	assert.Equal(t, "terraform", s.TerraformBin)
	assert.Equal(t, 5, s.MaxAttempts)
	assert.Equal(t, 15, s.BackoffBaseSeconds)
	assert.Equal(t, 300, s.BackoffCapSeconds)
	assert.Equal(t, 90, s.MaxPolls)
	assert.Equal(t, "ingress-nginx/ingress-nginx-controller", s.IngressService)
	assert.Equal(t, "gitops/apps/iam/params.env", s.ParamsFile)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergectl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_attempts = 7
app_name = "platform"
manifest_files = ["gitops/apps/iam/ingress.yaml"]
skip_reachability_check = true
`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, s.MaxAttempts)
	assert.Equal(t, "platform", s.AppName)
	assert.Equal(t, []string{"gitops/apps/iam/ingress.yaml"}, s.ManifestFiles)
	assert.True(t, s.SkipReachabilityCheck)
	// Untouched fields keep defaults.
	assert.Equal(t, 90, s.MaxPolls)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergectl.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_attempts = [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestEnvOverridesFile tests the precedence chain: environment beats
// file beats defaults
func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergectl.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_attempts = 7\napp_name = \"platform\"\n"), 0o644))
	t.Setenv("CONVERGE_MAX_ATTEMPTS", "9")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, s.MaxAttempts)
	assert.Equal(t, "platform", s.AppName)
}

// TestInvalidEnvValuesNeverAbort tests that malformed environment
// values warn and keep the previous value instead of failing startup
func TestInvalidEnvValuesNeverAbort(t *testing.T) {
	t.Setenv("CONVERGE_MAX_ATTEMPTS", "banana")
	t.Setenv("CONVERGE_MAX_POLLS", "-3")
	t.Setenv("CONVERGE_LOG_JSON", "maybe")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, s.MaxAttempts)
	assert.Equal(t, 90, s.MaxPolls)
	assert.False(t, s.LogJSON)
}

func TestEnvValues(t *testing.T) {
	t.Setenv("CONVERGE_TERRAFORM_DIR", "infra/live")
	t.Setenv("CONVERGE_POLL_INTERVAL_SECONDS", "5")
	t.Setenv("CONVERGE_SKIP_REACHABILITY_CHECK", "true")
	t.Setenv("CONVERGE_VALIDATION_PATHS", "gitops, manifests ,")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "infra/live", s.TerraformDir)
	assert.Equal(t, 5, s.PollIntervalSeconds)
	assert.True(t, s.SkipReachabilityCheck)
	assert.Equal(t, []string{"gitops", "manifests"}, s.ValidationPaths)
}

// TestClampReplacesOutOfRange tests that zero attempt or poll budgets
// fall back to defaults while zero force-unlock thresholds stay zero
// (they disable the trigger)
func TestClampReplacesOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergectl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_attempts = 0
max_polls = 0
force_unlock_after_seconds = 0
force_unlock_after_attempts = 0
`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, s.MaxAttempts)
	assert.Equal(t, 90, s.MaxPolls)
	assert.Zero(t, s.ForceUnlockAfterSeconds)
	assert.Zero(t, s.ForceUnlockAfterAttempts)
}
