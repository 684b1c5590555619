package endpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCIOutputs(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "env")
	outFile := filepath.Join(dir, "output")
	require.NoError(t, os.WriteFile(envFile, []byte("EXISTING=1\n"), 0o644))
	t.Setenv("GITHUB_ENV", envFile)
	t.Setenv("GITHUB_OUTPUT", outFile)

	rec := Record{Address: "203.0.113.7", Hosts: testHosts("203.0.113.7")}
	require.NoError(t, AppendCIOutputs(rec))

	env, err := os.ReadFile(envFile)
	require.NoError(t, err)
	// Appended, not truncated.
	assert.Contains(t, string(env), "EXISTING=1\n")
	assert.Contains(t, string(env), "EXTERNAL_IP=203.0.113.7\n")
	assert.Contains(t, string(env), "KC_HOST=kc.203.0.113.7.nip.io\n")
	assert.Contains(t, string(env), "MP_HOST=mp.203.0.113.7.nip.io\n")
	assert.Contains(t, string(env), "ARGOCD_HOST=argocd.203.0.113.7.nip.io\n")

	out, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(out), "keycloak_url=http://kc.203.0.113.7.nip.io\n")
	assert.Contains(t, string(out), "midpoint_url=http://mp.203.0.113.7.nip.io/midpoint\n")
	assert.Contains(t, string(out), "argocd_url=http://argocd.203.0.113.7.nip.io\n")
}

func TestAppendCIOutputsOutsideCI(t *testing.T) {
	t.Setenv("GITHUB_ENV", "")
	t.Setenv("GITHUB_OUTPUT", "")

	rec := Record{Address: "203.0.113.7", Hosts: testHosts("203.0.113.7")}
	assert.NoError(t, AppendCIOutputs(rec))
}
