package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHosts(t *testing.T) {
	h, err := BuildHosts("203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "kc.203.0.113.7.nip.io", h.Keycloak)
	assert.Equal(t, "mp.203.0.113.7.nip.io", h.Midpoint)
	assert.Equal(t, "argocd.203.0.113.7.nip.io", h.ArgoCD)
}

func TestBuildHostsInvalid(t *testing.T) {
	_, err := BuildHosts("pending")
	assert.Error(t, err)
}

func TestIsPublicAddress(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"203.0.113.7", true},
		{"8.8.8.8", true},
		{"10.0.0.1", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"127.0.0.1", false},
		{"169.254.1.1", false},
		{"0.0.0.0", false},
		{"224.0.0.1", false},
		{"", false},
		{"not-an-ip", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPublicAddress(tt.addr))
		})
	}
}

func TestParseServiceRef(t *testing.T) {
	ns, name, err := ParseServiceRef("ingress-nginx/ingress-nginx-controller")
	require.NoError(t, err)
	assert.Equal(t, "ingress-nginx", ns)
	assert.Equal(t, "ingress-nginx-controller", name)

	ns, name, err = ParseServiceRef("ingress-nginx/svc/ingress-nginx-controller")
	require.NoError(t, err)
	assert.Equal(t, "ingress-nginx", ns)
	assert.Equal(t, "ingress-nginx-controller", name)

	_, _, err = ParseServiceRef("just-a-name")
	assert.Error(t, err)
	_, _, err = ParseServiceRef("a/b/c/d")
	assert.Error(t, err)
}
