package endpoint

import (
	"fmt"
	"os"
)

// AppendCIOutputs publishes the discovered address and URLs to GitHub
// Actions when GITHUB_ENV / GITHUB_OUTPUT are present. A no-op outside
// CI.
func AppendCIOutputs(rec Record) error {
	if envFile := os.Getenv("GITHUB_ENV"); envFile != "" {
		lines := fmt.Sprintf("EXTERNAL_IP=%s\nKC_HOST=%s\nMP_HOST=%s\nARGOCD_HOST=%s\n",
			rec.Address, rec.Hosts.Keycloak, rec.Hosts.Midpoint, rec.Hosts.ArgoCD)
		if err := appendFile(envFile, lines); err != nil {
			return err
		}
	}
	if outFile := os.Getenv("GITHUB_OUTPUT"); outFile != "" {
		// The ingress serves plain HTTP; TLS terminates upstream.
		lines := fmt.Sprintf("keycloak_url=http://%s\nmidpoint_url=http://%s/midpoint\nargocd_url=http://%s\n",
			rec.Hosts.Keycloak, rec.Hosts.Midpoint, rec.Hosts.ArgoCD)
		if err := appendFile(outFile, lines); err != nil {
			return err
		}
	}
	return nil
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to append to %s: %v", path, err)
	}
	return nil
}
