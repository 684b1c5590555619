package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Discover the ingress address and rewrite host parameters",
	Long: `Resolve the ingress load balancer's external address, derive the
per-service nip.io hostnames and write them into the declarative
parameter artifacts the reconciliation controller watches.

Re-running with an unchanged address produces byte-identical artifacts,
so the source of truth only changes when the address actually rotates.`,
	RunE: runHostsCmd,
}

func init() {
	hostsCmd.Flags().String("ingress-ip", "", "Explicit ingress IP (skips discovery)")
	hostsCmd.Flags().String("ingress-hostname", "", "Explicit ingress hostname to resolve")
	hostsCmd.Flags().Bool("print-only", false, "Print derived hosts without writing anything")
	rootCmd.AddCommand(hostsCmd)
}

func runHostsCmd(cmd *cobra.Command, args []string) error {
	explicitIP, _ := cmd.Flags().GetString("ingress-ip")
	explicitHostname, _ := cmd.Flags().GetString("ingress-hostname")
	printOnly, _ := cmd.Flags().GetBool("print-only")

	rec, err := newResolver(settings, explicitIP, explicitHostname).Resolve(cmd.Context())
	if err != nil {
		return err
	}

	if printOnly {
		fmt.Println(rec.Hosts.Keycloak)
		fmt.Println(rec.Hosts.Midpoint)
		fmt.Println(rec.Hosts.ArgoCD)
		return nil
	}

	if err := applyHostRecord(settings, rec); err != nil {
		return err
	}

	fmt.Println("✓ Updated ingress host configuration:")
	fmt.Printf("  Keycloak:  http://%s\n", rec.Hosts.Keycloak)
	fmt.Printf("  midPoint:  http://%s/midpoint\n", rec.Hosts.Midpoint)
	fmt.Printf("  Argo CD:   http://%s\n", rec.Hosts.ArgoCD)
	return nil
}
