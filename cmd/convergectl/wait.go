package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the tracked application to converge",
	Long: `Poll the reconciliation controller until the tracked application
reports Synced and Healthy, or fail once the poll budget is exhausted.

Progress is logged once per meaningful state change, never once per
poll, so the output stays readable across multi-minute convergence
windows. Crash-looping containers are described and their logs tailed
at most once per distinct failure signature.`,
	RunE: runWaitCmd,
}

func init() {
	waitCmd.Flags().String("app", "", "Application name (overrides config)")
	waitCmd.Flags().String("namespace", "", "Workload namespace (overrides config)")
	rootCmd.AddCommand(waitCmd)
}

func runWaitCmd(cmd *cobra.Command, args []string) error {
	p := newPoller(settings)
	if app, _ := cmd.Flags().GetString("app"); app != "" {
		p.AppName = app
	}
	if ns, _ := cmd.Flags().GetString("namespace"); ns != "" {
		p.Namespace = ns
	}

	if err := p.Wait(cmd.Context()); err != nil {
		return err
	}
	fmt.Printf("✓ Application %s converged\n", p.AppName)
	return nil
}
