package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitopslab/convergectl/pkg/terraform"
)

var applyCmd = &cobra.Command{
	Use:   "apply [-- <extra provisioner args>]",
	Short: "Apply infrastructure under state-lock retry",
	Long: `Apply the infrastructure with the configured provisioner, retrying
transient state-lock contention with exponential backoff and releasing
abandoned locks once they exceed the configured age or attempt
thresholds. Non-lock failures are never retried.

Examples:
  # Apply with defaults
  convergectl apply

  # Pass extra args to the provisioner
  convergectl apply -- -target=module.aks`,
	RunE: runApplyCmd,
}

func init() {
	applyCmd.Flags().String("signatures", "", "YAML file overriding the lock-contention signature table")
	rootCmd.AddCommand(applyCmd)
}

func runApplyCmd(cmd *cobra.Command, args []string) error {
	signaturesFile, _ := cmd.Flags().GetString("signatures")
	signatures := terraform.DefaultSignatures()
	if signaturesFile != "" {
		var err error
		signatures, err = terraform.LoadSignatures(signaturesFile)
		if err != nil {
			return err
		}
	}

	if err := newExecutor(settings, signatures).Apply(cmd.Context(), args...); err != nil {
		return err
	}
	fmt.Println("✓ Infrastructure applied")
	return nil
}
