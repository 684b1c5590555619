package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitopslab/convergectl/pkg/endpoint"
	"github.com/gitopslab/convergectl/pkg/terraform"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full convergence pipeline",
	Long: `Run the whole pipeline in order: apply infrastructure under
state-lock retry, wait for the application to converge, discover the
ingress address and rewrite host parameters, wait for the follow-up
reconciliation, then smoke-verify the services.

Each stage is idempotent, so a killed run can simply be restarted.`,
	RunE: runPipelineCmd,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipelineCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Println("Stage 1/5: applying infrastructure...")
	if err := newExecutor(settings, terraform.DefaultSignatures()).Apply(ctx, args...); err != nil {
		return err
	}

	fmt.Println("Stage 2/5: waiting for application convergence...")
	if err := newPoller(settings).Wait(ctx); err != nil {
		return err
	}

	fmt.Println("Stage 3/5: discovering ingress address...")
	rec, err := newResolver(settings, "", "").Resolve(ctx)
	if err != nil {
		return err
	}
	if err := applyHostRecord(settings, rec); err != nil {
		return err
	}

	// The parameter rewrite re-enters the reconciliation cycle.
	fmt.Println("Stage 4/5: waiting for follow-up reconciliation...")
	if err := newPoller(settings).Wait(ctx); err != nil {
		return err
	}

	fmt.Println("Stage 5/5: verifying services...")
	err = newVerifier(settings).Verify(ctx,
		endpoint.TargetsFor(rec.Hosts, endpoint.DefaultRoutes()))
	var verifyErr *endpoint.VerifyError
	if errors.As(err, &verifyErr) {
		dumpVerifyTriage(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Println("✓ Pipeline complete")
	return nil
}
