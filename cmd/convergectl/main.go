package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gitopslab/convergectl/pkg/config"
	"github.com/gitopslab/convergectl/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// errUsage marks invalid invocations so main can exit 2 instead of 1.
var errUsage = errors.New("invalid invocation")

var (
	configFile string
	settings   config.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "convergectl",
	Short: "Convergectl - drive a GitOps control plane to convergence",
	Long: `Convergectl orchestrates an infrastructure provisioner and a GitOps
reconciliation controller to a known-good convergent state.

It applies infrastructure under state-lock retry, polls the tracked
application until it reports Synced and Healthy, discovers the ingress
load balancer address, rewrites the declarative host parameters, and
verifies the deployed services answer over HTTP.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = config.Load(configFile)
		if err != nil {
			return err
		}
		log.Init(log.Config{
			Level:      log.Level(settings.LogLevel),
			JSONOutput: settings.LogJSON,
		})
		log.Logger = log.WithRunID(uuid.NewString())
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"convergectl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "convergectl.toml",
		"Optional TOML config file (environment variables override it)")
}
