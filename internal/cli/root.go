package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dataDir    string
)

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	play := NewPlayCmd(&configPath, &dataDir)
	cmd := &cobra.Command{
		Use:           "qcm",
		Short:         "Console multiple-choice quiz application",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          play.RunE,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the JSON stores (overrides config)")
	cmd.AddCommand(play)
	cmd.AddCommand(NewLeaderboardCmd(&configPath, &dataDir))
	cmd.AddCommand(NewResultsCmd(&configPath, &dataDir))
	cmd.AddCommand(NewCatalogCmd(&configPath, &dataDir))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
