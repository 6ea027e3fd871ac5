package cli

import (
	"github.com/spf13/cobra"

	"qcm-app/internal/console"
)

// NewLeaderboardCmd prints the leaderboard and exits.
func NewLeaderboardCmd(configPath, dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top users by average score",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, *dataDir)
			if err != nil {
				return err
			}
			d, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.close()

			standings, err := d.reports().Leaderboard(cmd.Context())
			if err != nil {
				return err
			}
			console.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout()).ShowLeaderboard(standings)
			return nil
		},
	}
}

// NewResultsCmd prints every user's history, like the instructor view.
func NewResultsCmd(configPath, dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "Print every student's quiz results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, *dataDir)
			if err != nil {
				return err
			}
			d, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.close()

			histories, err := d.reports().AllResults(cmd.Context())
			if err != nil {
				return err
			}
			console.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout()).ShowAllResults(histories)
			return nil
		},
	}
}
