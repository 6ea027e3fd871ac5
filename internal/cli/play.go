package cli

import (
	"github.com/spf13/cobra"

	"qcm-app/internal/app"
	"qcm-app/internal/console"
)

// NewPlayCmd starts the interactive menus. It is also the root command's default.
func NewPlayCmd(configPath, dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Start the interactive quiz console",
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

			term := console.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
			svc := console.Services{
				Accounts: app.NewAccounts(d.store, d.store, d.store),
				Catalog:  app.NewCatalogService(d.catalog),
				Runner:   d.runner(app.NewCollector(term), term),
				Reports:  d.reports(),
			}
			return console.NewMenu(term, svc, d.log).Run(cmd.Context())
		},
	}
}
