package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qcm-app/internal/config"
	"qcm-app/internal/infra/jsondoc"
	pgcatalog "qcm-app/internal/infra/postgres"
	rediscache "qcm-app/internal/infra/redis"
	"qcm-app/internal/logger"
)

// NewCatalogCmd groups catalog maintenance commands.
func NewCatalogCmd(configPath, dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the quiz catalog",
	}
	cmd.AddCommand(newCatalogImportCmd(configPath, dataDir))
	return cmd
}

func newCatalogImportCmd(configPath, dataDir *string) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a qcms.json catalog into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, *dataDir)
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.CatalogPath()
			}
			added, err := importCatalog(cmd.Context(), cfg, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d quizzes from %s\n", added, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "catalog file to import (default: catalog.path under data_dir)")
	return cmd
}

// importCatalog validates the whole file before writing anything, then adds
// the quizzes Postgres does not have yet.
func importCatalog(ctx context.Context, cfg config.Config, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	catalog, err := jsondoc.DecodeCatalog(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		return 0, err
	}
	defer log.Sync()

	pool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer pool.Close()

	added, err := pgcatalog.NewCatalogSource(pool).Import(ctx, catalog)
	if err != nil {
		return added, err
	}
	if client := redisClient(cfg); client != nil {
		defer client.Close()
		if err := client.Del(ctx, rediscache.DefaultCatalogKey).Err(); err != nil {
			log.Warn("catalog cache invalidation failed", zap.Error(err))
		}
	}
	log.Info("catalog imported", zap.String("file", path), zap.Int("added", added))
	return added, nil
}
