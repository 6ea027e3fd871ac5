package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"qcm-app/internal/app"
	"qcm-app/internal/config"
	"qcm-app/internal/infra/file"
	"qcm-app/internal/infra/memory"
	pgcatalog "qcm-app/internal/infra/postgres"
	rediscache "qcm-app/internal/infra/redis"
	"qcm-app/internal/infra/sqlite"
	"qcm-app/internal/logger"
)

// stores is what a backend provides for users, history and stats.
type stores interface {
	app.UserRepository
	app.HistoryRepository
	app.StatsRepository
}

// deps holds everything built from the config. close releases connections
// in reverse order of creation.
type deps struct {
	cfg     config.Config
	log     *zap.Logger
	store   stores
	catalog app.CatalogStore
	guard   app.AttemptGuard
	closers []func()
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	_ = d.log.Sync()
}

func loadConfig(configPath, dataDirFlag string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	return cfg, nil
}

func build(ctx context.Context, cfg config.Config) (*deps, error) {
	log, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, log: log}
	if err := d.wire(ctx); err != nil {
		d.close()
		return nil, err
	}
	return d, nil
}

func (d *deps) wire(ctx context.Context) error {
	cfg := d.cfg
	files, err := file.NewFiles(cfg.DataDir, cfg.Storage.ResetOnCorrupt, d.log)
	if err != nil {
		return err
	}

	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		db, err := sqlite.Open(cfg.SQLitePath())
		if err != nil {
			return err
		}
		d.closers = append(d.closers, func() { _ = db.Close() })
		d.store = db
	default:
		st, err := file.Open(files)
		if err != nil {
			return err
		}
		d.store = st
	}

	var source app.CatalogSource
	switch cfg.Catalog.Source {
	case config.CatalogPostgres:
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, pool.Close)
		source = pgcatalog.NewCatalogSource(pool)
	default:
		source = file.NewCatalogSource(files, cfg.Catalog.Path)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	if client := redisClient(cfg); client != nil {
		d.closers = append(d.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		d.catalog = rediscache.NewCatalogRepository(client, source, catalogTTL, d.log)
		d.guard = rediscache.NewAttemptGuard(client, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute), d.log)
	} else {
		d.catalog = memory.NewCatalogRepository(source, catalogTTL)
		d.guard = memory.NewAttemptGuard()
	}
	return nil
}

func redisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func connectPostgres(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.Postgres.URL == "" {
		return nil, errors.New("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return pgxpool.Connect(ctx, cfg.Postgres.URL)
}

// runner builds the attempt runner around the given collector and presenter.
func (d *deps) runner(collector app.AnswerCollector, presenter app.Presenter) *app.Runner {
	recorder := app.NewRecorder(d.store, d.store, d.log)
	return app.NewRunner(d.catalog, collector, presenter, recorder,
		app.WithTimeLimit(d.cfg.TimeLimit()),
		app.WithGuard(d.guard),
		app.WithLogger(d.log),
	)
}

func (d *deps) reports() *app.Reports {
	return app.NewReports(d.store, d.store, d.cfg.Quiz.LeaderboardSize)
}
