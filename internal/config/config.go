package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	CatalogFile     = "file"
	CatalogPostgres = "postgres"

	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

type Config struct {
	Env     string `yaml:"env"`
	DataDir string `yaml:"data_dir"`
	Catalog struct {
		Source string `yaml:"source"`
		Path   string `yaml:"path"`
		TTL    string `yaml:"ttl"`
	} `yaml:"catalog"`
	Storage struct {
		Backend        string `yaml:"backend"`
		SQLitePath     string `yaml:"sqlite_path"`
		ResetOnCorrupt bool   `yaml:"reset_on_corrupt"`
	} `yaml:"storage"`
	Quiz struct {
		TimeLimit       string `yaml:"time_limit"`
		LeaderboardSize int    `yaml:"leaderboard_size"`
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Env = "local"
	cfg.DataDir = "qcm_data"
	cfg.Catalog.Source = CatalogFile
	cfg.Catalog.Path = "qcms.json"
	cfg.Catalog.TTL = "10m"
	cfg.Storage.Backend = StorageJSON
	cfg.Storage.SQLitePath = "qcm.db"
	cfg.Storage.ResetOnCorrupt = true
	cfg.Quiz.TimeLimit = "5m"
	cfg.Quiz.LeaderboardSize = 5
	cfg.Redis.TTL = "30m"
	cfg.Log.Level = "warn"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not
// an error. Values from a .env file in the working directory and from the
// environment override the file.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("QCM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("QCM_TIME_LIMIT"); v != "" {
		cfg.Quiz.TimeLimit = v
	}
	if v := os.Getenv("QCM_LEADERBOARD_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QCM_LEADERBOARD_SIZE: %w", err)
		}
		cfg.Quiz.LeaderboardSize = n
	}
	return nil
}

// Validate rejects unknown backends and malformed time limits.
func (c Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogFile:
	case CatalogPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("catalog source %q needs postgres.url", c.Catalog.Source)
		}
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	switch c.Storage.Backend {
	case StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Quiz.TimeLimit != "" {
		if _, err := time.ParseDuration(c.Quiz.TimeLimit); err != nil {
			return fmt.Errorf("quiz.time_limit: %w", err)
		}
	}
	return nil
}

// TimeLimit is the per-attempt deadline; zero means untimed.
func (c Config) TimeLimit() time.Duration {
	return TTLDuration(c.Quiz.TimeLimit, 0)
}

// CatalogPath resolves catalog.path against data_dir.
func (c Config) CatalogPath() string {
	return c.resolve(c.Catalog.Path)
}

// SQLitePath resolves storage.sqlite_path against data_dir.
func (c Config) SQLitePath() string {
	return c.resolve(c.Storage.SQLitePath)
}

func (c Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
