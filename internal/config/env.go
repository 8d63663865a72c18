package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/verte-zerg/statsheet/internal/model"
)

// EnvConfig maps STATSHEET_* environment variables. Unset variables stay nil.
type EnvConfig struct {
	Endpoint        *string        `env:"STATSHEET_ENDPOINT"`
	Fixture         *string        `env:"STATSHEET_FIXTURE"`
	Timeout         *time.Duration `env:"STATSHEET_TIMEOUT"`
	CacheEnabled    *bool          `env:"STATSHEET_CACHE"`
	CacheTTL        *time.Duration `env:"STATSHEET_CACHE_TTL"`
	LookupCacheSize *int           `env:"STATSHEET_LOOKUP_CACHE_SIZE"`
	SnapshotName    *string        `env:"STATSHEET_SNAPSHOT"`
	Autosave        *bool          `env:"STATSHEET_AUTOSAVE"`
}

// LoadEnv loads dotenvPath into the process environment when the file exists,
// without overriding variables that are already set, then parses EnvConfig.
func LoadEnv(dotenvPath string) (EnvConfig, error) {
	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); err == nil {
			if err := godotenv.Load(dotenvPath); err != nil {
				return EnvConfig{}, fmt.Errorf("load %s: %w", dotenvPath, err)
			}
		} else if !os.IsNotExist(err) {
			return EnvConfig{}, fmt.Errorf("stat %s: %w", dotenvPath, err)
		}
	}
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Apply overlays the variables that were set onto cfg.
func (e EnvConfig) Apply(cfg *model.Config) {
	if e.Endpoint != nil {
		cfg.Endpoint = *e.Endpoint
	}
	if e.Fixture != nil {
		cfg.Fixture = *e.Fixture
	}
	if e.Timeout != nil {
		cfg.Timeout = *e.Timeout
	}
	if e.CacheEnabled != nil {
		cfg.CacheEnabled = *e.CacheEnabled
	}
	if e.CacheTTL != nil {
		cfg.CacheTTL = *e.CacheTTL
	}
	if e.LookupCacheSize != nil {
		cfg.LookupCacheSize = *e.LookupCacheSize
	}
	if e.SnapshotName != nil {
		cfg.SnapshotName = *e.SnapshotName
	}
	if e.Autosave != nil {
		cfg.Autosave = *e.Autosave
	}
}

// Resolve builds the settings from defaults, the config file at path and the
// environment, in increasing precedence. Flags are applied by the caller.
func Resolve(path, dotenvPath string) (model.Config, error) {
	cfg := Defaults()
	file, err := LoadConfig(path)
	if err != nil {
		return model.Config{}, err
	}
	if err := file.Apply(&cfg); err != nil {
		return model.Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	envCfg, err := LoadEnv(dotenvPath)
	if err != nil {
		return model.Config{}, err
	}
	envCfg.Apply(&cfg)
	return cfg, nil
}
