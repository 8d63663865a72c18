// Package config resolves runtime settings from defaults, the TOML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/statsheet/internal/model"
)

// DefaultEndpoint is the GraphQL endpoint used when none is configured.
const DefaultEndpoint = "http://localhost:8000/graphql"

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Source   SourceConfig   `toml:"source"`
	Cache    CacheConfig    `toml:"cache"`
	Snapshot SnapshotConfig `toml:"snapshot"`
}

// SourceConfig maps data source settings.
type SourceConfig struct {
	Endpoint *string `toml:"endpoint"`
	Fixture  *string `toml:"fixture"`
	Timeout  *string `toml:"timeout"`
}

// CacheConfig maps response cache settings.
type CacheConfig struct {
	Enabled    *bool   `toml:"enabled"`
	TTL        *string `toml:"ttl"`
	LookupSize *int    `toml:"lookup-size"`
}

// SnapshotConfig maps roster snapshot settings.
type SnapshotConfig struct {
	Name     *string `toml:"name"`
	Autosave *bool   `toml:"autosave"`
}

// Defaults returns the built-in settings.
func Defaults() model.Config {
	return model.Config{
		Endpoint:        DefaultEndpoint,
		Timeout:         10 * time.Second,
		CacheEnabled:    true,
		CacheTTL:        24 * time.Hour,
		LookupCacheSize: 256,
		SnapshotName:    "default",
		Autosave:        true,
	}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Apply overlays the values set in the file onto cfg.
func (f FileConfig) Apply(cfg *model.Config) error {
	if f.Source.Endpoint != nil {
		cfg.Endpoint = *f.Source.Endpoint
	}
	if f.Source.Fixture != nil {
		cfg.Fixture = *f.Source.Fixture
	}
	if f.Source.Timeout != nil {
		d, err := time.ParseDuration(*f.Source.Timeout)
		if err != nil {
			return fmt.Errorf("source.timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if f.Cache.Enabled != nil {
		cfg.CacheEnabled = *f.Cache.Enabled
	}
	if f.Cache.TTL != nil {
		d, err := time.ParseDuration(*f.Cache.TTL)
		if err != nil {
			return fmt.Errorf("cache.ttl: %w", err)
		}
		cfg.CacheTTL = d
	}
	if f.Cache.LookupSize != nil {
		cfg.LookupCacheSize = *f.Cache.LookupSize
	}
	if f.Snapshot.Name != nil {
		cfg.SnapshotName = *f.Snapshot.Name
	}
	if f.Snapshot.Autosave != nil {
		cfg.Autosave = *f.Snapshot.Autosave
	}
	return nil
}

// Validate reports every invalid setting in cfg.
func Validate(cfg model.Config) error {
	var errs []error
	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout))
	}
	if cfg.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl must not be negative, got %s", cfg.CacheTTL))
	}
	if cfg.LookupCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("lookup cache size must be positive, got %d", cfg.LookupCacheSize))
	}
	if cfg.SnapshotName == "" {
		errs = append(errs, errors.New("snapshot name must not be empty"))
	}
	return errors.Join(errs...)
}
