// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds the process settings. Command-line flags override these
// values; see cmd/sentinela.
type Config struct {
	DBPath      string `env:"SENTINELA_DB" envDefault:"sentinela.sqlite3"`
	Addr        string `env:"SENTINELA_ADDR" envDefault:":8080"`
	LogFile     string `env:"SENTINELA_LOG_FILE"`
	LogDebug    bool   `env:"SENTINELA_LOG_DEBUG"`
	MaxUploadMB int    `env:"SENTINELA_MAX_UPLOAD_MB" envDefault:"32"`

	// Institution is the name stored on first run.
	Institution string `env:"SENTINELA_INSTITUTION"`
}

// Load reads the given .env files (".env" when none are named) and then the
// environment. Variables already set in the environment win over the files.
// Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that flags may also have set.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("database path is empty")
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("max upload size must be at least 1 MB, got %d", c.MaxUploadMB)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
