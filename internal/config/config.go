// Package config loads dlgforge settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/nathoo/dlgforge/engine/path"
	"github.com/nathoo/dlgforge/engine/save"
)

// Config holds every setting. Each field maps to one DLG_* variable.
type Config struct {
	LogLevel        string        `env:"DLG_LOG_LEVEL" envDefault:"warn"`
	LogFormat       string        `env:"DLG_LOG_FORMAT" envDefault:"console"`
	TypewriterDelay time.Duration `env:"DLG_TYPEWRITER_DELAY" envDefault:"20ms"`
	PathMode        string        `env:"DLG_PATH_MODE" envDefault:"shortest"`
	RandomRetries   int           `env:"DLG_RANDOM_RETRIES" envDefault:"64"`
	ExploreDepth    int           `env:"DLG_EXPLORE_DEPTH" envDefault:"64"`
	Seed            int64         `env:"DLG_SEED" envDefault:"0"`
	PlayerIDs       []string      `env:"DLG_PLAYER_IDS" envDefault:"hero,player,[PlayerName]" envSeparator:","`
	SnapshotFormat  string        `env:"DLG_SNAPSHOT_FORMAT" envDefault:"json"`
	EnvFile         string        `env:"DLG_ENV_FILE" envDefault:".env"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the .env file named by DLG_ENV_FILE (default .env) when it
// exists, then parses and validates the environment. Variables already set
// in the environment win over the file.
func Load() (Config, error) {
	file := os.Getenv("DLG_ENV_FILE")
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", file, err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot.
func (c Config) Validate() error {
	var errs []error
	if _, err := path.ParseMode(c.PathMode); err != nil {
		errs = append(errs, fmt.Errorf("DLG_PATH_MODE: %w", err))
	}
	if _, err := save.ParseFormat(c.SnapshotFormat); err != nil {
		errs = append(errs, fmt.Errorf("DLG_SNAPSHOT_FORMAT: %w", err))
	}
	if c.RandomRetries < 0 {
		errs = append(errs, fmt.Errorf("DLG_RANDOM_RETRIES: must not be negative, got %d", c.RandomRetries))
	}
	if c.ExploreDepth < 0 {
		errs = append(errs, fmt.Errorf("DLG_EXPLORE_DEPTH: must not be negative, got %d", c.ExploreDepth))
	}
	if c.TypewriterDelay < 0 {
		errs = append(errs, fmt.Errorf("DLG_TYPEWRITER_DELAY: must not be negative, got %s", c.TypewriterDelay))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("DLG_LOG_FORMAT: want console or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// PathOptions returns the planner settings.
func (c Config) PathOptions() path.Options {
	return path.Options{Seed: c.Seed, Retries: c.RandomRetries, MaxDepth: c.ExploreDepth}
}
