package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Log        LogConfig        `toml:"log"`
	Detect     DetectConfig     `toml:"detect"`
	Generation GenerationConfig `toml:"generation"`
	Store      StoreConfig      `toml:"store"`
	Quota      QuotaConfig      `toml:"quota"`
	Platforms  []PlatformConfig `toml:"platforms"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type DetectConfig struct {
	// LowercaseOnly restricts the English-letter count to a-z, so SHOUTED
	// romaji and acronyms inside Japanese sentences do not tip detection.
	LowercaseOnly bool `toml:"lowercase_only"`
}

type GenerationConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type StoreConfig struct {
	// Backend selects the profile store: "sqlite" (default), "postgres",
	// "mongo", or "memory".
	Backend  string `toml:"backend"`
	Path     string `toml:"path"`     // sqlite file path
	DSN      string `toml:"dsn"`      // postgres connection string
	URI      string `toml:"uri"`      // mongo connection uri
	Database string `toml:"database"` // mongo database name

	// DegradeToDefaults keeps the bot answering with default settings when
	// the store is unreachable, instead of refusing the turn.
	DegradeToDefaults bool `toml:"degrade_to_defaults"`
}

type QuotaConfig struct {
	// DailyLimit caps generation calls per user per day. 0 disables the cap.
	DailyLimit int `toml:"daily_limit"`
}

type PlatformConfig struct {
	Type    string         `toml:"type"`
	Options map[string]any `toml:"options"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{
		Log:   LogConfig{Level: "info"},
		Store: StoreConfig{Backend: "sqlite", Path: "kaiwa.db"},
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Generation.APIKey == "" {
		return fmt.Errorf("config: generation.api_key is required")
	}
	if len(c.Platforms) == 0 {
		return fmt.Errorf("config: at least one platform must be configured")
	}
	for i, p := range c.Platforms {
		if p.Type == "" {
			return fmt.Errorf("config: platforms[%d].type is required", i)
		}
	}
	switch c.Store.Backend {
	case "sqlite", "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn is required for the postgres backend")
		}
	case "mongo":
		if c.Store.URI == "" {
			return fmt.Errorf("config: store.uri is required for the mongo backend")
		}
		if c.Store.Database == "" {
			return fmt.Errorf("config: store.database is required for the mongo backend")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Quota.DailyLimit < 0 {
		return fmt.Errorf("config: quota.daily_limit must not be negative")
	}
	return nil
}
