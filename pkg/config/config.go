// Package config loads pakt's user configuration from
// ~/.config/pakt/config.toml. All fields are optional; zero values are
// replaced with defaults so a missing file yields a working configuration.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied to zero-value fields.
const (
	DefaultRegistryURL = "https://registry.npmjs.org"
	DefaultConcurrency = 8
	DefaultCacheTTL    = 24 * time.Hour
)

// Config holds all user-tunable settings.
type Config struct {
	Registry    string      `toml:"registry"`    // registry base URL
	Concurrency int         `toml:"concurrency"` // max parallel downloads
	Cache       CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the metadata cache backend.
type CacheConfig struct {
	Backend string      `toml:"backend"` // "file" (default), "redis", "none"
	Dir     string      `toml:"dir"`     // file backend directory (default ~/.cache/pakt)
	TTL     duration    `toml:"ttl"`     // entry lifetime (default 24h)
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig holds redis backend connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// duration lets TTLs be written as strings like "24h" or "90m" in TOML.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// TTL returns the configured cache TTL, falling back to the default.
func (c CacheConfig) EffectiveTTL() time.Duration {
	if c.TTL.Duration > 0 {
		return c.TTL.Duration
	}
	return DefaultCacheTTL
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	cfg := c
	if cfg.Registry == "" {
		cfg.Registry = DefaultRegistryURL
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "file"
	}
	return cfg
}

// Path returns the configuration file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pakt", "config.toml"), nil
}

// Load reads the configuration file at path. A missing file is not an
// error; defaults are returned instead. An empty path means the default
// location from [Path].
func Load(path string) (Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return Config{}.WithDefaults(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}.WithDefaults(), nil
	}
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg.WithDefaults(), nil
}
