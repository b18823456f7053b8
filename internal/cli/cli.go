// Package cli implements the pakt command-line interface.
//
// This package provides commands for adding dependencies to package.json,
// installing the full dependency tree, rendering it as a graph, and
// managing the registry metadata cache. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - add: Add a package to package.json
//   - install: Resolve, lock, and download all dependencies
//   - graph: Render the dependency tree as DOT or SVG
//   - cache: Manage the registry metadata cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pakt-pm/pakt/pkg/buildinfo"
	"github.com/pakt-pm/pakt/pkg/cache"
	"github.com/pakt-pm/pakt/pkg/config"
	"github.com/pakt-pm/pakt/pkg/registry"
	"github.com/pakt-pm/pakt/pkg/semver"
)

// appName is the application name used for directories and display.
const appName = "pakt"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	registry   string
	noCache    bool

	cfg config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "pakt is a minimal npm-compatible package manager",
		Long:         `pakt resolves npm-style dependency trees, detects and resolves version conflicts, pins the result in a lockfile, and downloads package tarballs concurrently.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.registry != "" {
				cfg.Registry = c.registry
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/pakt/config.toml)")
	root.PersistentFlags().StringVar(&c.registry, "registry", "", "registry base URL (overrides config)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "bypass the registry metadata cache")

	root.AddCommand(c.addCommand())
	root.AddCommand(c.installCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newClient creates a registry client wired to the configured cache backend.
func (c *CLI) newClient(ctx context.Context) (*registry.Client, error) {
	store, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	return registry.NewClient(c.cfg.Registry, store, c.cfg.Cache.EffectiveTTL(), semver.New()), nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache || c.cfg.Cache.Backend == "none" {
		return cache.NewNullCache(), nil
	}

	if c.cfg.Cache.Backend == "redis" {
		store, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.cfg.Cache.Redis.Addr,
			Password: c.cfg.Cache.Redis.Password,
			DB:       c.cfg.Cache.Redis.DB,
		})
		if err != nil {
			c.Logger.Warnf("redis cache unavailable, falling back to file cache: %v", err)
		} else {
			return store, nil
		}
	}

	dir := c.cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	store, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return store, nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pakt/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	return cache.DefaultDir()
}
