package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"toondex/internal/catalog"
	"toondex/internal/config"
	"toondex/internal/franchise"
	"toondex/internal/logging"
	"toondex/internal/sources/mal"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// withStore opens the catalog database, runs fn, and closes it again.
func (c *commandContext) withStore(fn func(*catalog.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// franchiseTable loads the configured override map when present, otherwise
// the built-in table.
func (c *commandContext) franchiseTable() (*franchise.Table, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Paths.FranchiseMap != "" {
		return franchise.LoadTable(cfg.Paths.FranchiseMap)
	}
	return franchise.DefaultTable()
}

// newResolver assembles the relationship resolver over an open store. The
// structured lookup is only wired when a client id for the anime catalog is
// configured.
func (c *commandContext) newResolver(store *catalog.Store) (*franchise.Resolver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	table, err := c.franchiseTable()
	if err != nil {
		return nil, err
	}

	cache := franchise.NewCache(time.Duration(cfg.Relationships.CacheTTLSeconds) * time.Second)
	var external franchise.ExternalLookup
	if cfg.MAL.ClientID != "" {
		external = mal.NewClient(cfg.MAL, logger)
	}
	return franchise.NewResolver(store, table, cache, external, cfg.Relationships.RelatedLimit, logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
