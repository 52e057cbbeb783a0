package cmd

import (
	"context"
	"log/slog"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/cache"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/config"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/index"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/logging"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/registry"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/search"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/timeline"
)

// core wires the full stack a command needs: config, registry, cache
// manager, search engine and the event source. Commands that only touch a
// slice of it still go through loadCore so every command sees the same
// config and logging setup.
type core struct {
	cfg     *config.Config
	reg     *registry.Registry
	store   registry.Store
	manager *cache.Manager
	engine  *search.Engine
	source  *timeline.FileSource

	logCleanup func()
}

// loadCore builds the stack from the --config file (or defaults) and loads
// the persisted snapshot if one exists. Callers must defer c.close().
func loadCore(ctx context.Context) (*core, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:     cfg.Logging.Level,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	}
	if debugMode {
		logCfg.Level = "debug"
		logCfg.WriteToStderr = true
	}
	logCleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return nil, err
	}

	c := &core{cfg: cfg, logCleanup: logCleanup}

	if cfg.Paths.AliasDB != "off" {
		store, err := registry.NewSQLiteStore(cfg.Paths.AliasDB)
		if err != nil {
			c.close()
			return nil, err
		}
		c.store = store
		c.reg, err = registry.NewWithStore(ctx, store)
		if err != nil {
			c.close()
			return nil, err
		}
	} else {
		c.reg = registry.New()
	}

	c.manager = cache.NewManager(cfg.Paths.SnapshotFile, index.NewBuilder(nil))
	if err := c.manager.Load(ctx); err != nil {
		c.close()
		return nil, err
	}

	c.engine, err = search.NewEngine(c.manager, c.reg, cfg.Search.ResultCacheSize)
	if err != nil {
		c.close()
		return nil, err
	}

	c.source = timeline.NewFileSource(cfg.Paths.EventsFile)

	slog.Debug("core_loaded",
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.Int("events", c.manager.Stats().TotalEvents),
		slog.Int("canonicals", len(c.reg.Canonicals())))

	return c, nil
}

func (c *core) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
	if c.logCleanup != nil {
		c.logCleanup()
	}
}
