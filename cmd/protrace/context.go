package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/JaimeStill/protrace/internal/config"
	"github.com/JaimeStill/protrace/internal/infrastructure"
	"github.com/JaimeStill/protrace/internal/lookups"
	"github.com/JaimeStill/protrace/internal/runs"
	"github.com/JaimeStill/protrace/internal/tms"
	"github.com/JaimeStill/protrace/internal/workflow"
	"github.com/JaimeStill/protrace/pkg/events"
)

// commandContext lazily loads configuration and builds the systems a command needs.
type commandContext struct {
	configFlag *string
	debugFlag  *bool

	once    sync.Once
	cfg     *config.Config
	err     error
	logger  *slog.Logger
	tms     tms.System
	lookups lookups.System
}

func newCommandContext(configFlag *string, debugFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		debugFlag:  debugFlag,
	}
}

func (c *commandContext) ensure() error {
	c.once.Do(func() {
		var cfg *config.Config
		if *c.configFlag != "" {
			cfg, c.err = config.LoadFile(*c.configFlag)
		} else {
			cfg, c.err = config.Load()
		}
		if c.err != nil {
			c.err = fmt.Errorf("load config: %w", c.err)
			return
		}
		if *c.debugFlag {
			cfg.Debug = true
		}
		c.cfg = cfg

		// Info logs would interleave with table output, so only warnings
		// reach stderr unless --debug is set.
		c.logger = infrastructure.NewLogger(cfg.Debug)
		if !cfg.Debug {
			c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		}

		c.tms = tms.New(&cfg.TMS, nil, c.logger)
		rt := &workflow.Runtime{
			TMS:                 c.tms,
			Logger:              c.logger.With("workflow", "cli"),
			OverrideConcurrency: cfg.Workflow.OverrideConcurrency,
			Debug:               cfg.Debug,
		}
		c.lookups = lookups.New(
			rt,
			runs.Disabled(c.logger, cfg.API.Pagination),
			events.New(&events.Config{}, c.logger),
			cfg.API.MaxBatchSize,
			c.logger,
		)
	})
	return c.err
}
