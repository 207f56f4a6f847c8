package api

import (
	"github.com/JaimeStill/protrace/internal/config"
	"github.com/JaimeStill/protrace/internal/infrastructure"
	"github.com/JaimeStill/protrace/internal/workflow"
	"github.com/JaimeStill/protrace/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination   pagination.Config
	MaxBatchSize int
	Workflow     workflow.Config
	Debug        bool
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			HTTP:      infra.HTTP,
			Database:  infra.Database,
			Events:    infra.Events,
		},
		Pagination:   cfg.API.Pagination,
		MaxBatchSize: cfg.API.MaxBatchSize,
		Workflow:     cfg.Workflow,
		Debug:        cfg.Debug,
	}
}
