package api

import (
	"github.com/JaimeStill/protrace/internal/lookups"
	"github.com/JaimeStill/protrace/internal/runs"
	"github.com/JaimeStill/protrace/internal/tms"
	"github.com/JaimeStill/protrace/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	TMS     tms.System
	Runs    runs.System
	Lookups lookups.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, tmsCfg *tms.Config) *Domain {
	tmsSystem := tms.New(tmsCfg, runtime.HTTP, runtime.Logger)

	var runsSystem runs.System
	if runtime.Database != nil {
		runsSystem = runs.New(runtime.Database.Connection(), runtime.Logger, runtime.Pagination)
	} else {
		runsSystem = runs.Disabled(runtime.Logger, runtime.Pagination)
	}

	wf := &workflow.Runtime{
		TMS:                 tmsSystem,
		Logger:              runtime.Logger.With("workflow", "lookup"),
		OverrideConcurrency: runtime.Workflow.OverrideConcurrency,
		Debug:               runtime.Debug,
	}

	return &Domain{
		TMS:     tmsSystem,
		Runs:    runsSystem,
		Lookups: lookups.New(wf, runsSystem, runtime.Events, runtime.MaxBatchSize, runtime.Logger),
	}
}
