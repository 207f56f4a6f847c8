package workflow

import (
	"log/slog"

	"github.com/JaimeStill/protrace/internal/tms"
)

// Runtime bundles the dependencies a workflow execution requires.
// It is constructed by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	TMS                 tms.System
	Logger              *slog.Logger
	OverrideConcurrency int
	Debug               bool
}
