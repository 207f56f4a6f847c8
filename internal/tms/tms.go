// Package tms talks to the upstream Transportation Management System:
// session login, batch status trace and stage override.
package tms

import (
	"context"
	"log/slog"
)

// System is the upstream TMS client.
type System interface {
	// Authenticate logs in and, when a group is configured, switches the session to it.
	Authenticate(ctx context.Context) (*Session, error)
	// Trace resolves all pros with a single upstream call.
	Trace(ctx context.Context, sess *Session, pros []string) (LookupTable, error)
	// Override forces rec to the requested stage. Failures are reported in the outcome.
	Override(ctx context.Context, sess *Session, rec Record, req OverrideRequest) OverrideOutcome
	// Stages returns the resolver used to derive override target descriptions.
	Stages() *StageResolver
}

type system struct {
	cfg    *Config
	client *client
	stages *StageResolver
	logger *slog.Logger
}

// New creates a TMS system. A nil doer uses http.DefaultClient; the per-call
// timeout is applied through the request context either way.
func New(cfg *Config, doer HTTPDoer, logger *slog.Logger) System {
	logger = logger.With("system", "tms")
	return &system{
		cfg:    cfg,
		client: newClient(cfg, doer, logger),
		stages: NewStageResolver(&cfg.Stages),
		logger: logger,
	}
}

func (s *system) Stages() *StageResolver {
	return s.stages
}
