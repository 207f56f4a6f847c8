// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, upstream HTTP client, run journal
// database, event publisher) that domain systems require.
package infrastructure

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/JaimeStill/protrace/internal/config"
	"github.com/JaimeStill/protrace/pkg/database"
	"github.com/JaimeStill/protrace/pkg/events"
	"github.com/JaimeStill/protrace/pkg/lifecycle"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil when the run journal is disabled.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	HTTP      *http.Client
	Database  database.System
	Events    events.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger(cfg.Debug)

	db, err := database.New(&cfg.Database, logger)
	if err != nil && !errors.Is(err, database.ErrDisabled) {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	if db == nil {
		logger.Info("run journal disabled")
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		HTTP:      newHTTPClient(),
		Database:  db,
		Events:    events.New(&cfg.Events, logger),
	}, nil
}

// NewLogger returns the service logger: text to stderr, at DEBUG when debug is set.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if err := i.Events.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("events start failed: %w", err)
	}
	return nil
}

// Ready reports whether startup hooks finished and every started
// subsystem that gates readiness, such as the journal, is up.
func (i *Infrastructure) Ready() bool {
	return i.Lifecycle.Ready()
}

// newHTTPClient builds the upstream client. Per-call deadlines come from the
// request context, so the client itself carries no timeout.
func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	transport.IdleConnTimeout = 90 * time.Second
	return &http.Client{Transport: transport}
}
