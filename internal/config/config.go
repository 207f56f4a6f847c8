// Package config loads the layered service configuration: config.toml, an
// optional config.<env>.toml overlay, then PROTRACE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/protrace/internal/tms"
	"github.com/JaimeStill/protrace/internal/workflow"
	"github.com/JaimeStill/protrace/pkg/database"
	"github.com/JaimeStill/protrace/pkg/events"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvProtraceEnv             = "PROTRACE_ENV"
	EnvProtraceConfig          = "PROTRACE_CONFIG"
	EnvProtraceDebug           = "PROTRACE_DEBUG"
	EnvProtraceShutdownTimeout = "PROTRACE_SHUTDOWN_TIMEOUT"
	EnvProtraceVersion         = "PROTRACE_VERSION"
)

var databaseEnv = &database.Env{
	Enabled:         "PROTRACE_DB_ENABLED",
	DSN:             "PROTRACE_DB_DSN",
	Host:            "PROTRACE_DB_HOST",
	Port:            "PROTRACE_DB_PORT",
	Name:            "PROTRACE_DB_NAME",
	User:            "PROTRACE_DB_USER",
	Password:        "PROTRACE_DB_PASSWORD",
	SSLMode:         "PROTRACE_DB_SSL_MODE",
	MaxOpenConns:    "PROTRACE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PROTRACE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PROTRACE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PROTRACE_DB_CONN_TIMEOUT",
}

var eventsEnv = &events.Env{
	Enabled:        "PROTRACE_EVENTS_ENABLED",
	URL:            "PROTRACE_EVENTS_URL",
	Exchange:       "PROTRACE_EVENTS_EXCHANGE",
	PublishTimeout: "PROTRACE_EVENTS_PUBLISH_TIMEOUT",
}

// DatabaseEnv returns the environment variable names for the database section.
func DatabaseEnv() *database.Env {
	return databaseEnv
}

var tmsEnv = &tms.Env{
	BaseURL:        "PROTRACE_TMS_BASE_URL",
	Username:       "PROTRACE_TMS_USERNAME",
	Password:       "PROTRACE_TMS_PASSWORD",
	GroupID:        "PROTRACE_TMS_GROUP_ID",
	RequestTimeout: "PROTRACE_TMS_REQUEST_TIMEOUT",
}

var workflowEnv = &workflow.Env{
	OverrideConcurrency: "PROTRACE_WORKFLOW_OVERRIDE_CONCURRENCY",
}

// Config is the root configuration for the ProTrace service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	API             APIConfig       `toml:"api"`
	TMS             tms.Config      `toml:"tms"`
	Workflow        workflow.Config `toml:"workflow"`
	Database        database.Config `toml:"database"`
	Events          events.Config   `toml:"events"`
	Debug           bool            `toml:"debug"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the PROTRACE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvProtraceEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (PROTRACE_CONFIG, else config.toml, if present),
// applies any environment overlay, and finalizes all values. Without a base
// file, defaults and environment variables provide all configuration.
func Load() (*Config, error) {
	if path := os.Getenv(EnvProtraceConfig); path != "" {
		return LoadFile(path)
	}
	return loadLayered(BaseConfigFile, false)
}

// LoadFile is Load with an explicit base file, which must exist.
func LoadFile(path string) (*Config, error) {
	return loadLayered(path, true)
}

func loadLayered(base string, required bool) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if required {
		return nil, fmt.Errorf("config file %s: %w", base, err)
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.Debug {
		c.Debug = true
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.TMS.Merge(&overlay.TMS)
	c.Workflow.Merge(&overlay.Workflow)
	c.Database.Merge(&overlay.Database)
	c.Events.Merge(&overlay.Events)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.TMS.Finalize(tmsEnv); err != nil {
		return fmt.Errorf("tms: %w", err)
	}
	if err := c.Workflow.Finalize(workflowEnv); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Events.Finalize(eventsEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}

	// A run makes at least three sequential upstream calls.
	if minWrite := 3 * c.TMS.RequestTimeoutDuration(); c.Server.WriteTimeoutDuration() < minWrite {
		return fmt.Errorf("server: write_timeout %s is shorter than three tms request timeouts (%s)", c.Server.WriteTimeout, minWrite)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvProtraceDebug); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Debug = debug
		}
	}
	if v := os.Getenv(EnvProtraceShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvProtraceVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvProtraceEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
