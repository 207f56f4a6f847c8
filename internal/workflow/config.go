package workflow

import (
	"fmt"
	"os"
	"strconv"
)

const maxOverrideConcurrency = 32

// Config holds workflow execution settings.
type Config struct {
	// OverrideConcurrency bounds parallel override calls. Only the default of 1
	// issues them strictly in input order.
	OverrideConcurrency int `toml:"override_concurrency"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	OverrideConcurrency string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.OverrideConcurrency != 0 {
		c.OverrideConcurrency = overlay.OverrideConcurrency
	}
}

func (c *Config) loadDefaults() {
	if c.OverrideConcurrency == 0 {
		c.OverrideConcurrency = 1
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.OverrideConcurrency != "" {
		if v := os.Getenv(env.OverrideConcurrency); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.OverrideConcurrency = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.OverrideConcurrency < 1 || c.OverrideConcurrency > maxOverrideConcurrency {
		return fmt.Errorf("override_concurrency must be between 1 and %d", maxOverrideConcurrency)
	}
	return nil
}
