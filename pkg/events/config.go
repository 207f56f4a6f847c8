package events

import (
	"fmt"
	"os"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Config holds the RabbitMQ publisher settings.
type Config struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	Exchange       string `toml:"exchange"`
	PublishTimeout string `toml:"publish_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled        string
	URL            string
	Exchange       string
	PublishTimeout string
}

// PublishTimeoutDuration returns PublishTimeout as a time.Duration.
func (c *Config) PublishTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PublishTimeout)
	return d
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
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Exchange != "" {
		c.Exchange = overlay.Exchange
	}
	if overlay.PublishTimeout != "" {
		c.PublishTimeout = overlay.PublishTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Exchange == "" {
		c.Exchange = "protrace.overrides"
	}
	if c.PublishTimeout == "" {
		c.PublishTimeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.URL != "" {
		if v := os.Getenv(env.URL); v != "" {
			c.URL = v
		}
	}
	if env.Exchange != "" {
		if v := os.Getenv(env.Exchange); v != "" {
			c.Exchange = v
		}
	}
	if env.PublishTimeout != "" {
		if v := os.Getenv(env.PublishTimeout); v != "" {
			c.PublishTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.PublishTimeout); err != nil {
		return fmt.Errorf("invalid publish_timeout: %w", err)
	}
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return fmt.Errorf("url required when events are enabled")
	}
	if _, err := amqp.ParseURI(c.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	return nil
}
