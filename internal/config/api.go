package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JaimeStill/protrace/pkg/middleware"
	"github.com/JaimeStill/protrace/pkg/pagination"
)

const (
	EnvAPIBasePath     = "PROTRACE_API_BASE_PATH"
	EnvAPIMaxBatchSize = "PROTRACE_API_MAX_BATCH_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "PROTRACE_CORS_ENABLED",
	Origins:          "PROTRACE_CORS_ORIGINS",
	AllowedMethods:   "PROTRACE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "PROTRACE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "PROTRACE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "PROTRACE_CORS_MAX_AGE",
}

var authEnv = &middleware.AuthEnv{
	Enabled:  "PROTRACE_AUTH_ENABLED",
	Issuer:   "PROTRACE_AUTH_ISSUER",
	ClientID: "PROTRACE_AUTH_CLIENT_ID",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "PROTRACE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PROTRACE_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, request limits, CORS, auth, and pagination settings.
type APIConfig struct {
	BasePath     string                `toml:"base_path"`
	MaxBatchSize int                   `toml:"max_batch_size"`
	CORS         middleware.CORSConfig `toml:"cors"`
	Auth         middleware.AuthConfig `toml:"auth"`
	Pagination   pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBatchSize != 0 {
		c.MaxBatchSize = overlay.MaxBatchSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Auth.Merge(&overlay.Auth)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 500
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxBatchSize = n
		}
	}
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single-level path such as /api: %q", c.BasePath)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	return nil
}
