// Package client provides client configuration options.
package client

import (
	"time"

	"github.com/spf13/afero"

	"github.com/satishbabariya/prisma-soql/internal/adapters/telemetry"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
)

// Config contains all client configuration options.
type Config struct {
	// Models are registered in addition to those of SchemaPath.
	Models []*Model

	// SchemaPath is a YAML schema file read from Fs.
	SchemaPath string
	Fs         afero.Fs

	// Naming maps models onto remote names.
	// Default: schema.DefaultNaming
	Naming NamingStrategy

	// Telemetry receives query and batch metrics.
	// Default: no-op
	Telemetry telemetry.Telemetry

	// QueryTimeout bounds every operation. Zero means no timeout.
	// Default: 30 seconds
	QueryTimeout time.Duration

	// LogQueries enables debug logging of dialect strings when true.
	// Default: false
	LogQueries bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Fs:           afero.NewOsFs(),
		Naming:       schema.DefaultNaming{},
		Telemetry:    telemetry.Discard,
		QueryTimeout: 30 * time.Second,
	}
}

// Option is a function that configures the client.
type Option func(*Config)

// WithModels registers models.
func WithModels(models ...*Model) Option {
	return func(c *Config) {
		c.Models = append(c.Models, models...)
	}
}

// WithSchemaFile loads models from a YAML schema file.
func WithSchemaFile(fs afero.Fs, path string) Option {
	return func(c *Config) {
		c.Fs = fs
		c.SchemaPath = path
	}
}

// WithNaming sets the naming strategy.
func WithNaming(n NamingStrategy) Option {
	return func(c *Config) {
		c.Naming = n
	}
}

// WithTelemetry sets the telemetry adapter.
func WithTelemetry(t telemetry.Telemetry) Option {
	return func(c *Config) {
		c.Telemetry = t
	}
}

// WithQueryTimeout sets the operation timeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.QueryTimeout = d
	}
}

// WithLogQueries enables or disables query logging.
func WithLogQueries(enabled bool) Option {
	return func(c *Config) {
		c.LogQueries = enabled
	}
}

// ApplyOptions applies options to a config.
func ApplyOptions(config *Config, opts ...Option) {
	for _, opt := range opts {
		opt(config)
	}
}
