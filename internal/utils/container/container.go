// Package container provides dependency injection.
package container

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/afero"

	"github.com/satishbabariya/prisma-soql/internal/adapters/database"
	"github.com/satishbabariya/prisma-soql/internal/adapters/telemetry"
	"github.com/satishbabariya/prisma-soql/internal/adapters/transport"
	"github.com/satishbabariya/prisma-soql/internal/adapters/transport/rest"
	"github.com/satishbabariya/prisma-soql/internal/adapters/transport/sandbox"
	"github.com/satishbabariya/prisma-soql/internal/config"
	"github.com/satishbabariya/prisma-soql/internal/core/query/compiler"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	"github.com/satishbabariya/prisma-soql/internal/debug"
	"github.com/satishbabariya/prisma-soql/internal/service"
)

// Container holds all application dependencies. The transport is opened on
// first use so that offline commands never connect.
type Container struct {
	// Configuration
	config *config.Config
	fs     afero.Fs

	// Schema
	registry *schema.MetadataRegistry
	naming   schema.NamingStrategy

	// Adapters
	telemetry telemetry.Telemetry
	transport transport.Transport
	dbAdapter database.Adapter
	sandbox   *sandbox.Transport

	// Services
	once    sync.Once
	service *service.AdapterService
	err     error
}

// Option configures a Container.
type Option func(*Container)

// WithFs sets the filesystem the schema is read from.
func WithFs(fs afero.Fs) Option {
	return func(c *Container) {
		c.fs = fs
	}
}

// WithRegistry uses registry instead of loading cfg.SchemaPath.
func WithRegistry(registry *schema.MetadataRegistry) Option {
	return func(c *Container) {
		c.registry = registry
	}
}

// WithTransport uses t instead of building one from the configuration.
func WithTransport(t transport.Transport) Option {
	return func(c *Container) {
		c.transport = t
	}
}

// NewContainer creates a new dependency injection container.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	c := &Container{
		config: cfg,
		fs:     afero.NewOsFs(),
		naming: schema.DefaultNaming{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		registry, err := schema.LoadFile(c.fs, cfg.SchemaPath)
		if err != nil {
			return nil, err
		}
		c.registry = registry
	}

	c.telemetry = newTelemetry(cfg.Telemetry)
	return c, nil
}

// newTelemetry exports Prometheus metrics when telemetry is enabled and
// discards them otherwise.
func newTelemetry(cfg config.TelemetryConfig) telemetry.Telemetry {
	if !cfg.Enabled {
		return telemetry.Discard
	}
	return telemetry.NewPrometheusTelemetry(&telemetry.Config{Namespace: cfg.Namespace})
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Registry returns the model registry.
func (c *Container) Registry() *schema.MetadataRegistry {
	return c.registry
}

// Telemetry returns the telemetry adapter.
func (c *Container) Telemetry() telemetry.Telemetry {
	return c.telemetry
}

// Compiler returns a query compiler that needs no connection. Field names
// are those of the naming strategy known so far.
func (c *Container) Compiler() *compiler.SOQLCompiler {
	return compiler.NewSOQLCompiler(c.naming)
}

// Service returns the adapter service, connecting the transport on the first
// call.
func (c *Container) Service(ctx context.Context) (*service.AdapterService, error) {
	c.once.Do(func() {
		if c.transport == nil {
			c.err = c.connect(ctx)
			if c.err != nil {
				return
			}
		}
		c.service = service.NewAdapterService(c.transport,
			service.WithNaming(c.naming),
			service.WithTelemetry(c.telemetry),
		)
	})
	return c.service, c.err
}

func (c *Container) connect(ctx context.Context) error {
	switch c.config.Transport {
	case config.TransportREST:
		return c.connectREST(ctx)
	case config.TransportSandbox:
		return c.connectSandbox(ctx)
	default:
		return fmt.Errorf("unknown transport %q", c.config.Transport)
	}
}

func (c *Container) connectREST(ctx context.Context) error {
	cfg := c.config.REST
	client, err := rest.Login(ctx, rest.Config{
		LoginURL:      cfg.LoginURL,
		APIVersion:    cfg.APIVersion,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		Username:      cfg.Username,
		Password:      cfg.Password,
		SecurityToken: cfg.SecurityToken,
		Timeout:       cfg.Timeout,
	}, rest.WithBatchSize(cfg.BatchSize))
	if err != nil {
		return err
	}

	storages := make([]string, 0, len(c.registry.Models()))
	for _, m := range c.registry.Models() {
		storages = append(storages, schema.ResolveStorage(c.naming, m))
	}
	names, err := rest.LoadFieldNames(ctx, client, c.naming, storages...)
	if err != nil {
		return fmt.Errorf("failed to describe objects: %w", err)
	}

	c.naming = names
	c.transport = client
	return nil
}

func (c *Container) connectSandbox(ctx context.Context) error {
	cfg := c.config.Sandbox
	db, err := sandbox.NewAdapter(database.Config{
		Provider:       cfg.Provider,
		URL:            cfg.URL,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create database adapter: %w", err)
	}
	if err := db.Connect(ctx); err != nil {
		return err
	}

	sb := sandbox.New(db, c.registry.Models(), sandbox.WithNaming(c.naming))
	if err := sb.Provision(ctx); err != nil {
		_ = db.Disconnect(ctx)
		return err
	}
	debug.Info("Sandbox ready", "provider", cfg.Provider, "models", len(c.registry.Models()))

	c.dbAdapter = db
	c.sandbox = sb
	c.transport = sb
	return nil
}

// Sandbox returns the sandbox transport, or nil when another transport is
// in use.
func (c *Container) Sandbox() *sandbox.Transport {
	return c.sandbox
}

// Close releases the database connection and flushes telemetry.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.telemetry != nil {
		errs = append(errs, c.telemetry.Close(ctx))
	}
	if c.dbAdapter != nil {
		errs = append(errs, c.dbAdapter.Disconnect(ctx))
	}
	return errors.Join(errs...)
}
