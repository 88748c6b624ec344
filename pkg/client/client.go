// Package client provides the public API for running queries and bulk
// writes against a SOQL endpoint.
package client

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/satishbabariya/prisma-soql/internal/adapters/database"
	"github.com/satishbabariya/prisma-soql/internal/adapters/transport/rest"
	"github.com/satishbabariya/prisma-soql/internal/adapters/transport/sandbox"
	querydomain "github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/resource"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	"github.com/satishbabariya/prisma-soql/internal/debug"
	"github.com/satishbabariya/prisma-soql/internal/service"
)

// Credentials holds the OAuth2 password flow settings used by Login.
type Credentials = rest.Config

// QueryOption configures a read.
type QueryOption = service.QueryOption

// Query options.
var (
	WithSelect     = service.WithSelect
	WithWhere      = service.WithWhere
	WithConditions = service.WithConditions
	WithOrderBy    = service.WithOrderBy
	WithTake       = service.WithTake
)

// Client is the main entry point.
type Client struct {
	config   *Config
	registry *schema.MetadataRegistry
	service  *service.AdapterService
	closers  []func(context.Context) error
}

// New creates a client over an already connected transport.
func New(t Transport, opts ...Option) (*Client, error) {
	if t == nil {
		return nil, errors.New("transport is required")
	}

	config := DefaultConfig()
	ApplyOptions(config, opts...)

	registry, err := loadRegistry(config)
	if err != nil {
		return nil, err
	}
	return newClient(t, config, registry), nil
}

func newClient(t Transport, config *Config, registry *schema.MetadataRegistry) *Client {
	if config.LogQueries {
		debug.Init(true)
	}
	return &Client{
		config:   config,
		registry: registry,
		service: service.NewAdapterService(t,
			service.WithNaming(config.Naming),
			service.WithTelemetry(config.Telemetry),
		),
	}
}

// Login authenticates against the REST API and returns a client whose field
// names are resolved from the remote describe metadata.
func Login(ctx context.Context, creds Credentials, opts ...Option) (*Client, error) {
	config := DefaultConfig()
	ApplyOptions(config, opts...)

	registry, err := loadRegistry(config)
	if err != nil {
		return nil, err
	}

	rc, err := rest.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	storages := make([]string, 0, len(registry.Models()))
	for _, m := range registry.Models() {
		storages = append(storages, schema.ResolveStorage(config.Naming, m))
	}
	names, err := rest.LoadFieldNames(ctx, rc, config.Naming, storages...)
	if err != nil {
		return nil, fmt.Errorf("failed to describe objects: %w", err)
	}

	config.Naming = names
	return newClient(rc, config, registry), nil
}

// OpenSandbox connects to a local SQL database standing in for the remote
// endpoint and creates a table per registered model.
func OpenSandbox(ctx context.Context, provider, url string, opts ...Option) (*Client, error) {
	config := DefaultConfig()
	ApplyOptions(config, opts...)

	registry, err := loadRegistry(config)
	if err != nil {
		return nil, err
	}

	db, err := sandbox.NewAdapter(database.Config{Provider: provider, URL: url})
	if err != nil {
		return nil, err
	}
	if err := db.Connect(ctx); err != nil {
		return nil, err
	}

	sb := sandbox.New(db, registry.Models(), sandbox.WithNaming(config.Naming))
	if err := sb.Provision(ctx); err != nil {
		_ = db.Disconnect(ctx)
		return nil, err
	}

	c := newClient(sb, config, registry)
	c.closers = append(c.closers, db.Disconnect)
	return c, nil
}

func loadRegistry(config *Config) (*schema.MetadataRegistry, error) {
	registry := schema.NewMetadataRegistry()
	if config.SchemaPath != "" {
		loaded, err := schema.LoadFile(config.Fs, config.SchemaPath)
		if err != nil {
			return nil, err
		}
		registry = loaded
	}
	if err := registry.Register(config.Models...); err != nil {
		return nil, err
	}
	return registry, nil
}

// Close releases the connection and flushes telemetry.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	for _, closer := range c.closers {
		errs = append(errs, closer(ctx))
	}
	errs = append(errs, c.config.Telemetry.Close(ctx))
	return errors.Join(errs...)
}

// Model returns a registered model by name.
func (c *Client) Model(name string) (*Model, error) {
	return c.registry.GetModel(name)
}

// Models returns every registered model.
func (c *Client) Models() []*Model {
	return c.registry.Models()
}

// Translate renders the query for model without sending it.
func (c *Client) Translate(ctx context.Context, model string, opts ...QueryOption) (string, error) {
	query, err := c.query(model, opts)
	if err != nil {
		return "", err
	}
	compiled, err := c.service.Translate(ctx, query)
	if err != nil {
		return "", err
	}
	return compiled.SOQL, nil
}

// FindMany returns every record of model matching opts.
func (c *Client) FindMany(ctx context.Context, model string, opts ...QueryOption) ([]Row, error) {
	m, err := c.Model(model)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.service.FindMany(ctx, m, opts...)
}

// FindFirst returns the first record of model matching opts.
func (c *Client) FindFirst(ctx context.Context, model string, opts ...QueryOption) (Row, error) {
	m, err := c.Model(model)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.service.FindFirst(ctx, m, opts...)
}

// Count returns how many records of model match opts.
func (c *Client) Count(ctx context.Context, model string, opts ...QueryOption) (int, error) {
	m, err := c.Model(model)
	if err != nil {
		return 0, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.service.Count(ctx, m, opts...)
}

// Create inserts records and returns how many were accepted. Rejected
// records carry field errors.
func (c *Client) Create(ctx context.Context, records ...Resource) (int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.service.Create(ctx, records)
}

// Update sets values, keyed by property name, on every record of model
// matching where and returns how many were accepted.
func (c *Client) Update(ctx context.Context, model string, values map[string]any, where ...Criterion) (int, error) {
	report, err := c.UpdateReport(ctx, model, values, where...)
	if err != nil {
		return 0, err
	}
	return report.Succeeded, nil
}

// UpdateReport is Update returning every rejected record. Records loaded by
// an earlier read on this client carry the field errors of their failure.
func (c *Client) UpdateReport(ctx context.Context, model string, values map[string]any, where ...Criterion) (*Report, error) {
	m, err := c.Model(model)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	attributes := make([]resource.Attribute, 0, len(names))
	for _, name := range names {
		prop := m.Property(name)
		if prop == nil {
			return nil, querydomain.NewQueryError("update", m.Name, querydomain.BuildErrorf("unknown property %q", name))
		}
		attributes = append(attributes, resource.Attribute{Property: prop, Value: values[name]})
	}

	query, err := service.BuildQuery(m, WithWhere(where...))
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.service.UpdateReport(ctx, attributes, query)
}

// Delete removes every record of model matching where.
func (c *Client) Delete(ctx context.Context, model string, where ...Criterion) (int, error) {
	report, err := c.DeleteReport(ctx, model, where...)
	if err != nil {
		return 0, err
	}
	return report.Succeeded, nil
}

// DeleteReport is Delete returning every rejected record.
func (c *Client) DeleteReport(ctx context.Context, model string, where ...Criterion) (*Report, error) {
	m, err := c.Model(model)
	if err != nil {
		return nil, err
	}
	query, err := service.BuildQuery(m, WithWhere(where...))
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.service.DeleteReport(ctx, query)
}

func (c *Client) query(model string, opts []QueryOption) (*Query, error) {
	m, err := c.Model(model)
	if err != nil {
		return nil, err
	}
	return service.BuildQuery(m, opts...)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.QueryTimeout)
}
