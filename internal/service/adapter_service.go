// Package service implements the adapter service.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/satishbabariya/prisma-soql/internal/adapters/telemetry"
	"github.com/satishbabariya/prisma-soql/internal/adapters/transport"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/executor"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/reconciler"
	"github.com/satishbabariya/prisma-soql/internal/core/query/compiler"
	"github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/query/mapper"
	"github.com/satishbabariya/prisma-soql/internal/core/resource"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
	"github.com/satishbabariya/prisma-soql/internal/debug"
)

// AdapterService orchestrates reads and writes against a transport.
type AdapterService struct {
	transport transport.Transport
	compiler  *compiler.SOQLCompiler
	mapper    *mapper.ResultMapper
	executor  *executor.BulkExecutor
	identity  *resource.MemoryIdentityMap
	telemetry telemetry.Telemetry
}

// Option configures an AdapterService.
type Option func(*serviceOptions)

type serviceOptions struct {
	naming    schema.NamingStrategy
	identity  *resource.MemoryIdentityMap
	telemetry telemetry.Telemetry
}

// WithNaming sets the naming strategy. Defaults to schema.DefaultNaming.
func WithNaming(n schema.NamingStrategy) Option {
	return func(o *serviceOptions) {
		o.naming = n
	}
}

// WithIdentityMap sets the identity map used to correlate batch answers
// when no resource list is available.
func WithIdentityMap(m *resource.MemoryIdentityMap) Option {
	return func(o *serviceOptions) {
		o.identity = m
	}
}

// WithTelemetry sets the telemetry adapter.
func WithTelemetry(t telemetry.Telemetry) Option {
	return func(o *serviceOptions) {
		o.telemetry = t
	}
}

// NewAdapterService creates a new adapter service.
func NewAdapterService(t transport.Transport, opts ...Option) *AdapterService {
	o := &serviceOptions{
		naming:    schema.DefaultNaming{},
		identity:  resource.NewMemoryIdentityMap(),
		telemetry: telemetry.Discard,
	}
	for _, opt := range opts {
		opt(o)
	}

	s := &AdapterService{
		transport: t,
		compiler:  compiler.NewSOQLCompiler(o.naming),
		mapper:    mapper.NewResultMapper(o.naming),
		identity:  o.identity,
		telemetry: o.telemetry,
	}
	s.executor = executor.NewBulkExecutor(
		t,
		s,
		reconciler.NewReconciler(o.identity),
		o.naming,
		executor.WithTelemetry(o.telemetry),
	)
	return s
}

// Translate compiles a query without sending it.
func (s *AdapterService) Translate(ctx context.Context, query *domain.Query) (*domain.CompiledQuery, error) {
	return s.compiler.Compile(ctx, query)
}

// Read runs query and returns one row per matching record. Rows carrying a
// key are registered in the identity map so later batch failures correlate
// with them.
func (s *AdapterService) Read(ctx context.Context, query *domain.Query) ([]mapper.Row, error) {
	compiled, err := s.compiler.Compile(ctx, query)
	if err != nil {
		return nil, err
	}
	if compiled.Mapping.Aggregate {
		return nil, domain.NewQueryError("read", query.Model.Name, domain.BuildErrorf("count() queries must use Aggregate"))
	}

	result, err := s.execute(ctx, "read", compiled)
	if err != nil {
		return nil, err
	}
	for _, row := range result.Rows {
		s.identity.Load(query.Model, row)
	}
	return result.Rows, nil
}

// Aggregate runs a count() query and returns the count. A query without
// fields counts every matching record.
func (s *AdapterService) Aggregate(ctx context.Context, query *domain.Query) (int, error) {
	if query != nil && len(query.Fields) == 0 {
		query = query.Clone()
		query.Fields = []domain.Field{domain.AggregateField{Function: domain.Count}}
	}

	compiled, err := s.compiler.Compile(ctx, query)
	if err != nil {
		return 0, err
	}
	if !compiled.Mapping.Aggregate {
		return 0, domain.NewQueryError("aggregate", query.Model.Name, domain.BuildErrorf("aggregate queries must request count()"))
	}

	result, err := s.execute(ctx, "aggregate", compiled)
	if err != nil {
		return 0, err
	}
	if result.Aggregate {
		return result.Count, nil
	}
	return len(result.Rows), nil
}

// Create inserts resources and returns how many were accepted. Rejected
// resources carry field errors; created ones receive their id.
func (s *AdapterService) Create(ctx context.Context, resources []resource.Resource) (int, error) {
	n, err := s.executor.Create(ctx, resources)
	if err != nil {
		s.recordError(ctx, "create", modelName(resources), "", err)
		return 0, err
	}
	s.identity.Put(resources...)
	return n, nil
}

// Update applies attributes to every record matched by query.
func (s *AdapterService) Update(ctx context.Context, attributes []resource.Attribute, query *domain.Query) (int, error) {
	report, err := s.UpdateReport(ctx, attributes, query)
	if err != nil {
		return 0, err
	}
	return report.Succeeded, nil
}

// UpdateReport is Update returning every rejected record with its errors.
func (s *AdapterService) UpdateReport(ctx context.Context, attributes []resource.Attribute, query *domain.Query) (*reconciler.Report, error) {
	report, err := s.executor.UpdateReport(ctx, attributes, query)
	if err != nil {
		s.recordError(ctx, "update", queryModel(query), "", err)
		return nil, err
	}
	return report, nil
}

// Delete removes every record matched by query.
func (s *AdapterService) Delete(ctx context.Context, query *domain.Query) (int, error) {
	report, err := s.DeleteReport(ctx, query)
	if err != nil {
		return 0, err
	}
	return report.Succeeded, nil
}

// DeleteReport is Delete returning every rejected record with its errors.
func (s *AdapterService) DeleteReport(ctx context.Context, query *domain.Query) (*reconciler.Report, error) {
	report, err := s.executor.DeleteReport(ctx, query)
	if err != nil {
		s.recordError(ctx, "delete", queryModel(query), "", err)
		return nil, err
	}
	return report, nil
}

// IdentityMap returns the identity map used for correlation.
func (s *AdapterService) IdentityMap() *resource.MemoryIdentityMap {
	return s.identity
}

// CreateModelStorage is a no-op; remote objects are managed remotely.
func (s *AdapterService) CreateModelStorage(ctx context.Context, model *schemadomain.Model) error {
	debug.Debug("create model storage skipped", "model", model.Name)
	return nil
}

// UpgradeModelStorage is a no-op.
func (s *AdapterService) UpgradeModelStorage(ctx context.Context, model *schemadomain.Model) error {
	debug.Debug("upgrade model storage skipped", "model", model.Name)
	return nil
}

// DestroyModelStorage is a no-op so migrations never drop remote data.
func (s *AdapterService) DestroyModelStorage(ctx context.Context, model *schemadomain.Model) error {
	debug.Debug("destroy model storage skipped", "model", model.Name)
	return nil
}

func (s *AdapterService) execute(ctx context.Context, operation string, compiled *domain.CompiledQuery) (*mapper.Result, error) {
	model := compiled.Mapping.Model.Name
	debug.Debug("executing query", "operation", operation, "model", model, "soql", compiled.SOQL)

	start := time.Now()
	raw, err := s.transport.Query(ctx, compiled.SOQL)
	if err != nil {
		s.telemetry.RecordQuery(ctx, telemetry.QueryInfo{
			Model: model, Operation: operation, SOQL: compiled.SOQL, Duration: time.Since(start),
		})
		s.recordError(ctx, operation, model, compiled.SOQL, err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	result, err := s.mapper.Map(raw, compiled)
	if err != nil {
		s.recordError(ctx, operation, model, compiled.SOQL, err)
		return nil, fmt.Errorf("failed to map result: %w", err)
	}

	rows := len(result.Rows)
	if result.Aggregate {
		rows = result.Count
	}
	s.telemetry.RecordQuery(ctx, telemetry.QueryInfo{
		Model:     model,
		Operation: operation,
		SOQL:      compiled.SOQL,
		Duration:  time.Since(start),
		Success:   true,
		Rows:      rows,
	})
	return result, nil
}

func (s *AdapterService) recordError(ctx context.Context, operation, model, soql string, err error) {
	debug.Error("operation failed", "operation", operation, "model", model, "error", err)
	s.telemetry.RecordError(ctx, telemetry.ErrorInfo{
		Error:     err,
		Model:     model,
		Operation: operation,
		Query:     soql,
	})
}

func modelName(resources []resource.Resource) string {
	if len(resources) == 0 {
		return ""
	}
	return resources[0].Model().Name
}

func queryModel(query *domain.Query) string {
	if query == nil || query.Model == nil {
		return ""
	}
	return query.Model.Name
}

var _ executor.KeyReader = (*AdapterService)(nil)
