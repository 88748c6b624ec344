package service

import (
	"context"

	"github.com/satishbabariya/prisma-soql/internal/core/query/builder"
	"github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/query/mapper"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// QueryOption is a function that configures a query builder.
type QueryOption func(*builder.QueryBuilder)

// WithSelect specifies fields to select.
func WithSelect(fields ...string) QueryOption {
	return func(b *builder.QueryBuilder) {
		b.Select(fields...)
	}
}

// WithWhere adds filter conditions.
func WithWhere(criteria ...builder.Criterion) QueryOption {
	return func(b *builder.QueryBuilder) {
		b.Where(criteria...)
	}
}

// WithConditions adds already resolved conditions.
func WithConditions(conditions ...domain.Condition) QueryOption {
	return func(b *builder.QueryBuilder) {
		q := b.GetQuery()
		q.Conditions = append(q.Conditions, conditions...)
	}
}

// WithOrderBy adds ordering.
func WithOrderBy(field string, direction domain.SortDirection) QueryOption {
	return func(b *builder.QueryBuilder) {
		b.OrderBy(field, direction)
	}
}

// WithTake limits the number of records.
func WithTake(take int) QueryOption {
	return func(b *builder.QueryBuilder) {
		b.Take(take)
	}
}

// BuildQuery applies opts to a new query on model.
func BuildQuery(model *schemadomain.Model, opts ...QueryOption) (*domain.Query, error) {
	b := builder.NewQueryBuilder(model)
	for _, opt := range opts {
		opt(b)
	}
	return b.Build()
}

// FindMany reads every record of model matching opts.
func (s *AdapterService) FindMany(ctx context.Context, model *schemadomain.Model, opts ...QueryOption) ([]mapper.Row, error) {
	query, err := BuildQuery(model, opts...)
	if err != nil {
		return nil, err
	}
	return s.Read(ctx, query)
}

// FindFirst reads the first record matching opts. It returns a
// *NotFoundError when nothing matches.
func (s *AdapterService) FindFirst(ctx context.Context, model *schemadomain.Model, opts ...QueryOption) (mapper.Row, error) {
	opts = append(opts, WithTake(1))
	rows, err := s.FindMany(ctx, model, opts...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Model: model.Name, Operation: "findFirst"}
	}
	return rows[0], nil
}

// Count counts the records of model matching opts.
func (s *AdapterService) Count(ctx context.Context, model *schemadomain.Model, opts ...QueryOption) (int, error) {
	opts = append([]QueryOption{func(b *builder.QueryBuilder) { b.Count() }}, opts...)
	query, err := BuildQuery(model, opts...)
	if err != nil {
		return 0, err
	}
	return s.Aggregate(ctx, query)
}
