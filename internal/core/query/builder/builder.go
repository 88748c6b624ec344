// Package builder implements the query builder.
package builder

import (
	"fmt"

	"github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// QueryBuilder assembles a domain.Query from property names. The first
// invalid name is remembered and reported by Build.
type QueryBuilder struct {
	model *schemadomain.Model
	query *domain.Query
	err   error
}

// NewQueryBuilder creates a new query builder for a model.
func NewQueryBuilder(model *schemadomain.Model) *QueryBuilder {
	return &QueryBuilder{
		model: model,
		query: &domain.Query{
			Model:      model,
			Fields:     []domain.Field{},
			Conditions: []domain.Condition{},
			Ordering:   []domain.OrderBy{},
		},
	}
}

// Select adds properties to the select list in the given order.
func (b *QueryBuilder) Select(fields ...string) *QueryBuilder {
	for _, name := range fields {
		if p := b.property(name); p != nil {
			b.query.Fields = append(b.query.Fields, domain.PropertyField{Property: p})
		}
	}
	return b
}

// Count requests the number of matching records.
func (b *QueryBuilder) Count() *QueryBuilder {
	return b.Aggregate(domain.Count, "")
}

// Aggregate requests an aggregate function. An empty target aggregates over
// all records.
func (b *QueryBuilder) Aggregate(fn domain.AggregateFunc, target string) *QueryBuilder {
	field := domain.AggregateField{Function: fn}
	if target != "" {
		field.Target = b.property(target)
		if field.Target == nil {
			return b
		}
	}
	b.query.Fields = append(b.query.Fields, field)
	return b
}

// Where adds filter conditions, combined with AND.
func (b *QueryBuilder) Where(criteria ...Criterion) *QueryBuilder {
	for _, c := range criteria {
		p := b.property(c.Field)
		if p == nil {
			continue
		}
		b.query.Conditions = append(b.query.Conditions, domain.Condition{
			Operator: c.Operator,
			Property: p,
			Value:    c.Value,
		})
	}
	return b
}

// OrderBy adds ordering. Only the first ordering reaches the dialect.
func (b *QueryBuilder) OrderBy(field string, direction domain.SortDirection) *QueryBuilder {
	if p := b.property(field); p != nil {
		b.query.Ordering = append(b.query.Ordering, domain.OrderBy{
			Property:  p,
			Direction: direction,
		})
	}
	return b
}

// Take sets the maximum number of records.
func (b *QueryBuilder) Take(take int) *QueryBuilder {
	b.query.Limit = &take
	return b
}

// Build returns the query or the first error recorded while building it.
func (b *QueryBuilder) Build() (*domain.Query, error) {
	if b.model == nil {
		return nil, domain.BuildErrorf("query builder has no model")
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.query, nil
}

// GetQuery returns the query built so far.
func (b *QueryBuilder) GetQuery() *domain.Query {
	return b.query
}

func (b *QueryBuilder) property(name string) *schemadomain.Property {
	if b.model == nil {
		return nil
	}
	p := b.model.Property(name)
	if p == nil && b.err == nil {
		b.err = domain.BuildErrorf("model %s has no property %q", b.model.Name, name)
	}
	return p
}

// String renders the query for diagnostics.
func (b *QueryBuilder) String() string {
	name := "<nil>"
	if b.model != nil {
		name = b.model.Name
	}
	return fmt.Sprintf("query(%s, fields=%d, conditions=%d)", name, len(b.query.Fields), len(b.query.Conditions))
}
