// Package domain contains the abstract query model compiled by the query
// compiler and decoded by the result mapper.
package domain

import (
	"context"

	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// Query is an abstract read request bound to a single model. There are no
// joins: every property referenced belongs to Model.
type Query struct {
	Model      *schemadomain.Model
	Fields     []Field
	Conditions []Condition

	// Ordering may hold several specs but only the first one is honoured.
	Ordering []OrderBy

	// Limit is omitted from the dialect when nil.
	Limit *int
}

// Field is a requested output column: either a PropertyField or an
// AggregateField. Any other implementation is rejected by the compiler.
type Field interface {
	// FieldName returns a human readable name used in diagnostics.
	FieldName() string
}

// PropertyField requests a plain property value.
type PropertyField struct {
	Property *schemadomain.Property
}

// FieldName implements Field.
func (f PropertyField) FieldName() string {
	if f.Property == nil {
		return "<nil>"
	}
	return f.Property.Name
}

// AggregateField requests an aggregate function. A nil Target aggregates over
// all records.
type AggregateField struct {
	Function AggregateFunc
	Target   *schemadomain.Property
}

// FieldName implements Field.
func (f AggregateField) FieldName() string {
	if f.Target == nil {
		return string(f.Function) + "()"
	}
	return string(f.Function) + "(" + f.Target.Name + ")"
}

// AggregateFunc represents aggregation functions.
type AggregateFunc string

const (
	// Count counts records.
	Count AggregateFunc = "count"
	// Sum sums field values.
	Sum AggregateFunc = "sum"
	// Avg calculates average.
	Avg AggregateFunc = "avg"
	// Min finds minimum value.
	Min AggregateFunc = "min"
	// Max finds maximum value.
	Max AggregateFunc = "max"
)

// Condition is a single (operator, property, value) filter.
type Condition struct {
	Operator Operator
	Property *schemadomain.Property
	Value    any
}

// Operator is a comparison operator of the dialect.
type Operator string

const (
	// Eq checks equality.
	Eq Operator = "="
	// Ne checks inequality.
	Ne Operator = "!="
	// Lt checks if value is less than.
	Lt Operator = "<"
	// Lte checks if value is less than or equal.
	Lte Operator = "<="
	// Gt checks if value is greater than.
	Gt Operator = ">"
	// Gte checks if value is greater than or equal.
	Gte Operator = ">="
	// Like matches a pattern.
	Like Operator = "LIKE"
	// In checks set membership.
	In Operator = "IN"
	// NotIn checks set exclusion.
	NotIn Operator = "NOT IN"
)

// OrderBy defines sorting.
type OrderBy struct {
	Property  *schemadomain.Property
	Direction SortDirection
}

// SortDirection represents sort direction.
type SortDirection string

const (
	// Asc sorts ascending.
	Asc SortDirection = "ASC"
	// Desc sorts descending.
	Desc SortDirection = "DESC"
)

// CompiledQuery is a query rendered in the dialect together with the
// positional mapping needed to decode its rows.
type CompiledQuery struct {
	SOQL    string
	Mapping ResultMapping
}

// ResultMapping describes how rows of a compiled query map back onto
// properties.
type ResultMapping struct {
	Model       *schemadomain.Model
	StorageName string
	Fields      []FieldMapping
	Aggregate   bool
}

// FieldMapping maps a requested property to its storage column and its
// position in the select list.
type FieldMapping struct {
	Property *schemadomain.Property
	Column   string
	Index    int
}

// Index returns the select-list position of each requested property.
func (m ResultMapping) Index() map[*schemadomain.Property]int {
	idx := make(map[*schemadomain.Property]int, len(m.Fields))
	for _, f := range m.Fields {
		idx[f.Property] = f.Index
	}
	return idx
}

// KeyCondition returns the first top-level equality condition on the model's
// key property, if any.
func (q *Query) KeyCondition() (Condition, bool) {
	if q.Model == nil {
		return Condition{}, false
	}
	for _, c := range q.Conditions {
		if c.Operator == Eq && c.Property != nil && c.Property.Key {
			return c, true
		}
	}
	return Condition{}, false
}

// Clone returns a shallow copy whose slices can be modified independently.
func (q *Query) Clone() *Query {
	clone := *q
	clone.Fields = append([]Field(nil), q.Fields...)
	clone.Conditions = append([]Condition(nil), q.Conditions...)
	clone.Ordering = append([]OrderBy(nil), q.Ordering...)
	if q.Limit != nil {
		limit := *q.Limit
		clone.Limit = &limit
	}
	return &clone
}

// QueryCompiler defines the interface for query compilation.
type QueryCompiler interface {
	// Compile renders a query in the dialect.
	Compile(ctx context.Context, query *Query) (*CompiledQuery, error)
}
