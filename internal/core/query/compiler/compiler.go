// Package compiler renders abstract queries in the remote dialect.
package compiler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// SOQLCompiler implements domain.QueryCompiler. It holds no mutable state and
// may be shared between goroutines.
type SOQLCompiler struct {
	naming schema.NamingStrategy
}

// NewSOQLCompiler creates a compiler resolving names through naming.
func NewSOQLCompiler(naming schema.NamingStrategy) *SOQLCompiler {
	if naming == nil {
		naming = schema.DefaultNaming{}
	}
	return &SOQLCompiler{
		naming: naming,
	}
}

// Compile renders a query as
//
//	SELECT <fields> FROM <object> [WHERE (<c1>) AND (<c2>)] [ORDER BY <f> ASC] [LIMIT <n>]
//
// Validation failures are reported before anything is sent anywhere.
func (c *SOQLCompiler) Compile(ctx context.Context, query *domain.Query) (*domain.CompiledQuery, error) {
	if query == nil || query.Model == nil {
		return nil, domain.NewQueryError("compile", "", domain.BuildErrorf("query has no model"))
	}

	compiled, err := c.compile(query)
	if err != nil {
		return nil, domain.NewQueryError("compile", query.Model.Name, err)
	}
	return compiled, nil
}

func (c *SOQLCompiler) compile(query *domain.Query) (*domain.CompiledQuery, error) {
	model := query.Model
	storage := schema.ResolveStorage(c.naming, model)

	mapping := domain.ResultMapping{
		Model:       model,
		StorageName: storage,
	}

	fields := query.Fields
	if len(fields) == 0 {
		for _, p := range model.Properties {
			fields = append(fields, domain.PropertyField{Property: p})
		}
	}
	if len(fields) == 0 {
		return nil, domain.BuildErrorf("model %s has no properties to select", model.Name)
	}

	columns := make([]string, 0, len(fields))
	for i, field := range fields {
		column, err := c.compileField(model, field, i, &mapping)
		if err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}
	if mapping.Aggregate && len(columns) != 1 {
		return nil, domain.Unsupportedf("count() cannot be combined with other fields")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(storage)

	if len(query.Conditions) > 0 {
		clauses := make([]string, 0, len(query.Conditions))
		for _, cond := range query.Conditions {
			clause, err := c.compileCondition(model, cond)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, clause)
		}
		sb.WriteString(" WHERE (")
		sb.WriteString(strings.Join(clauses, ") AND ("))
		sb.WriteString(")")
	}

	if len(query.Ordering) > 0 {
		order := query.Ordering[0]
		if order.Property == nil {
			return nil, domain.BuildErrorf("ordering has no property")
		}
		direction := domain.Asc
		switch strings.ToUpper(string(order.Direction)) {
		case "", string(domain.Asc):
		case string(domain.Desc):
			direction = domain.Desc
		default:
			return nil, domain.BuildErrorf("unknown sort direction %q", order.Direction)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(schema.ResolveField(c.naming, model, order.Property))
		sb.WriteString(" ")
		sb.WriteString(string(direction))
	}

	if query.Limit != nil {
		if *query.Limit < 0 {
			return nil, domain.BuildErrorf("limit cannot be negative: %d", *query.Limit)
		}
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(*query.Limit))
	}

	return &domain.CompiledQuery{
		SOQL:    sb.String(),
		Mapping: mapping,
	}, nil
}

// compileField renders one select-list entry and records its position.
func (c *SOQLCompiler) compileField(model *schemadomain.Model, field domain.Field, index int, mapping *domain.ResultMapping) (string, error) {
	switch f := field.(type) {
	case domain.PropertyField:
		return c.compilePropertyField(model, f.Property, index, mapping)
	case *domain.PropertyField:
		if f == nil {
			return "", domain.BuildErrorf("nil field at position %d", index)
		}
		return c.compilePropertyField(model, f.Property, index, mapping)
	case domain.AggregateField:
		return compileAggregate(f, mapping)
	case *domain.AggregateField:
		if f == nil {
			return "", domain.BuildErrorf("nil field at position %d", index)
		}
		return compileAggregate(*f, mapping)
	default:
		return "", domain.BuildErrorf("unknown query field %T at position %d", field, index)
	}
}

func (c *SOQLCompiler) compilePropertyField(model *schemadomain.Model, prop *schemadomain.Property, index int, mapping *domain.ResultMapping) (string, error) {
	if prop == nil {
		return "", domain.BuildErrorf("field at position %d has no property", index)
	}
	column := schema.ResolveField(c.naming, model, prop)
	mapping.Fields = append(mapping.Fields, domain.FieldMapping{
		Property: prop,
		Column:   column,
		Index:    index,
	})
	return column, nil
}

// compileCondition renders "<field> <operator> <literal>".
func (c *SOQLCompiler) compileCondition(model *schemadomain.Model, cond domain.Condition) (string, error) {
	if cond.Property == nil {
		return "", domain.BuildErrorf("condition %s has no property", cond.Operator)
	}
	if !knownOperators[cond.Operator] {
		return "", domain.BuildErrorf("unsupported operator %q", cond.Operator)
	}

	literal, err := formatLiteral(cond.Property, cond.Operator, cond.Value)
	if err != nil {
		return "", fmt.Errorf("condition on %s: %w", cond.Property.Name, err)
	}

	field := schema.ResolveField(c.naming, model, cond.Property)
	return field + " " + string(cond.Operator) + " " + literal, nil
}

var knownOperators = map[domain.Operator]bool{
	domain.Eq:    true,
	domain.Ne:    true,
	domain.Lt:    true,
	domain.Lte:   true,
	domain.Gt:    true,
	domain.Gte:   true,
	domain.Like:  true,
	domain.In:    true,
	domain.NotIn: true,
}

// Ensure SOQLCompiler implements QueryCompiler interface.
var _ domain.QueryCompiler = (*SOQLCompiler)(nil)
