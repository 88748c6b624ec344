// Package filter parses textual filter, ordering and assignment expressions
// into query conditions against a model:
//
//	name = 'Bob' AND amount >= 10 AND stage IN ('Won', 'Lost')
//
// Bare words are taken as strings so relative dates such as TODAY or
// LAST_N_DAYS:30 can be written unquoted.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/resource"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// Parse parses a filter expression into conditions on model. An empty
// expression yields no conditions.
func Parse(model *schemadomain.Model, input string) ([]domain.Condition, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	expr, err := expressionParser.ParseString("filter", input)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid filter: %v", domain.ErrQueryBuild, err)
	}

	conditions := make([]domain.Condition, 0, len(expr.Comparisons))
	for _, cmp := range expr.Comparisons {
		cond, err := toCondition(model, cmp)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

func toCondition(model *schemadomain.Model, cmp *Comparison) (domain.Condition, error) {
	prop, err := lookup(model, cmp.Field)
	if err != nil {
		return domain.Condition{}, err
	}

	var op domain.Operator
	switch {
	case cmp.NotIn:
		op = domain.NotIn
	case cmp.In:
		op = domain.In
	case cmp.Like:
		op = domain.Like
	default:
		op = domain.Operator(cmp.Op)
	}

	if cmp.List != nil {
		if op != domain.In && op != domain.NotIn {
			return domain.Condition{}, domain.BuildErrorf("%s: operator %s does not accept a list", cmp.Pos, op)
		}
		values := make([]any, len(cmp.List))
		for i, v := range cmp.List {
			if values[i], err = convert(prop, v); err != nil {
				return domain.Condition{}, err
			}
		}
		return domain.Condition{Operator: op, Property: prop, Value: values}, nil
	}

	if op == domain.In || op == domain.NotIn {
		return domain.Condition{}, domain.BuildErrorf("%s: operator %s requires a parenthesized list", cmp.Pos, op)
	}
	value, err := convert(prop, cmp.Value)
	if err != nil {
		return domain.Condition{}, err
	}
	return domain.Condition{Operator: op, Property: prop, Value: value}, nil
}

// ParseOrder parses "<field> [asc|desc]".
func ParseOrder(model *schemadomain.Model, input string) (domain.OrderBy, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 || len(parts) > 2 {
		return domain.OrderBy{}, domain.BuildErrorf("invalid ordering %q", input)
	}

	prop, err := lookup(model, parts[0])
	if err != nil {
		return domain.OrderBy{}, err
	}

	order := domain.OrderBy{Property: prop, Direction: domain.Asc}
	if len(parts) == 2 {
		switch strings.ToUpper(parts[1]) {
		case string(domain.Asc):
		case string(domain.Desc):
			order.Direction = domain.Desc
		default:
			return domain.OrderBy{}, domain.BuildErrorf("invalid sort direction %q", parts[1])
		}
	}
	return order, nil
}

// ParseAssignments parses "field=value" pairs. Values are parsed as
// literals; anything that is not a valid literal is taken verbatim as a
// string.
func ParseAssignments(model *schemadomain.Model, pairs []string) ([]resource.Attribute, error) {
	attrs := make([]resource.Attribute, 0, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q: expected field=value", pair)
		}

		prop, err := lookup(model, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}

		raw = strings.TrimSpace(raw)
		literal, parseErr := valueParser.ParseString("assignment", raw)
		if parseErr != nil {
			literal = &Value{Word: &raw}
		}
		value, err := convert(prop, literal)
		if err != nil {
			return nil, err
		}

		attrs = append(attrs, resource.Attribute{Property: prop, Value: value})
	}
	return attrs, nil
}

func lookup(model *schemadomain.Model, name string) (*schemadomain.Property, error) {
	if p := model.Property(name); p != nil {
		return p, nil
	}
	for _, p := range model.Properties {
		if strings.EqualFold(p.Name, name) || strings.EqualFold(p.Field, name) {
			return p, nil
		}
	}
	return nil, domain.BuildErrorf("model %s has no property %q", model.Name, name)
}

// convert turns a literal into the Go value expected for prop.
func convert(prop *schemadomain.Property, v *Value) (any, error) {
	switch {
	case v == nil:
		return nil, domain.BuildErrorf("missing value for %s", prop.Name)
	case v.Null:
		return nil, nil
	case v.Bool != nil:
		if prop.Type != schemadomain.TypeBoolean && prop.Type != schemadomain.TypeString {
			return nil, domain.BuildErrorf("%s is not a boolean", prop.Name)
		}
		b := strings.EqualFold(*v.Bool, "true")
		if prop.Type == schemadomain.TypeString {
			return strconv.FormatBool(b), nil
		}
		return b, nil
	case v.String != nil:
		return unquote(*v.String), nil
	case v.Number != nil:
		return convertNumber(prop, *v.Number)
	case v.Word != nil:
		if prop.Type == schemadomain.TypeBoolean {
			b, err := strconv.ParseBool(*v.Word)
			if err != nil {
				return nil, domain.BuildErrorf("%s is not a boolean: %q", prop.Name, *v.Word)
			}
			return b, nil
		}
		if prop.Type == schemadomain.TypeInteger || prop.Type == schemadomain.TypeFloat {
			return convertNumber(prop, *v.Word)
		}
		return *v.Word, nil
	}
	return nil, domain.BuildErrorf("empty literal for %s", prop.Name)
}

func convertNumber(prop *schemadomain.Property, s string) (any, error) {
	switch prop.Type {
	case schemadomain.TypeInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, domain.BuildErrorf("%s is not an integer: %q", prop.Name, s)
		}
		return n, nil
	case schemadomain.TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, domain.BuildErrorf("%s is not a number: %q", prop.Name, s)
		}
		return f, nil
	case schemadomain.TypeBoolean:
		return nil, domain.BuildErrorf("%s is not a boolean: %q", prop.Name, s)
	default:
		return s, nil
	}
}

// unquote strips the surrounding quotes and resolves backslash escapes.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	body := s[1 : len(s)-1]
	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i == len(body)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}
