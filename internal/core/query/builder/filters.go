package builder

import "github.com/satishbabariya/prisma-soql/internal/core/query/domain"

// Criterion is a condition on a property named by its model name. The
// builder resolves it against the model.
type Criterion struct {
	Field    string
	Operator domain.Operator
	Value    any
}

// Equals creates an equals condition.
func Equals(field string, value any) Criterion {
	return Criterion{Field: field, Operator: domain.Eq, Value: value}
}

// NotEquals creates a not equals condition.
func NotEquals(field string, value any) Criterion {
	return Criterion{Field: field, Operator: domain.Ne, Value: value}
}

// In creates an in condition.
func In(field string, values any) Criterion {
	return Criterion{Field: field, Operator: domain.In, Value: values}
}

// NotIn creates a not in condition.
func NotIn(field string, values any) Criterion {
	return Criterion{Field: field, Operator: domain.NotIn, Value: values}
}

// Lt creates a less than condition.
func Lt(field string, value any) Criterion {
	return Criterion{Field: field, Operator: domain.Lt, Value: value}
}

// Lte creates a less than or equal condition.
func Lte(field string, value any) Criterion {
	return Criterion{Field: field, Operator: domain.Lte, Value: value}
}

// Gt creates a greater than condition.
func Gt(field string, value any) Criterion {
	return Criterion{Field: field, Operator: domain.Gt, Value: value}
}

// Gte creates a greater than or equal condition.
func Gte(field string, value any) Criterion {
	return Criterion{Field: field, Operator: domain.Gte, Value: value}
}

// Like creates a pattern match condition. Use % and _ as wildcards.
func Like(field string, pattern string) Criterion {
	return Criterion{Field: field, Operator: domain.Like, Value: pattern}
}

// Contains matches values containing s.
func Contains(field string, s string) Criterion {
	return Like(field, "%"+s+"%")
}

// StartsWith matches values starting with s.
func StartsWith(field string, s string) Criterion {
	return Like(field, s+"%")
}

// EndsWith matches values ending with s.
func EndsWith(field string, s string) Criterion {
	return Like(field, "%"+s)
}
