package compiler

import (
	"github.com/satishbabariya/prisma-soql/internal/core/query/domain"
)

// compileAggregate renders an aggregate request. The dialect only knows a
// bare count(), whose answer arrives as the result size.
func compileAggregate(agg domain.AggregateField, mapping *domain.ResultMapping) (string, error) {
	if agg.Function != domain.Count {
		return "", domain.Unsupportedf("aggregate function %s is not supported in SOQL", agg.Function)
	}
	if agg.Target != nil {
		return "", domain.Unsupportedf("count over %s is not supported, use count()", agg.Target.Name)
	}
	mapping.Aggregate = true
	return "count()", nil
}
