package rest

import (
	"context"
	"strings"
	"sync"

	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// FieldNames resolves property names against described field names and
// falls back to another strategy for unknown objects.
type FieldNames struct {
	fallback schema.NamingStrategy

	mu     sync.RWMutex
	fields map[string]map[string]string
}

// NewFieldNames creates an empty strategy. A nil fallback means
// schema.DefaultNaming.
func NewFieldNames(fallback schema.NamingStrategy) *FieldNames {
	if fallback == nil {
		fallback = schema.DefaultNaming{}
	}
	return &FieldNames{
		fallback: fallback,
		fields:   make(map[string]map[string]string),
	}
}

// LoadFieldNames describes every object and returns a strategy over the
// results.
func LoadFieldNames(ctx context.Context, c *Client, fallback schema.NamingStrategy, sobjects ...string) (*FieldNames, error) {
	names := NewFieldNames(fallback)
	for _, sobject := range sobjects {
		d, err := c.Describe(ctx, sobject)
		if err != nil {
			return nil, err
		}
		names.Add(sobject, d.Fields)
	}
	return names, nil
}

// Add records the described fields of an object.
func (f *FieldNames) Add(sobject string, fields []DescribeField) {
	byKey := make(map[string]string, len(fields))
	for _, field := range fields {
		byKey[fieldKey(field.Name)] = field.Name
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields[strings.ToLower(sobject)] = byKey
}

// StorageName implements schema.NamingStrategy.
func (f *FieldNames) StorageName(model *schemadomain.Model) string {
	return f.fallback.StorageName(model)
}

// FieldName implements schema.NamingStrategy. A property matches a described
// field ignoring case, underscores and the custom field suffix.
func (f *FieldNames) FieldName(storageName, propertyName string) string {
	candidate := f.fallback.FieldName(storageName, propertyName)

	f.mu.RLock()
	fields := f.fields[strings.ToLower(storageName)]
	f.mu.RUnlock()
	if fields == nil {
		return candidate
	}

	for _, key := range []string{fieldKey(candidate), fieldKey(propertyName), fieldKey(propertyName) + "c"} {
		if name, ok := fields[key]; ok {
			return name
		}
	}
	return candidate
}

// fieldKey folds a name for comparison: "First_Name__c" -> "firstnamec".
func fieldKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

var _ schema.NamingStrategy = (*FieldNames)(nil)
