package schema

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// NamingStrategy maps models and properties onto remote storage names.
type NamingStrategy interface {
	// StorageName returns the remote object name for a model.
	StorageName(model *domain.Model) string

	// FieldName returns the remote field name of a property on a storage object.
	FieldName(storageName, propertyName string) string
}

// DefaultNaming uses the last segment of the model name as the object name
// and title-cases snake_case property names ("first_name" -> "FirstName").
// Custom field names ending in "__c" are kept verbatim.
type DefaultNaming struct{}

// StorageName implements NamingStrategy.
func (DefaultNaming) StorageName(model *domain.Model) string {
	return domain.ShortName(model.Name)
}

// FieldName implements NamingStrategy.
func (DefaultNaming) FieldName(_ string, propertyName string) string {
	if strings.HasSuffix(propertyName, "__c") {
		return propertyName
	}
	// Casers carry state and must not be shared between goroutines.
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, part := range strings.Split(propertyName, "_") {
		if part == "" {
			continue
		}
		b.WriteString(caser.String(part))
	}
	return b.String()
}

// VerbatimNaming passes model and property names through unchanged.
type VerbatimNaming struct{}

// StorageName implements NamingStrategy.
func (VerbatimNaming) StorageName(model *domain.Model) string {
	return model.Name
}

// FieldName implements NamingStrategy.
func (VerbatimNaming) FieldName(_ string, propertyName string) string {
	return propertyName
}

// ResolveStorage returns the storage name of a model, honouring an explicit
// override before consulting the strategy.
func ResolveStorage(naming NamingStrategy, model *domain.Model) string {
	if model.StorageName != "" {
		return model.StorageName
	}
	return naming.StorageName(model)
}

// ResolveField returns the storage field of a property, honouring an explicit
// override before consulting the strategy.
func ResolveField(naming NamingStrategy, model *domain.Model, prop *domain.Property) string {
	if prop.Field != "" {
		return prop.Field
	}
	return naming.FieldName(ResolveStorage(naming, model), prop.Name)
}

var (
	_ NamingStrategy = DefaultNaming{}
	_ NamingStrategy = VerbatimNaming{}
)
