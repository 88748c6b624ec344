// Package domain contains the model and property metadata consumed by the
// query and mutation layers.
package domain

import (
	"strings"
	"unicode/utf8"
)

// ExternalIDLength is the number of significant characters of an external id.
const ExternalIDLength = 15

// Model describes a mapped record type.
type Model struct {
	// Name is the logical model name, e.g. "crm.Account".
	Name string

	// StorageName overrides the naming strategy when set.
	StorageName string

	Properties []*Property
}

// Property describes a single mapped attribute of a model.
type Property struct {
	Name string

	// Field overrides the naming strategy when set.
	Field string

	Type PropertyType

	Key        bool
	Serial     bool
	ExternalID bool

	// Required and Unique only affect sandbox provisioning.
	Required bool
	Unique   bool
}

// PropertyType is the declared type of a property.
type PropertyType string

const (
	// TypeString is a text value.
	TypeString PropertyType = "string"
	// TypeInteger is a whole number.
	TypeInteger PropertyType = "integer"
	// TypeFloat is a decimal number.
	TypeFloat PropertyType = "float"
	// TypeBoolean is a true/false value.
	TypeBoolean PropertyType = "boolean"
	// TypeDate is a calendar date without time.
	TypeDate PropertyType = "date"
	// TypeDateTime is an instant in time.
	TypeDateTime PropertyType = "datetime"
	// TypeID is a record identifier.
	TypeID PropertyType = "id"
)

// Property returns the property with the given name, or nil.
func (m *Model) Property(name string) *Property {
	for _, p := range m.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Keys returns the key properties in declaration order.
func (m *Model) Keys() []*Property {
	var keys []*Property
	for _, p := range m.Properties {
		if p.Key {
			keys = append(keys, p)
		}
	}
	return keys
}

// KeyProperty returns the first key property, or nil if the model has none.
func (m *Model) KeyProperty() *Property {
	for _, p := range m.Properties {
		if p.Key {
			return p
		}
	}
	return nil
}

// SerialKey returns the key property whose value is assigned remotely.
func (m *Model) SerialKey() *Property {
	for _, p := range m.Properties {
		if p.Key && p.Serial {
			return p
		}
	}
	return nil
}

// NormalizeID applies the external id rule to a value crossing the boundary
// of p. String values of external id properties keep their first 15
// characters; everything else passes through unchanged.
func NormalizeID(p *Property, value any) any {
	if p == nil || !p.ExternalID || value == nil {
		return value
	}
	switch v := value.(type) {
	case string:
		return TruncateID(v)
	case *string:
		if v == nil {
			return value
		}
		return TruncateID(*v)
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = TruncateID(s)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = NormalizeID(p, e)
		}
		return out
	default:
		return value
	}
}

// TruncateID keeps the first ExternalIDLength characters of s. Characters
// are counted as runes so a multi-byte value is never split.
func TruncateID(s string) string {
	if utf8.RuneCountInString(s) <= ExternalIDLength {
		return s
	}
	return string([]rune(s)[:ExternalIDLength])
}

// ShortName returns the last segment of a namespaced model name.
func ShortName(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
