// Package mapper decodes raw query answers into property-keyed rows.
package mapper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/prisma-soql/internal/adapters/transport"
	"github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// Row is one decoded record keyed by property identity.
type Row map[*schemadomain.Property]any

// Result is a decoded answer: either rows, or the size reported by a count
// query.
type Result struct {
	Rows      []Row
	Aggregate bool
	Count     int
}

// ResultMapper maps raw answers onto properties. It is stateless.
type ResultMapper struct {
	naming schema.NamingStrategy
}

// NewResultMapper creates a new result mapper.
func NewResultMapper(naming schema.NamingStrategy) *ResultMapper {
	if naming == nil {
		naming = schema.DefaultNaming{}
	}
	return &ResultMapper{naming: naming}
}

// Map decodes raw using the mapping produced when the query was compiled.
// Row order follows the raw answer.
func (m *ResultMapper) Map(raw transport.RawResult, compiled *domain.CompiledQuery) (*Result, error) {
	if raw.Size <= 0 && len(raw.Records) == 0 {
		return &Result{Rows: []Row{}}, nil
	}

	// A size without records is the shape of a count() answer.
	if len(raw.Records) == 0 {
		return &Result{Aggregate: true, Count: raw.Size}, nil
	}

	mapping := compiled.Mapping
	rows := make([]Row, 0, len(raw.Records))
	for i, record := range raw.Records {
		row := make(Row, len(mapping.Fields))
		for _, f := range mapping.Fields {
			accessor := schema.ResolveField(m.naming, mapping.Model, f.Property)
			value, _ := record.Lookup(accessor)

			decoded, err := decodeValue(f.Property, value)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s of record %d: %w", f.Property.Name, i, err)
			}
			row[f.Property] = schemadomain.NormalizeID(f.Property, decoded)
		}
		rows = append(rows, row)
	}

	return &Result{Rows: rows}, nil
}

// decodeValue converts a raw value to the Go type of the property.
func decodeValue(prop *schemadomain.Property, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if b, ok := value.([]byte); ok {
		value = string(b)
	}

	switch prop.Type {
	case schemadomain.TypeInteger:
		return toInt(value)
	case schemadomain.TypeFloat:
		return toFloat(value)
	case schemadomain.TypeBoolean:
		return toBool(value)
	case schemadomain.TypeDate, schemadomain.TypeDateTime:
		return toTime(value)
	default:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", value), nil
	}
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		return int64(f), err
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		return strconv.ParseBool(strings.ToLower(v))
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse time %q", v)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time.Time", value)
	}
}
