package compiler

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05Z"
)

// Relative date literals such as TODAY or LAST_N_DAYS:30.
var relativeDate = regexp.MustCompile(`^[A-Z][A-Z_]*(:\d+)?$`)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// formatLiteral renders a condition value. External id truncation happens
// here, once per value, before any formatting.
func formatLiteral(prop *schemadomain.Property, op domain.Operator, value any) (string, error) {
	if op == domain.In || op == domain.NotIn {
		return formatList(prop, value)
	}
	value = schemadomain.NormalizeID(prop, value)

	if isList(value) {
		return "", domain.BuildErrorf("operator %s does not accept a list", op)
	}
	if isNil(value) && op != domain.Eq && op != domain.Ne {
		return "", domain.BuildErrorf("operator %s does not accept null", op)
	}
	return formatScalar(prop, value)
}

func formatList(prop *schemadomain.Property, value any) (string, error) {
	if !isList(value) {
		return "", domain.BuildErrorf("set membership requires a list, got %T", value)
	}

	rv := reflect.ValueOf(value)
	if rv.Len() == 0 {
		return "", domain.BuildErrorf("set membership requires at least one value")
	}

	items := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := formatScalar(prop, schemadomain.NormalizeID(prop, rv.Index(i).Interface()))
		if err != nil {
			return "", err
		}
		items[i] = item
	}
	return "(" + strings.Join(items, ", ") + ")", nil
}

func formatScalar(prop *schemadomain.Property, value any) (string, error) {
	if isNil(value) {
		return "null", nil
	}

	switch v := value.(type) {
	case string:
		if prop.Type == schemadomain.TypeDate || prop.Type == schemadomain.TypeDateTime {
			return formatDateString(prop, v)
		}
		return quote(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case time.Time:
		return formatTime(prop, v), nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		return formatScalar(prop, rv.Elem().Interface())
	}
	return "", domain.BuildErrorf("unsupported literal type %T", value)
}

func formatTime(prop *schemadomain.Property, t time.Time) string {
	if prop.Type == schemadomain.TypeDate {
		return t.Format(dateLayout)
	}
	return t.UTC().Format(dateTimeLayout)
}

// formatDateString accepts an already formatted date, datetime or relative
// date literal and emits it unquoted.
func formatDateString(prop *schemadomain.Property, s string) (string, error) {
	if relativeDate.MatchString(s) {
		return s, nil
	}
	if prop.Type == schemadomain.TypeDate {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return "", domain.BuildErrorf("invalid date %q for %s", s, prop.Name)
		}
		return t.Format(dateLayout), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", domain.BuildErrorf("invalid datetime %q for %s", s, prop.Name)
	}
	return formatTime(prop, t), nil
}

func quote(s string) string {
	return "'" + escaper.Replace(s) + "'"
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func isList(value any) bool {
	if value == nil {
		return false
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		_, bytes := value.([]byte)
		return !bytes
	}
	return false
}
