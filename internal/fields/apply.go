// Data application: combines a field schema, one data record, and a
// column-to-field mapping into a filled field list ready for rendering.
package fields

import (
	"strconv"
	"strings"
)

// Values treated as "checked" when a checkbox receives a string.
var truthyStrings = map[string]bool{
	"true":    true,
	"yes":     true,
	"1":       true,
	"checked": true,
	"on":      true,
	"x":       true,
}

// Apply fills a copy of the schema with values from record. mapping maps
// data column names to field names; columns absent from the record or
// holding empty values leave the field's default value untouched. The
// input schema is never mutated.
func Apply(schema []Descriptor, record map[string]any, mapping map[string]string) []Descriptor {
	filled := CloneAll(schema)

	// Invert: field name -> column name.
	byField := make(map[string]string, len(mapping))
	for column, field := range mapping {
		byField[field] = column
	}

	for i := range filled {
		column, ok := byField[filled[i].Name]
		if !ok {
			continue
		}
		raw, ok := record[column]
		if !ok || raw == nil {
			continue
		}
		if s, isStr := raw.(string); isStr && s == "" {
			continue
		}

		switch filled[i].Type {
		case TypeCheckbox:
			filled[i].Value = CoerceCheckbox(raw)
		case TypeTextarea:
			filled[i].Value = CoerceTextarea(StringValue(raw))
		default:
			filled[i].Value = StringValue(raw)
		}
	}
	return filled
}

// CoerceCheckbox converts a scalar into a checkbox state. Booleans pass
// through, numbers are true only when exactly 1, strings are matched
// case-insensitively against a small truthy set.
func CoerceCheckbox(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val == 1
	case int:
		return val == 1
	case string:
		return truthyStrings[strings.ToLower(strings.TrimSpace(val))]
	default:
		return false
	}
}

// CoerceTextarea normalizes the break markers accepted in tabular input:
// "||" becomes a paragraph break, a literal backslash-n a line break.
func CoerceTextarea(s string) string {
	s = strings.ReplaceAll(s, "||", "\n\n")
	s = strings.ReplaceAll(s, `\n`, "\n")
	return s
}

// StringValue renders a record scalar as the string drawn on the page.
func StringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
