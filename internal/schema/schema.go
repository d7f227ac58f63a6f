// Package schema compares and validates per-column schema descriptors.
//
// A descriptor is either a bare type name ("string", "number", "boolean",
// "array", "datetime", "email") or a JSON object with a "type" key plus
// optional modifiers ("required", "min", "max"). The two spellings are
// interchangeable: "string" and {"type":"string"} describe the same column.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"sheetstore/internal/deepequal"
	"sheetstore/internal/safejson"
)

// RowsEqual reports whether two schema rows describe the same columns.
//
// Each entry is normalized independently: object JSON parses to its mapping,
// a bare type name becomes {"type": name}. An entry that is neither (for
// example truncated JSON) cannot be normalized, so that index degrades to an
// exact raw-string comparison instead of failing the whole check. The scan
// stops at the first differing index.
func RowsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		normA := normalizeDescriptor(a[i])
		normB := normalizeDescriptor(b[i])
		if normA == nil || normB == nil {
			if a[i] != b[i] {
				return false
			}
			continue
		}
		if !deepequal.Equal(normA, normB) {
			return false
		}
	}
	return true
}

// normalizeDescriptor returns the canonical mapping form of a descriptor,
// or nil when the entry is malformed JSON that is not a bare type name.
func normalizeDescriptor(s string) map[string]any {
	if parsed := safejson.ParseObject(s); parsed != nil {
		return parsed
	}
	if isBareTypeName(s) {
		return map[string]any{"type": s}
	}
	return nil
}

func isBareTypeName(s string) bool {
	switch s {
	case "string", "number", "boolean", "array", "datetime", "email":
		return true
	}
	return false
}

// Column pairs a field name with its descriptor string, in sheet order.
type Column struct {
	Name string
	Spec string
}

// ValidateRow checks a row against its column descriptors using JSON
// Schema. Required columns must be present; typed columns must hold a value
// of the declared type; min/max bound numbers by value and strings by
// length. Columns whose descriptor cannot be normalized are skipped, the
// same graceful degradation RowsEqual applies.
func ValidateRow(row map[string]any, cols []Column) error {
	properties := make(map[string]any, len(cols))
	var required []string

	for _, col := range cols {
		desc := normalizeDescriptor(col.Spec)
		if desc == nil {
			continue
		}
		prop, err := descriptorToJSONSchema(desc)
		if err != nil {
			return fmt.Errorf("column %q: %w", col.Name, err)
		}
		properties[col.Name] = prop
		if req, ok := desc["required"].(bool); ok && req {
			required = append(required, col.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(doc), gojsonschema.NewGoLoader(row))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("schema violation: %s", first.String())
	}
	return nil
}

// descriptorToJSONSchema translates one column descriptor into a JSON
// Schema fragment.
func descriptorToJSONSchema(desc map[string]any) (map[string]any, error) {
	typeName, _ := desc["type"].(string)
	prop := map[string]any{}

	switch typeName {
	case "string":
		prop["type"] = "string"
	case "number":
		prop["type"] = "number"
	case "boolean":
		prop["type"] = "boolean"
	case "array":
		prop["type"] = "array"
	case "datetime":
		prop["type"] = "string"
		prop["format"] = "date-time"
	case "email":
		prop["type"] = "string"
		prop["format"] = "email"
	default:
		return nil, fmt.Errorf("unknown column type %q", typeName)
	}

	min, hasMin := deepequal.ToFloat64(desc["min"])
	max, hasMax := deepequal.ToFloat64(desc["max"])
	switch prop["type"] {
	case "number":
		if hasMin {
			prop["minimum"] = min
		}
		if hasMax {
			prop["maximum"] = max
		}
	case "string":
		if hasMin {
			prop["minLength"] = int(min)
		}
		if hasMax {
			prop["maxLength"] = int(max)
		}
	}
	return prop, nil
}
