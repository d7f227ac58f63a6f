// Package safejson decodes untrusted JSON into plain data containers.
//
// Every decode goes through the jsoniter streaming decoder, so parse time
// stays linear in input length no matter what the payload looks like. Keys
// like "__proto__" or "constructor" land in the result map as ordinary own
// keys; nothing shared is ever touched.
package safejson

import (
	"bytes"
	stdjson "encoding/json"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseObject decodes text into a map if and only if it is a JSON object.
// It returns nil for the empty string, malformed JSON, and JSON whose top
// level is an array, a primitive, or the null literal. Numbers anywhere in
// the result are normalized to float64 so downstream comparisons never see
// mixed numeric kinds.
func ParseObject(text string) map[string]any {
	if text == "" {
		return nil
	}

	var data map[string]any
	decoder := json.NewDecoder(bytes.NewReader([]byte(text)))
	decoder.UseNumber()
	if err := decoder.Decode(&data); err != nil {
		return nil
	}
	if data == nil {
		// The literal "null" decodes without error into a nil map.
		return nil
	}
	// Reject trailing garbage after the object, e.g. `{} []`.
	if decoder.More() {
		return nil
	}

	normalizeObject(data)
	return data
}

// IsObject reports whether text parses as a JSON object.
func IsObject(text string) bool {
	return ParseObject(text) != nil
}

// Normalize rewrites any json.Number values inside a decoded JSON value to
// float64, in place for containers. UseNumber decoding yields the standard
// library's json.Number even through jsoniter; values decoded without
// UseNumber pass through untouched.
func Normalize(v any) any {
	switch val := v.(type) {
	case stdjson.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		normalizeObject(val)
		return val
	case []any:
		for i, elem := range val {
			val[i] = Normalize(elem)
		}
		return val
	default:
		return v
	}
}

func normalizeObject(m map[string]any) {
	for k, v := range m {
		m[k] = Normalize(v)
	}
}
