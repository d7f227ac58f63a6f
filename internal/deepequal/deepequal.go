// Package deepequal implements structural equality over decoded JSON
// values. Comparison is value-based, never serialize-then-compare, so the
// key order of objects can never affect the result.
package deepequal

import (
	"encoding/json"
	"strconv"
)

// Equal reports whether a and b are structurally equal JSON values.
//
// Numbers compare numerically across Go numeric kinds, so a row built by Go
// code with int values matches the float64 values a JSON decoder produces.
// Arrays compare element-wise in order; objects compare by own-key set and
// then value-wise, independent of enumeration order. nil equals only nil:
// a missing value and an explicit null are distinguished by the caller, not
// here.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if numA, okA := toFloat64(a); okA {
		numB, okB := toFloat64(b)
		return okB && numA == numB
	}

	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for k, elemA := range va {
			elemB, present := vb[k]
			if !present || !Equal(elemA, elemB) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// toFloat64 converts numeric kinds that show up in decoded or hand-built
// rows. Strings are not coerced: "1" and 1 are different JSON values.
func toFloat64(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ToFloat64 exposes the numeric coercion used by Equal so the query layer
// applies identical rules when ordering and comparing row values.
func ToFloat64(val any) (float64, bool) {
	return toFloat64(val)
}

// ToString renders a row value for text matching. Only scalars have a
// string form; containers report false.
func ToString(val any) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case json.Number:
		return v.String(), true
	default:
		if f, ok := toFloat64(val); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return "", false
	}
}
