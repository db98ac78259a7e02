// Package sanitize makes indicator payloads JSON-safe.
package sanitize

import (
	"math"
	"reflect"
)

// Value returns v with every NaN or ±Inf float replaced by nil.
// Maps, slices and arrays are copied recursively and come back as
// map[string]interface{} or []interface{}, since nil has no float
// representation. Every other value is returned as is.
func Value(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		if !Finite(t) {
			return nil
		}
		return t
	case float32:
		if !Finite(float64(t)) {
			return nil
		}
		return t
	case map[string]interface{}:
		return Map(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = Value(e)
		}
		return out
	case []float64:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = Value(e)
		}
		return out
	case map[string]float64:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = Value(e)
		}
		return out
	case nil, string, bool, int, int64:
		return v
	default:
		return reflectValue(v)
	}
}

// reflectValue handles named and nested container types the switch above
// does not list, such as []map[string]interface{} or a named map type.
// Maps with non-string keys and []byte are returned untouched.
func reflectValue(v interface{}) interface{} {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		if !Finite(rv.Float()) {
			return nil
		}
		return v
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		if rv.IsNil() {
			return map[string]interface{}(nil)
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Value(iter.Value().Interface())
		}
		return out
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		if rv.IsNil() {
			return []interface{}(nil)
		}
		return sequence(rv)
	case reflect.Array:
		return sequence(rv)
	default:
		return v
	}
}

func sequence(rv reflect.Value) []interface{} {
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = Value(rv.Index(i).Interface())
	}
	return out
}

// Map sanitizes a mapping; a nil map stays nil
func Map(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	out := make(map[string]interface{}, len(m))
	for k, e := range m {
		out[k] = Value(e)
	}
	return out
}

// Finite reports whether f is neither NaN nor infinite
func Finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
