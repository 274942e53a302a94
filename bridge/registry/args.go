package registry

import (
	"fmt"

	"github.com/spf13/cast"
)

// Args are the validated arguments passed to a handler. Accessors coerce
// decoded JSON values (json.Number, float64, []any) into Go types.
type Args map[string]any

// Has reports whether name is present and not null.
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// String returns the string argument, or "" when absent.
func (a Args) String(name string) string {
	return a.StringOr(name, "")
}

// StringOr returns the string argument or def when absent.
func (a Args) StringOr(name, def string) string {
	if !a.Has(name) {
		return def
	}
	s, err := cast.ToStringE(a[name])
	if err != nil {
		return def
	}
	return s
}

// Int returns the integer argument or def when absent.
func (a Args) Int(name string, def int) int {
	if !a.Has(name) {
		return def
	}
	n, ok := toInt(a[name])
	if !ok {
		return def
	}
	return n
}

// Float returns the numeric argument or def when absent.
func (a Args) Float(name string, def float64) float64 {
	if !a.Has(name) {
		return def
	}
	f, err := cast.ToFloat64E(a[name])
	if err != nil {
		return def
	}
	return f
}

// Bool returns the boolean argument or def when absent.
func (a Args) Bool(name string, def bool) bool {
	if !a.Has(name) {
		return def
	}
	b, err := cast.ToBoolE(a[name])
	if err != nil {
		return def
	}
	return b
}

// Object returns the object argument, or nil when absent.
func (a Args) Object(name string) map[string]any {
	if !a.Has(name) {
		return nil
	}
	m, err := cast.ToStringMapE(a[name])
	if err != nil {
		return nil
	}
	return m
}

// Strings returns an array argument as strings.
func (a Args) Strings(name string) []string {
	if !a.Has(name) {
		return nil
	}
	s, err := cast.ToStringSliceE(a[name])
	if err != nil {
		return nil
	}
	return s
}

// Ints returns an array argument as integers.
func (a Args) Ints(name string) ([]int, error) {
	if !a.Has(name) {
		return nil, nil
	}
	items, err := cast.ToSliceE(a[name])
	if err != nil {
		return nil, &ArgumentError{Field: name, Reason: "expected array of integers"}
	}
	out := make([]int, len(items))
	for i, item := range items {
		n, ok := toInt(item)
		if !ok {
			return nil, &ArgumentError{Field: name, Reason: fmt.Sprintf("element %d is not an integer", i)}
		}
		out[i] = n
	}
	return out, nil
}

// Vector returns a three-component argument. ok is false when absent.
func (a Args) Vector(name string) (v [3]float64, ok bool) {
	if !a.Has(name) {
		return v, false
	}
	parsed, err := toVector(a[name])
	if err != nil {
		return v, false
	}
	return parsed, true
}

// Vectors returns an array of three-component vectors.
func (a Args) Vectors(name string) ([][3]float64, error) {
	if !a.Has(name) {
		return nil, nil
	}
	items, err := cast.ToSliceE(a[name])
	if err != nil {
		return nil, &ArgumentError{Field: name, Reason: "expected array of vectors"}
	}
	out := make([][3]float64, len(items))
	for i, item := range items {
		v, err := toVector(item)
		if err != nil {
			return nil, &ArgumentError{Field: name, Reason: fmt.Sprintf("element %d: %v", i, err)}
		}
		out[i] = v
	}
	return out, nil
}

func toVector(raw any) ([3]float64, error) {
	var v [3]float64
	items, err := cast.ToSliceE(raw)
	if err != nil || len(items) != 3 {
		return v, fmt.Errorf("expected [x, y, z]")
	}
	for i, item := range items {
		f, err := cast.ToFloat64E(item)
		if err != nil || !isNumber(item) {
			return v, fmt.Errorf("component %d is not a number", i)
		}
		v[i] = f
	}
	return v, nil
}
