package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// ArgumentError names the argument that failed validation.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidArgument) match.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// Validate checks args against d's parameter schema in declaration order.
// A null value counts as absent. Arguments the schema does not declare are
// ignored.
func (r *Registry) Validate(d *Descriptor, args map[string]any) error {
	return ValidateArgs(d.Params, args)
}

// ValidateArgs checks args against params.
func ValidateArgs(params []Param, args map[string]any) error {
	for _, p := range params {
		v, present := args[p.Name]
		if !present || v == nil {
			if p.Required {
				return &ArgumentError{Field: p.Name, Reason: "missing required argument"}
			}
			continue
		}
		if !matchesType(p.Type, v) {
			return &ArgumentError{Field: p.Name, Reason: fmt.Sprintf("expected %s, got %s", p.Type, describe(v))}
		}
		if len(p.Enum) > 0 {
			s, _ := v.(string)
			if !slices.Contains(p.Enum, s) {
				return &ArgumentError{Field: p.Name, Reason: fmt.Sprintf("must be one of %v", p.Enum)}
			}
		}
	}
	return nil
}

func knownType(t ParamType) bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray, TypeVector, TypeAny:
		return true
	}
	return false
}

func matchesType(t ParamType, v any) bool {
	switch t {
	case TypeAny:
		return true
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeNumber:
		return isNumber(v)
	case TypeInteger:
		return isInteger(v)
	case TypeObject:
		_, ok := v.(map[string]any)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	case TypeVector:
		arr, ok := v.([]any)
		if !ok || len(arr) != 3 {
			return false
		}
		for _, c := range arr {
			if !isNumber(c) {
				return false
			}
		}
		return true
	}
	return false
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case json.Number:
		_, err := n.Float64()
		return err == nil
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isInteger(v any) bool {
	_, ok := toInt(v)
	return ok
}

// toInt converts a decoded integer value. Integral floats and exponent
// forms such as 2e0 are accepted; fractions and values that do not fit an
// int are not.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return intInRange(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return intInRange(n)
	case uint:
		return uintInRange(uint64(n))
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return uintInRange(uint64(n))
	case uint64:
		return uintInRange(n)
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return intInRange(int64(f))
}

func intInRange(i int64) (int, bool) {
	if i < math.MinInt || i > math.MaxInt {
		return 0, false
	}
	return int(i), true
}

func uintInRange(u uint64) (int, bool) {
	if u > math.MaxInt {
		return 0, false
	}
	return int(u), true
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if isNumber(v) {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
