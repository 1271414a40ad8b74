package datamodel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse converts a raw device string to a canonical value of type t.
// Canonical values are int64, uint64, string or bool.
func Parse(t Type, raw string) (any, error) {
	s := strings.TrimSpace(raw)
	switch t {
	case TypeInt:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int", ErrInvalidValue, raw)
		}
		return v, nil
	case TypeUnsignedInt:
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an unsigned int", ErrInvalidValue, raw)
		}
		return v, nil
	case TypeBoolean:
		switch strings.ToLower(s) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
		return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, raw)
	case TypeString:
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %s has no value", ErrInvalidValue, t)
	}
}

// Coerce converts v to the canonical representation of type t. It accepts
// the loose values produced by YAML and JSON decoding.
func Coerce(t Type, v any) (any, error) {
	if s, ok := v.(string); ok {
		return Parse(t, s)
	}
	switch t {
	case TypeInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case uint64:
			if n > math.MaxInt64 {
				break
			}
			return int64(n), nil
		case float64:
			if n == math.Trunc(n) {
				return int64(n), nil
			}
		case bool:
			if n {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case TypeUnsignedInt:
		switch n := v.(type) {
		case int:
			if n >= 0 {
				return uint64(n), nil
			}
		case int64:
			if n >= 0 {
				return uint64(n), nil
			}
		case uint64:
			return n, nil
		case float64:
			if n >= 0 && n == math.Trunc(n) {
				return uint64(n), nil
			}
		}
	case TypeBoolean:
		switch n := v.(type) {
		case bool:
			return n, nil
		case int:
			return n != 0, nil
		case int64:
			return n != 0, nil
		}
	case TypeString:
		return fmt.Sprint(v), nil
	}
	return nil, fmt.Errorf("%w: %v (%T) is not %s", ErrInvalidValue, v, v, t)
}

// Format renders a canonical value as the string sent to the device.
// Booleans are sent as "1" and "0".
func Format(t Type, v any) (string, error) {
	c, err := Coerce(t, v)
	if err != nil {
		return "", err
	}
	switch x := c.(type) {
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case string:
		return x, nil
	}
	return "", fmt.Errorf("%w: %v", ErrInvalidValue, v)
}

// Equal compares two canonical values.
func Equal(a, b any) bool {
	return a == b
}
