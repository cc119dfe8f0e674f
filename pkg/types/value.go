package types

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// Normalize converts a caller-supplied column value to the canonical Go type
// of t: int64, float64, string, []byte or bool. A nil value stays nil.
func Normalize(t SemanticType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeInteger:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int8:
			return int64(n), nil
		case int16:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case uint8:
			return int64(n), nil
		case uint16:
			return int64(n), nil
		case uint32:
			return int64(n), nil
		case uint:
			if uint64(n) <= math.MaxInt64 {
				return int64(n), nil
			}
		case uint64:
			if n <= math.MaxInt64 {
				return int64(n), nil
			}
		}
	case TypeReal:
		switch n := v.(type) {
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case TypeText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeBinary:
		if b, ok := v.([]byte); ok {
			return append([]byte(nil), b...), nil
		}
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, t)
	}
	return nil, fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, t)
}

// Decode converts a raw driver value to the canonical Go type of t. Drivers
// disagree on representations (text protocols return []byte, SQLite stores
// booleans as integers, Postgres INTEGER scans as int32), so decoding is
// lenient where Normalize is strict.
func Decode(t SemanticType, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if b, ok := raw.([]byte); ok && t != TypeBinary {
		raw = string(b)
	}

	var (
		v   any
		err error
	)
	switch t {
	case TypeInteger:
		v, err = cast.ToInt64E(raw)
	case TypeReal:
		v, err = cast.ToFloat64E(raw)
	case TypeText:
		v, err = cast.ToStringE(raw)
	case TypeBoolean:
		v, err = cast.ToBoolE(raw)
	case TypeBinary:
		switch b := raw.(type) {
		case []byte:
			return append([]byte(nil), b...), nil
		case string:
			return []byte(b), nil
		}
		err = fmt.Errorf("cannot use %T as bytes", raw)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrTypeMismatch, t, err)
	}
	return v, nil
}
