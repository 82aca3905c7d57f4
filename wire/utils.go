package wire

import (
	"fmt"

	"github.com/extprot/extprot-go/schema"
)

// Coercion helpers for the render path. Callers hand values through
// interface{}, so the encoder accepts the Go types a value plausibly arrives
// as and normalizes them to the codec's canonical representation.

func coerceBool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, &RenderError{Msg: fmt.Sprintf("expected bool, got %T", v)}
	}
	return b, nil
}

func coerceInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		if t > 1<<63-1 {
			return 0, &RenderError{Msg: fmt.Sprintf("integer %d overflows int64", t)}
		}
		return int64(t), nil
	default:
		return 0, &RenderError{Msg: fmt.Sprintf("expected integer, got %T", v)}
	}
}

func coerceUint64(v interface{}) (uint64, error) {
	switch t := v.(type) {
	case uint64:
		return t, nil
	case uint8:
		return uint64(t), nil
	case uint16:
		return uint64(t), nil
	case uint32:
		return uint64(t), nil
	case uint:
		return uint64(t), nil
	case int, int8, int16, int32, int64:
		n, _ := coerceInt64(t)
		if n < 0 {
			return 0, &RenderError{Msg: fmt.Sprintf("negative value %d for unsigned field", n)}
		}
		return uint64(n), nil
	default:
		return 0, &RenderError{Msg: fmt.Sprintf("expected unsigned integer, got %T", v)}
	}
}

func coerceFloat64(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	default:
		return 0, &RenderError{Msg: fmt.Sprintf("expected float, got %T", v)}
	}
}

// coerceBytes accepts either of the two representations a byte-string value
// travels as in Go.
func coerceBytes(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	default:
		return nil, &RenderError{Msg: fmt.Sprintf("expected string or []byte, got %T", v)}
	}
}

// coerceSlice converts common concrete slice types to []interface{} so
// callers aren't forced to pre-box their lists.
func coerceSlice(v interface{}) ([]interface{}, error) {
	switch t := v.(type) {
	case []interface{}:
		return t, nil
	case []string:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, nil
	case []int:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, nil
	case []int64:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, nil
	case []bool:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, nil
	case []float64:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, nil
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, nil
	default:
		return nil, &RenderError{Msg: fmt.Sprintf("expected slice, got %T", v)}
	}
}

func coerceMap(v interface{}) (map[interface{}]interface{}, error) {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		return t, nil
	case map[string]interface{}:
		out := make(map[interface{}]interface{}, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out, nil
	case map[string]string:
		out := make(map[interface{}]interface{}, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out, nil
	case map[int64]interface{}:
		out := make(map[interface{}]interface{}, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out, nil
	default:
		return nil, &RenderError{Msg: fmt.Sprintf("expected map, got %T", v)}
	}
}

// coerceVariant accepts a Variant, a pointer to one, or a bare constructor
// name for constant constructors.
func coerceVariant(v interface{}) (schema.Variant, error) {
	switch t := v.(type) {
	case schema.Variant:
		return t, nil
	case *schema.Variant:
		return *t, nil
	case string:
		return schema.Variant{Option: t}, nil
	default:
		return schema.Variant{}, &RenderError{Msg: fmt.Sprintf("expected union variant, got %T", v)}
	}
}
