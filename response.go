package talon

import (
	"fmt"
	"strconv"
)

// Reply conversion helpers. The core normalizes replies to nil, bool,
// int64, float64, string/[]byte, []any and map[string]any (see the core
// package doc); these helpers narrow them to the types each command
// promises. Textual replies may arrive as either string or []byte.

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func toString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	}
	return "", fmt.Errorf("unexpected reply type %T, want string", v)
}

// toBytes returns nil for nil replies, mirroring a missing value.
func toBytes(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	}
	return nil, fmt.Errorf("unexpected reply type %T, want bulk string", v)
}

func toInt64(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case string:
		return strconv.ParseInt(val, 10, 64)
	case []byte:
		return strconv.ParseInt(string(val), 10, 64)
	}
	return 0, fmt.Errorf("unexpected reply type %T, want integer", v)
}

// toFloat64 accepts doubles and their RESP2 bulk-string encoding.
func toFloat64(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case string:
		return strconv.ParseFloat(val, 64)
	case []byte:
		return strconv.ParseFloat(string(val), 64)
	}
	return 0, fmt.Errorf("unexpected reply type %T, want double", v)
}

func toBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case int64:
		return val != 0, nil
	}
	return false, fmt.Errorf("unexpected reply type %T, want boolean", v)
}

// toOK verifies a status reply.
func toOK(v any) error {
	s, err := toString(v)
	if err != nil {
		return err
	}
	if s != "OK" {
		return fmt.Errorf("unexpected status reply %q", s)
	}
	return nil
}

func toSlice(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected reply type %T, want array", v)
	}
	return s, nil
}

func toBytesSlice(v any) ([][]byte, error) {
	s, err := toSlice(v)
	if err != nil || s == nil {
		return nil, err
	}
	out := make([][]byte, len(s))
	for i, item := range s {
		b, err := toBytes(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

func toStringSlice(v any) ([]string, error) {
	s, err := toSlice(v)
	if err != nil || s == nil {
		return nil, err
	}
	out := make([]string, len(s))
	for i, item := range s {
		str, err := toString(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = str
	}
	return out, nil
}

// toBytesMap accepts both RESP3 maps and RESP2 flat field-value arrays.
func toBytesMap(v any) (map[string][]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string][]byte, len(val))
		for k, item := range val {
			b, err := toBytes(item)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = b
		}
		return out, nil
	case []any:
		if len(val)%2 != 0 {
			return nil, fmt.Errorf("field-value array has odd length %d", len(val))
		}
		out := make(map[string][]byte, len(val)/2)
		for i := 0; i < len(val); i += 2 {
			k, err := toString(val[i])
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", i, err)
			}
			b, err := toBytes(val[i+1])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = b
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected reply type %T, want map", v)
}

// toInt64Map accepts both RESP3 maps and RESP2 flat pair arrays with
// integer values.
func toInt64Map(v any) (map[string]int64, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]int64, len(val))
		for k, item := range val {
			n, err := toInt64(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case []any:
		if len(val)%2 != 0 {
			return nil, fmt.Errorf("pair array has odd length %d", len(val))
		}
		out := make(map[string]int64, len(val)/2)
		for i := 0; i < len(val); i += 2 {
			k, err := toString(val[i])
			if err != nil {
				return nil, fmt.Errorf("key %d: %w", i, err)
			}
			n, err := toInt64(val[i+1])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected reply type %T, want map", v)
}
