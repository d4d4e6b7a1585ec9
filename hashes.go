package talon

import (
	"context"
	"fmt"
)

// -----------------------------------------------------------------------------
// Hash Commands
// -----------------------------------------------------------------------------

// HSet sets the given fields and returns the number of fields that were
// newly created.
func (c *baseClient) HSet(ctx context.Context, key string, fields map[string][]byte) (int64, error) {
	args := make([][]byte, 0, 1+len(fields)*2)
	args = append(args, arg(key))
	for f, v := range fields {
		args = append(args, arg(f), v)
	}
	res, err := c.exec(ctx, "HSET", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// HSetNX sets field only when it does not yet exist.
func (c *baseClient) HSetNX(ctx context.Context, key, field string, value []byte) (bool, error) {
	res, err := c.exec(ctx, "HSETNX", arg(key), arg(field), value)
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// HGet returns the value of field, or nil when key or field are missing.
func (c *baseClient) HGet(ctx context.Context, key, field string) ([]byte, error) {
	res, err := c.exec(ctx, "HGET", arg(key), arg(field))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// HGetAll returns all fields and values of the hash at key.
func (c *baseClient) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	res, err := c.exec(ctx, "HGETALL", arg(key))
	if err != nil {
		return nil, err
	}
	return toBytesMap(res)
}

// HMGet returns the values of fields in order; missing fields yield nil
// entries.
func (c *baseClient) HMGet(ctx context.Context, key string, fields ...string) ([][]byte, error) {
	args := append([][]byte{arg(key)}, stringsToArgs(fields)...)
	res, err := c.exec(ctx, "HMGET", args...)
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// HDel deletes fields and returns how many were removed.
func (c *baseClient) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	args := append([][]byte{arg(key)}, stringsToArgs(fields)...)
	res, err := c.exec(ctx, "HDEL", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// HExists reports whether field exists in the hash at key.
func (c *baseClient) HExists(ctx context.Context, key, field string) (bool, error) {
	res, err := c.exec(ctx, "HEXISTS", arg(key), arg(field))
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// HLen returns the number of fields in the hash at key.
func (c *baseClient) HLen(ctx context.Context, key string) (int64, error) {
	res, err := c.exec(ctx, "HLEN", arg(key))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// HKeys returns all field names of the hash at key.
func (c *baseClient) HKeys(ctx context.Context, key string) ([]string, error) {
	res, err := c.exec(ctx, "HKEYS", arg(key))
	if err != nil {
		return nil, err
	}
	return toStringSlice(res)
}

// HVals returns all values of the hash at key.
func (c *baseClient) HVals(ctx context.Context, key string) ([][]byte, error) {
	res, err := c.exec(ctx, "HVALS", arg(key))
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// HStrlen returns the length of the value of field, 0 when missing.
func (c *baseClient) HStrlen(ctx context.Context, key, field string) (int64, error) {
	res, err := c.exec(ctx, "HSTRLEN", arg(key), arg(field))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// HIncrBy increments the integer stored at field by delta.
func (c *baseClient) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	res, err := c.exec(ctx, "HINCRBY", arg(key), arg(field), argInt(delta))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// HIncrByFloat increments the float stored at field by delta.
func (c *baseClient) HIncrByFloat(ctx context.Context, key, field string, delta float64) (float64, error) {
	res, err := c.exec(ctx, "HINCRBYFLOAT", arg(key), arg(field), argFloat(delta))
	if err != nil {
		return 0, err
	}
	return toFloat64(res)
}

// HRandField returns a single random field name, or "" with ok=false when
// the hash is empty.
func (c *baseClient) HRandField(ctx context.Context, key string) (string, bool, error) {
	res, err := c.exec(ctx, "HRANDFIELD", arg(key))
	if err != nil {
		return "", false, err
	}
	if res == nil {
		return "", false, nil
	}
	s, err := toString(res)
	return s, err == nil, err
}

// HRandFieldCount returns up to count random field names. A negative count
// allows repetitions.
func (c *baseClient) HRandFieldCount(ctx context.Context, key string, count int64) ([]string, error) {
	res, err := c.exec(ctx, "HRANDFIELD", arg(key), argInt(count))
	if err != nil {
		return nil, err
	}
	return toStringSlice(res)
}

// FieldValue is a hash field with its value.
type FieldValue struct {
	Field string
	Value []byte
}

// HRandFieldCountWithValues returns up to count random fields with their
// values.
func (c *baseClient) HRandFieldCountWithValues(ctx context.Context, key string, count int64) ([]FieldValue, error) {
	res, err := c.exec(ctx, "HRANDFIELD", arg(key), argInt(count), arg("WITHVALUES"))
	if err != nil {
		return nil, err
	}
	return toFieldValues(res)
}

// toFieldValues handles both the RESP3 array-of-pairs reply and the RESP2
// flat reply.
func toFieldValues(v any) ([]FieldValue, error) {
	items, err := toSlice(v)
	if err != nil || items == nil {
		return nil, err
	}
	if len(items) > 0 {
		if _, nested := items[0].([]any); nested {
			out := make([]FieldValue, 0, len(items))
			for i, item := range items {
				pair, ok := item.([]any)
				if !ok || len(pair) != 2 {
					return nil, fmt.Errorf("element %d: malformed field-value pair", i)
				}
				f, err := toString(pair[0])
				if err != nil {
					return nil, err
				}
				val, err := toBytes(pair[1])
				if err != nil {
					return nil, err
				}
				out = append(out, FieldValue{Field: f, Value: val})
			}
			return out, nil
		}
	}
	if len(items)%2 != 0 {
		return nil, fmt.Errorf("field-value array has odd length %d", len(items))
	}
	out := make([]FieldValue, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		f, err := toString(items[i])
		if err != nil {
			return nil, err
		}
		val, err := toBytes(items[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, FieldValue{Field: f, Value: val})
	}
	return out, nil
}

// HScan iterates the hash at key. The initial cursor is "0"; iteration is
// complete when the returned cursor is "0" again.
func (c *baseClient) HScan(ctx context.Context, key, cursor string, opts ScanOptions) (string, []FieldValue, error) {
	args := [][]byte{arg(key), arg(cursor)}
	args = opts.appendTo(args, false)
	res, err := c.exec(ctx, "HSCAN", args...)
	if err != nil {
		return "", nil, err
	}
	next, items, err := splitScanReply(res)
	if err != nil {
		return "", nil, err
	}
	fvs, err := toFieldValues(items)
	if err != nil {
		return "", nil, err
	}
	return next, fvs, nil
}
