package talon

import (
	"context"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// String Commands
// -----------------------------------------------------------------------------

// SetOptions refine Set behavior. OnlyIfExists and OnlyIfAbsent are
// mutually exclusive; ExpireAt takes precedence over Expiry; KeepTTL
// preserves the existing TTL and excludes both.
type SetOptions struct {
	OnlyIfExists bool
	OnlyIfAbsent bool

	Expiry   time.Duration
	ExpireAt time.Time
	KeepTTL  bool

	// ReturnOldValue asks the server for the previous value (GET flag).
	ReturnOldValue bool
}

// SetResult reports the outcome of SetWithOptions.
type SetResult struct {
	// Applied is false when a conditional set did not take effect.
	Applied bool
	// OldValue is the previous value when ReturnOldValue was set, nil
	// otherwise or when the key did not exist.
	OldValue []byte
}

func (o *SetOptions) appendTo(args [][]byte) ([][]byte, error) {
	if o == nil {
		return args, nil
	}
	if o.OnlyIfExists && o.OnlyIfAbsent {
		return nil, fmt.Errorf("set: OnlyIfExists and OnlyIfAbsent are mutually exclusive")
	}
	if o.OnlyIfExists {
		args = append(args, arg("XX"))
	}
	if o.OnlyIfAbsent {
		args = append(args, arg("NX"))
	}
	if o.ReturnOldValue {
		args = append(args, arg("GET"))
	}
	switch {
	case o.KeepTTL:
		if o.Expiry != 0 || !o.ExpireAt.IsZero() {
			return nil, fmt.Errorf("set: KeepTTL excludes an explicit expiry")
		}
		args = append(args, arg("KEEPTTL"))
	case !o.ExpireAt.IsZero():
		args = append(args, arg("PXAT"), argInt(o.ExpireAt.UnixMilli()))
	case o.Expiry != 0:
		args = appendExpiry(args, o.Expiry)
	}
	return args, nil
}

func appendExpiry(args [][]byte, d time.Duration) [][]byte {
	if d%time.Second == 0 {
		return append(args, arg("EX"), argInt(int64(d/time.Second)))
	}
	return append(args, arg("PX"), argInt(d.Milliseconds()))
}

// Set stores value under key. A zero expiration means no expiry.
func (c *baseClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	args := [][]byte{arg(key), value}
	if expiration != 0 {
		args = appendExpiry(args, expiration)
	}
	res, err := c.exec(ctx, "SET", args...)
	if err != nil {
		return err
	}
	return toOK(res)
}

// SetWithOptions stores value under key with conditional and expiry
// options.
func (c *baseClient) SetWithOptions(ctx context.Context, key string, value []byte, opts SetOptions) (SetResult, error) {
	args, err := opts.appendTo([][]byte{arg(key), value})
	if err != nil {
		return SetResult{}, err
	}
	res, err := c.exec(ctx, "SET", args...)
	if err != nil {
		return SetResult{}, err
	}
	if opts.ReturnOldValue {
		old, err := toBytes(res)
		if err != nil {
			return SetResult{}, err
		}
		// With the GET flag a nil reply only signals a missing previous
		// value; the write itself is reported through the old value
		// channel, so treat the set as applied unless conditional.
		applied := true
		if (opts.OnlyIfExists && old == nil) || (opts.OnlyIfAbsent && old != nil) {
			applied = false
		}
		return SetResult{Applied: applied, OldValue: old}, nil
	}
	if res == nil {
		return SetResult{}, nil
	}
	return SetResult{Applied: true}, toOK(res)
}

// Get returns the value of key, or nil when the key does not exist.
func (c *baseClient) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := c.exec(ctx, "GET", arg(key))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// GetDel returns the value of key and deletes it.
func (c *baseClient) GetDel(ctx context.Context, key string) ([]byte, error) {
	res, err := c.exec(ctx, "GETDEL", arg(key))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// GetExOptions adjust the expiry applied by GetEx. Persist removes the TTL;
// otherwise ExpireAt takes precedence over Expiry, and leaving both unset
// keeps the TTL untouched.
type GetExOptions struct {
	Expiry   time.Duration
	ExpireAt time.Time
	Persist  bool
}

// GetEx returns the value of key and optionally adjusts its expiry.
func (c *baseClient) GetEx(ctx context.Context, key string, opts GetExOptions) ([]byte, error) {
	args := [][]byte{arg(key)}
	switch {
	case opts.Persist:
		args = append(args, arg("PERSIST"))
	case !opts.ExpireAt.IsZero():
		args = append(args, arg("PXAT"), argInt(opts.ExpireAt.UnixMilli()))
	case opts.Expiry != 0:
		args = appendExpiry(args, opts.Expiry)
	}
	res, err := c.exec(ctx, "GETEX", args...)
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// GetRange returns the substring of the value at key between start and end,
// inclusive. Negative offsets count from the end.
func (c *baseClient) GetRange(ctx context.Context, key string, start, end int64) ([]byte, error) {
	res, err := c.exec(ctx, "GETRANGE", arg(key), argInt(start), argInt(end))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// SetRange overwrites part of the value at key starting at offset and
// returns the new length.
func (c *baseClient) SetRange(ctx context.Context, key string, offset int64, value []byte) (int64, error) {
	res, err := c.exec(ctx, "SETRANGE", arg(key), argInt(offset), value)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// Append appends value to key and returns the new length.
func (c *baseClient) Append(ctx context.Context, key string, value []byte) (int64, error) {
	res, err := c.exec(ctx, "APPEND", arg(key), value)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// Strlen returns the length of the value at key, 0 when missing.
func (c *baseClient) Strlen(ctx context.Context, key string) (int64, error) {
	res, err := c.exec(ctx, "STRLEN", arg(key))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// MGet returns the values of keys in order; missing keys yield nil entries.
func (c *baseClient) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	res, err := c.exec(ctx, "MGET", stringsToArgs(keys)...)
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// MSet sets all given key-value pairs atomically.
func (c *baseClient) MSet(ctx context.Context, pairs map[string][]byte) error {
	args := make([][]byte, 0, len(pairs)*2)
	for k, v := range pairs {
		args = append(args, arg(k), v)
	}
	res, err := c.exec(ctx, "MSET", args...)
	if err != nil {
		return err
	}
	return toOK(res)
}

// MSetNX sets all given key-value pairs only when none of the keys exist.
func (c *baseClient) MSetNX(ctx context.Context, pairs map[string][]byte) (bool, error) {
	args := make([][]byte, 0, len(pairs)*2)
	for k, v := range pairs {
		args = append(args, arg(k), v)
	}
	res, err := c.exec(ctx, "MSETNX", args...)
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// Incr increments the integer at key by one.
func (c *baseClient) Incr(ctx context.Context, key string) (int64, error) {
	res, err := c.exec(ctx, "INCR", arg(key))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// IncrBy increments the integer at key by delta.
func (c *baseClient) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	res, err := c.exec(ctx, "INCRBY", arg(key), argInt(delta))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// IncrByFloat increments the float at key by delta.
func (c *baseClient) IncrByFloat(ctx context.Context, key string, delta float64) (float64, error) {
	res, err := c.exec(ctx, "INCRBYFLOAT", arg(key), argFloat(delta))
	if err != nil {
		return 0, err
	}
	return toFloat64(res)
}

// Decr decrements the integer at key by one.
func (c *baseClient) Decr(ctx context.Context, key string) (int64, error) {
	res, err := c.exec(ctx, "DECR", arg(key))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// DecrBy decrements the integer at key by delta.
func (c *baseClient) DecrBy(ctx context.Context, key string, delta int64) (int64, error) {
	res, err := c.exec(ctx, "DECRBY", arg(key), argInt(delta))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}
