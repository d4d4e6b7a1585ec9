package talon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/talonkv/talon-go/core"
)

// -----------------------------------------------------------------------------
// Generic Key Commands
// -----------------------------------------------------------------------------

// Del deletes keys and returns how many existed.
func (c *baseClient) Del(ctx context.Context, keys ...string) (int64, error) {
	res, err := c.exec(ctx, "DEL", stringsToArgs(keys)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// Unlink is Del with asynchronous memory reclamation.
func (c *baseClient) Unlink(ctx context.Context, keys ...string) (int64, error) {
	res, err := c.exec(ctx, "UNLINK", stringsToArgs(keys)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// Exists returns how many of the given keys exist, counting duplicates.
func (c *baseClient) Exists(ctx context.Context, keys ...string) (int64, error) {
	res, err := c.exec(ctx, "EXISTS", stringsToArgs(keys)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// Touch updates the access time of keys and returns how many exist.
func (c *baseClient) Touch(ctx context.Context, keys ...string) (int64, error) {
	res, err := c.exec(ctx, "TOUCH", stringsToArgs(keys)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ExpireCondition restricts when an expiry update takes effect.
type ExpireCondition string

const (
	// ExpireAlways applies the expiry unconditionally.
	ExpireAlways ExpireCondition = ""
	// ExpireOnlyIfNone applies only when the key has no expiry.
	ExpireOnlyIfNone ExpireCondition = "NX"
	// ExpireOnlyIfExists applies only when the key already has an expiry.
	ExpireOnlyIfExists ExpireCondition = "XX"
	// ExpireOnlyIfGreater applies only when the new expiry is later.
	ExpireOnlyIfGreater ExpireCondition = "GT"
	// ExpireOnlyIfLess applies only when the new expiry is earlier.
	ExpireOnlyIfLess ExpireCondition = "LT"
)

// Expire sets a TTL on key; false means the key is missing or the
// condition was not met.
func (c *baseClient) Expire(ctx context.Context, key string, ttl time.Duration, cond ExpireCondition) (bool, error) {
	name, amount := "EXPIRE", int64(ttl/time.Second)
	if ttl%time.Second != 0 {
		name, amount = "PEXPIRE", ttl.Milliseconds()
	}
	args := [][]byte{arg(key), argInt(amount)}
	if cond != ExpireAlways {
		args = append(args, arg(string(cond)))
	}
	res, err := c.exec(ctx, name, args...)
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// ExpireAt sets an absolute expiry timestamp on key.
func (c *baseClient) ExpireAt(ctx context.Context, key string, at time.Time, cond ExpireCondition) (bool, error) {
	args := [][]byte{arg(key), argInt(at.UnixMilli())}
	if cond != ExpireAlways {
		args = append(args, arg(string(cond)))
	}
	res, err := c.exec(ctx, "PEXPIREAT", args...)
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// TTL returns the remaining time to live. ok is false when the key is
// missing or has no expiry; in the latter case ttl is -1 internally, so
// callers that need the distinction should use ExpireTime.
func (c *baseClient) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	res, err := c.exec(ctx, "PTTL", arg(key))
	if err != nil {
		return 0, false, err
	}
	ms, err := toInt64(res)
	if err != nil {
		return 0, false, err
	}
	if ms < 0 {
		return 0, false, nil
	}
	return time.Duration(ms) * time.Millisecond, true, nil
}

// ExpireTime returns the absolute expiry timestamp. ok is false when the
// key is missing or persistent.
func (c *baseClient) ExpireTime(ctx context.Context, key string) (time.Time, bool, error) {
	res, err := c.exec(ctx, "PEXPIRETIME", arg(key))
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := toInt64(res)
	if err != nil {
		return time.Time{}, false, err
	}
	if ms < 0 {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

// Persist removes the expiry from key.
func (c *baseClient) Persist(ctx context.Context, key string) (bool, error) {
	res, err := c.exec(ctx, "PERSIST", arg(key))
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// Type returns the type of the value at key ("string", "list", ...), or
// "none" when missing.
func (c *baseClient) Type(ctx context.Context, key string) (string, error) {
	res, err := c.exec(ctx, "TYPE", arg(key))
	if err != nil {
		return "", err
	}
	return toString(res)
}

// ObjectEncoding returns the internal encoding of the value at key, with
// ok=false when the key is missing.
func (c *baseClient) ObjectEncoding(ctx context.Context, key string) (string, bool, error) {
	res, err := c.exec(ctx, "OBJECT ENCODING", arg(key))
	if err != nil {
		return "", false, err
	}
	if res == nil {
		return "", false, nil
	}
	s, err := toString(res)
	return s, err == nil, err
}

// Rename renames key to newKey, overwriting newKey.
func (c *baseClient) Rename(ctx context.Context, key, newKey string) error {
	res, err := c.exec(ctx, "RENAME", arg(key), arg(newKey))
	if err != nil {
		return err
	}
	return toOK(res)
}

// RenameNX renames key only when newKey does not exist.
func (c *baseClient) RenameNX(ctx context.Context, key, newKey string) (bool, error) {
	res, err := c.exec(ctx, "RENAMENX", arg(key), arg(newKey))
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// CopyOptions refine Copy.
type CopyOptions struct {
	// DestinationDB copies into another logical database (standalone only).
	DestinationDB *int
	// Replace overwrites an existing destination.
	Replace bool
}

// Copy copies the value at source to destination.
func (c *baseClient) Copy(ctx context.Context, source, destination string, opts CopyOptions) (bool, error) {
	args := [][]byte{arg(source), arg(destination)}
	if opts.DestinationDB != nil {
		args = append(args, arg("DB"), argInt(int64(*opts.DestinationDB)))
	}
	if opts.Replace {
		args = append(args, arg("REPLACE"))
	}
	res, err := c.exec(ctx, "COPY", args...)
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// RandomKey returns a random key, or "" with ok=false on an empty database.
func (c *baseClient) RandomKey(ctx context.Context) (string, bool, error) {
	res, err := c.exec(ctx, "RANDOMKEY")
	if err != nil {
		return "", false, err
	}
	if res == nil {
		return "", false, nil
	}
	s, err := toString(res)
	return s, err == nil, err
}

// -----------------------------------------------------------------------------
// Scans
// -----------------------------------------------------------------------------

// ScanOptions refine SCAN and its per-collection variants. Type applies
// only to the key-space scans.
type ScanOptions struct {
	Match string
	Count int64
	Type  string
}

func (o ScanOptions) appendTo(args [][]byte, includeType bool) [][]byte {
	if o.Match != "" {
		args = append(args, arg("MATCH"), arg(o.Match))
	}
	if o.Count > 0 {
		args = append(args, arg("COUNT"), argInt(o.Count))
	}
	if includeType && o.Type != "" {
		args = append(args, arg("TYPE"), arg(o.Type))
	}
	return args
}

func (o ScanOptions) toCore() core.ScanOptions {
	return core.ScanOptions{Match: o.Match, Count: o.Count, Type: o.Type}
}

// splitScanReply splits the [cursor, payload] scan reply shape.
func splitScanReply(v any) (string, any, error) {
	items, err := toSlice(v)
	if err != nil {
		return "", nil, err
	}
	if len(items) != 2 {
		return "", nil, fmt.Errorf("malformed scan reply of length %d", len(items))
	}
	cursor, err := toString(items[0])
	if err != nil {
		return "", nil, err
	}
	return cursor, items[1], nil
}

// Scan iterates the key space of a standalone server. The initial cursor
// is "0"; iteration is complete when the returned cursor is "0" again.
func (c *Client) Scan(ctx context.Context, cursor string, opts ScanOptions) (string, []string, error) {
	args := opts.appendTo([][]byte{arg(cursor)}, true)
	res, err := c.exec(ctx, "SCAN", args...)
	if err != nil {
		return "", nil, err
	}
	next, payload, err := splitScanReply(res)
	if err != nil {
		return "", nil, err
	}
	keys, err := toStringSlice(payload)
	if err != nil {
		return "", nil, err
	}
	return next, keys, nil
}

// ClusterScanCursor tracks a cluster-wide key-space scan. The cursor state
// lives in the core; a cursor that is abandoned before Finished must be
// released with Close or the core leaks its scan state.
type ClusterScanCursor struct {
	id   string
	core core.Core

	mu     sync.Mutex
	closed bool
}

// NewClusterScanCursor returns the initial cursor.
func NewClusterScanCursor() *ClusterScanCursor {
	return &ClusterScanCursor{id: "0"}
}

// ID returns the opaque cursor identifier.
func (c *ClusterScanCursor) ID() string { return c.id }

// Finished reports whether the scan has visited every node.
func (c *ClusterScanCursor) Finished() bool {
	return c.id == core.ScanFinishedCursor
}

// Close releases the core-side scan state. It is idempotent and a no-op
// for initial or finished cursors.
func (c *ClusterScanCursor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.core != nil && c.id != "0" && c.id != core.ScanFinishedCursor {
		c.core.RemoveScanCursor(c.id)
	}
}

// ScanWithCursor advances a cluster-wide scan and returns the keys of this
// step together with the cursor for the next one. The input cursor stays
// valid until Close; the returned cursor must be used for the next step.
func (c *ClusterClient) ScanWithCursor(ctx context.Context, cursor *ClusterScanCursor, opts ScanOptions) (*ClusterScanCursor, []string, error) {
	if c.closed.Load() {
		return nil, nil, core.ErrClosedClient
	}
	if cursor.Finished() {
		return cursor, nil, nil
	}
	next, keys, err := c.core.ClusterScan(ctx, cursor.id, opts.toCore())
	if err != nil {
		return nil, nil, fmt.Errorf("cluster scan: %w", err)
	}
	return &ClusterScanCursor{id: next, core: c.core}, keys, nil
}
