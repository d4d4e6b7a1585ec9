package talon

import (
	"context"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Stream Commands
// -----------------------------------------------------------------------------

// StreamEntry is a single stream entry.
type StreamEntry struct {
	ID     string
	Fields map[string][]byte
}

// StreamTrim bounds a stream, either by length (MaxLen) or by minimum ID
// (MinID, which wins when set). Approximate trimming lets the server trim
// lazily; Limit caps the work per call and requires Approximate.
type StreamTrim struct {
	MaxLen      int64
	MinID       string
	Approximate bool
	Limit       int64
}

func (t StreamTrim) appendTo(args [][]byte) ([][]byte, error) {
	if t.Limit != 0 && !t.Approximate {
		return nil, fmt.Errorf("stream trim: LIMIT requires approximate trimming")
	}
	strategy, threshold := "MAXLEN", argInt(t.MaxLen)
	if t.MinID != "" {
		strategy, threshold = "MINID", arg(t.MinID)
	}
	args = append(args, arg(strategy))
	if t.Approximate {
		args = append(args, arg("~"))
	} else {
		args = append(args, arg("="))
	}
	args = append(args, threshold)
	if t.Limit != 0 {
		args = append(args, arg("LIMIT"), argInt(t.Limit))
	}
	return args, nil
}

// XAddOptions refine XAdd. ID forces an explicit entry ID instead of "*";
// NoMakeStream suppresses stream auto-creation; Trim trims on insert.
type XAddOptions struct {
	ID           string
	NoMakeStream bool
	Trim         *StreamTrim
}

// XAdd appends an entry and returns its ID.
func (c *baseClient) XAdd(ctx context.Context, key string, fields map[string][]byte) (string, error) {
	return c.XAddWithOptions(ctx, key, fields, XAddOptions{})
}

// XAddWithOptions appends an entry with explicit options. An empty ID with
// NoMakeStream on a missing stream yields "" without error.
func (c *baseClient) XAddWithOptions(ctx context.Context, key string, fields map[string][]byte, opts XAddOptions) (string, error) {
	args := [][]byte{arg(key)}
	if opts.NoMakeStream {
		args = append(args, arg("NOMKSTREAM"))
	}
	if opts.Trim != nil {
		var err error
		args, err = opts.Trim.appendTo(args)
		if err != nil {
			return "", err
		}
	}
	id := opts.ID
	if id == "" {
		id = "*"
	}
	args = append(args, arg(id))
	for f, v := range fields {
		args = append(args, arg(f), v)
	}
	res, err := c.exec(ctx, "XADD", args...)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", nil
	}
	return toString(res)
}

// XLen returns the number of entries in the stream at key.
func (c *baseClient) XLen(ctx context.Context, key string) (int64, error) {
	res, err := c.exec(ctx, "XLEN", arg(key))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// XDel removes entries by ID and returns how many were deleted.
func (c *baseClient) XDel(ctx context.Context, key string, ids ...string) (int64, error) {
	args := append([][]byte{arg(key)}, stringsToArgs(ids)...)
	res, err := c.exec(ctx, "XDEL", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// XTrim trims the stream and returns the number of entries removed.
func (c *baseClient) XTrim(ctx context.Context, key string, trim StreamTrim) (int64, error) {
	args, err := trim.appendTo([][]byte{arg(key)})
	if err != nil {
		return 0, err
	}
	res, err := c.exec(ctx, "XTRIM", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// XRange returns the entries with IDs between start and end, inclusive.
// Use "-" and "+" for the open boundaries; count<=0 means no limit.
func (c *baseClient) XRange(ctx context.Context, key, start, end string, count int64) ([]StreamEntry, error) {
	return c.xrange(ctx, "XRANGE", key, start, end, count)
}

// XRevRange is XRange in reverse order; start is the higher boundary.
func (c *baseClient) XRevRange(ctx context.Context, key, start, end string, count int64) ([]StreamEntry, error) {
	return c.xrange(ctx, "XREVRANGE", key, start, end, count)
}

func (c *baseClient) xrange(ctx context.Context, name, key, start, end string, count int64) ([]StreamEntry, error) {
	args := [][]byte{arg(key), arg(start), arg(end)}
	if count > 0 {
		args = append(args, arg("COUNT"), argInt(count))
	}
	res, err := c.exec(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return toStreamEntries(res)
}

// XReadOptions refine XRead and XReadGroup. A nil Block means no blocking;
// a zero Block blocks indefinitely. NoAck applies only to XReadGroup.
type XReadOptions struct {
	Count int64
	Block *time.Duration
	NoAck bool
}

// XRead reads new entries from the given streams, keyed by stream with the
// last-seen ID as value ("$" for only-new, "0" for everything).
func (c *baseClient) XRead(ctx context.Context, streams map[string]string, opts XReadOptions) (map[string][]StreamEntry, error) {
	args := make([][]byte, 0, 4+len(streams)*2)
	if opts.Count > 0 {
		args = append(args, arg("COUNT"), argInt(opts.Count))
	}
	if opts.Block != nil {
		args = append(args, arg("BLOCK"), argInt(opts.Block.Milliseconds()))
	}
	args = appendStreams(args, streams)
	res, err := c.exec(ctx, "XREAD", args...)
	if err != nil {
		return nil, err
	}
	return toStreamResponse(res)
}

// XReadGroup reads entries on behalf of a consumer group. Use ">" as the ID
// to receive entries never delivered to any consumer.
func (c *baseClient) XReadGroup(ctx context.Context, group, consumer string, streams map[string]string, opts XReadOptions) (map[string][]StreamEntry, error) {
	args := [][]byte{arg("GROUP"), arg(group), arg(consumer)}
	if opts.Count > 0 {
		args = append(args, arg("COUNT"), argInt(opts.Count))
	}
	if opts.Block != nil {
		args = append(args, arg("BLOCK"), argInt(opts.Block.Milliseconds()))
	}
	if opts.NoAck {
		args = append(args, arg("NOACK"))
	}
	args = appendStreams(args, streams)
	res, err := c.exec(ctx, "XREADGROUP", args...)
	if err != nil {
		return nil, err
	}
	return toStreamResponse(res)
}

func appendStreams(args [][]byte, streams map[string]string) [][]byte {
	args = append(args, arg("STREAMS"))
	keys := make([]string, 0, len(streams))
	for k := range streams {
		keys = append(keys, k)
	}
	for _, k := range keys {
		args = append(args, arg(k))
	}
	for _, k := range keys {
		args = append(args, arg(streams[k]))
	}
	return args
}

// XGroupCreate creates a consumer group reading from the given ID ("$" for
// new entries only). mkStream creates the stream when missing.
func (c *baseClient) XGroupCreate(ctx context.Context, key, group, id string, mkStream bool) error {
	args := [][]byte{arg(key), arg(group), arg(id)}
	if mkStream {
		args = append(args, arg("MKSTREAM"))
	}
	res, err := c.exec(ctx, "XGROUP CREATE", args...)
	if err != nil {
		return err
	}
	return toOK(res)
}

// XGroupDestroy removes a consumer group.
func (c *baseClient) XGroupDestroy(ctx context.Context, key, group string) (bool, error) {
	res, err := c.exec(ctx, "XGROUP DESTROY", arg(key), arg(group))
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// XGroupCreateConsumer adds a consumer to a group.
func (c *baseClient) XGroupCreateConsumer(ctx context.Context, key, group, consumer string) (bool, error) {
	res, err := c.exec(ctx, "XGROUP CREATECONSUMER", arg(key), arg(group), arg(consumer))
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// XGroupDelConsumer removes a consumer and returns its number of pending
// entries.
func (c *baseClient) XGroupDelConsumer(ctx context.Context, key, group, consumer string) (int64, error) {
	res, err := c.exec(ctx, "XGROUP DELCONSUMER", arg(key), arg(group), arg(consumer))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// XAck acknowledges entries for a group and returns how many were removed
// from the pending list.
func (c *baseClient) XAck(ctx context.Context, key, group string, ids ...string) (int64, error) {
	args := append([][]byte{arg(key), arg(group)}, stringsToArgs(ids)...)
	res, err := c.exec(ctx, "XACK", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// XPendingSummary is the parameterless XPENDING reply.
type XPendingSummary struct {
	Count    int64
	MinID    string
	MaxID    string
	// Consumers maps consumer names to their pending counts.
	Consumers map[string]int64
}

// XPending returns the pending-entries summary for a group.
func (c *baseClient) XPending(ctx context.Context, key, group string) (*XPendingSummary, error) {
	res, err := c.exec(ctx, "XPENDING", arg(key), arg(group))
	if err != nil {
		return nil, err
	}
	items, err := toSlice(res)
	if err != nil {
		return nil, err
	}
	if len(items) != 4 {
		return nil, errMalformedReply("XPENDING", res)
	}
	summary := &XPendingSummary{Consumers: map[string]int64{}}
	if summary.Count, err = toInt64(items[0]); err != nil {
		return nil, err
	}
	if items[1] != nil {
		if summary.MinID, err = toString(items[1]); err != nil {
			return nil, err
		}
	}
	if items[2] != nil {
		if summary.MaxID, err = toString(items[2]); err != nil {
			return nil, err
		}
	}
	consumers, err := toSlice(items[3])
	if err != nil {
		return nil, err
	}
	for _, item := range consumers {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, errMalformedReply("XPENDING", item)
		}
		name, err := toString(pair[0])
		if err != nil {
			return nil, err
		}
		count, err := toInt64(pair[1])
		if err != nil {
			return nil, err
		}
		summary.Consumers[name] = count
	}
	return summary, nil
}

// XPendingEntry is one row of the extended XPENDING reply.
type XPendingEntry struct {
	ID            string
	Consumer      string
	Idle          time.Duration
	DeliveryCount int64
}

// XPendingOptions select a window of the extended XPENDING form.
type XPendingOptions struct {
	// MinIdle filters out entries idle for less than this duration.
	MinIdle time.Duration
	// Start and End bound the ID range; they default to "-" and "+".
	Start string
	End   string
	Count int64
	// Consumer restricts the listing to one consumer.
	Consumer string
}

// XPendingExtended lists individual pending entries.
func (c *baseClient) XPendingExtended(ctx context.Context, key, group string, opts XPendingOptions) ([]XPendingEntry, error) {
	args := [][]byte{arg(key), arg(group)}
	if opts.MinIdle > 0 {
		args = append(args, arg("IDLE"), argInt(opts.MinIdle.Milliseconds()))
	}
	start, end := opts.Start, opts.End
	if start == "" {
		start = "-"
	}
	if end == "" {
		end = "+"
	}
	count := opts.Count
	if count <= 0 {
		count = 10
	}
	args = append(args, arg(start), arg(end), argInt(count))
	if opts.Consumer != "" {
		args = append(args, arg(opts.Consumer))
	}
	res, err := c.exec(ctx, "XPENDING", args...)
	if err != nil {
		return nil, err
	}
	items, err := toSlice(res)
	if err != nil || items == nil {
		return nil, err
	}
	out := make([]XPendingEntry, 0, len(items))
	for _, item := range items {
		row, ok := item.([]any)
		if !ok || len(row) != 4 {
			return nil, errMalformedReply("XPENDING", item)
		}
		var e XPendingEntry
		if e.ID, err = toString(row[0]); err != nil {
			return nil, err
		}
		if e.Consumer, err = toString(row[1]); err != nil {
			return nil, err
		}
		idleMS, err := toInt64(row[2])
		if err != nil {
			return nil, err
		}
		e.Idle = time.Duration(idleMS) * time.Millisecond
		if e.DeliveryCount, err = toInt64(row[3]); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// XClaimOptions refine XClaim.
type XClaimOptions struct {
	// Idle overrides the claimed entries' idle time.
	Idle time.Duration
	// RetryCount overrides the delivery counter.
	RetryCount int64
	// Force claims entries even when they are not pending.
	Force bool
}

func (o XClaimOptions) appendTo(args [][]byte) [][]byte {
	if o.Idle > 0 {
		args = append(args, arg("IDLE"), argInt(o.Idle.Milliseconds()))
	}
	if o.RetryCount > 0 {
		args = append(args, arg("RETRYCOUNT"), argInt(o.RetryCount))
	}
	if o.Force {
		args = append(args, arg("FORCE"))
	}
	return args
}

// XClaim transfers ownership of pending entries idle for at least minIdle.
func (c *baseClient) XClaim(ctx context.Context, key, group, consumer string, minIdle time.Duration, ids []string, opts XClaimOptions) ([]StreamEntry, error) {
	args := [][]byte{arg(key), arg(group), arg(consumer), argInt(minIdle.Milliseconds())}
	args = append(args, stringsToArgs(ids)...)
	args = opts.appendTo(args)
	res, err := c.exec(ctx, "XCLAIM", args...)
	if err != nil {
		return nil, err
	}
	return toStreamEntries(res)
}

// XClaimJustID is XClaim returning only the claimed IDs.
func (c *baseClient) XClaimJustID(ctx context.Context, key, group, consumer string, minIdle time.Duration, ids []string, opts XClaimOptions) ([]string, error) {
	args := [][]byte{arg(key), arg(group), arg(consumer), argInt(minIdle.Milliseconds())}
	args = append(args, stringsToArgs(ids)...)
	args = opts.appendTo(args)
	args = append(args, arg("JUSTID"))
	res, err := c.exec(ctx, "XCLAIM", args...)
	if err != nil {
		return nil, err
	}
	return toStringSlice(res)
}

// XAutoClaimResult is the XAUTOCLAIM reply: the next scan start, the
// claimed entries and the IDs that vanished from the stream.
type XAutoClaimResult struct {
	NextStart string
	Entries   []StreamEntry
	Deleted   []string
}

// XAutoClaim scans the pending list from start and claims entries idle for
// at least minIdle. count<=0 uses the server default.
func (c *baseClient) XAutoClaim(ctx context.Context, key, group, consumer string, minIdle time.Duration, start string, count int64) (*XAutoClaimResult, error) {
	args := [][]byte{arg(key), arg(group), arg(consumer), argInt(minIdle.Milliseconds()), arg(start)}
	if count > 0 {
		args = append(args, arg("COUNT"), argInt(count))
	}
	res, err := c.exec(ctx, "XAUTOCLAIM", args...)
	if err != nil {
		return nil, err
	}
	items, err := toSlice(res)
	if err != nil {
		return nil, err
	}
	if len(items) < 2 {
		return nil, errMalformedReply("XAUTOCLAIM", res)
	}
	result := &XAutoClaimResult{}
	if result.NextStart, err = toString(items[0]); err != nil {
		return nil, err
	}
	if result.Entries, err = toStreamEntries(items[1]); err != nil {
		return nil, err
	}
	if len(items) > 2 {
		if result.Deleted, err = toStringSlice(items[2]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// toStreamEntries parses an array of [id, [field, value, ...]] rows. Nil
// rows (trimmed entries inside XCLAIM replies) are skipped.
func toStreamEntries(v any) ([]StreamEntry, error) {
	items, err := toSlice(v)
	if err != nil || items == nil {
		return nil, err
	}
	out := make([]StreamEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		row, ok := item.([]any)
		if !ok || len(row) != 2 {
			return nil, fmt.Errorf("malformed stream entry %T", item)
		}
		id, err := toString(row[0])
		if err != nil {
			return nil, err
		}
		fields, err := toBytesMap(row[1])
		if err != nil {
			return nil, err
		}
		out = append(out, StreamEntry{ID: id, Fields: fields})
	}
	return out, nil
}

// toStreamResponse parses XREAD-style replies in both the RESP2 array form
// and the RESP3 map form.
func toStreamResponse(v any) (map[string][]StreamEntry, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string][]StreamEntry, len(val))
		for key, entries := range val {
			parsed, err := toStreamEntries(entries)
			if err != nil {
				return nil, fmt.Errorf("stream %q: %w", key, err)
			}
			out[key] = parsed
		}
		return out, nil
	case []any:
		out := make(map[string][]StreamEntry, len(val))
		for _, item := range val {
			row, ok := item.([]any)
			if !ok || len(row) != 2 {
				return nil, fmt.Errorf("malformed stream response %T", item)
			}
			key, err := toString(row[0])
			if err != nil {
				return nil, err
			}
			parsed, err := toStreamEntries(row[1])
			if err != nil {
				return nil, fmt.Errorf("stream %q: %w", key, err)
			}
			out[key] = parsed
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected reply type %T, want stream response", v)
}
