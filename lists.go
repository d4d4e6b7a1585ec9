package talon

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// List Commands
// -----------------------------------------------------------------------------

// ListDirection selects an end of a list.
type ListDirection string

const (
	ListLeft  ListDirection = "LEFT"
	ListRight ListDirection = "RIGHT"
)

// LPush prepends values to the list at key and returns the new length.
func (c *baseClient) LPush(ctx context.Context, key string, values ...[]byte) (int64, error) {
	res, err := c.exec(ctx, "LPUSH", append([][]byte{arg(key)}, values...)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// RPush appends values to the list at key and returns the new length.
func (c *baseClient) RPush(ctx context.Context, key string, values ...[]byte) (int64, error) {
	res, err := c.exec(ctx, "RPUSH", append([][]byte{arg(key)}, values...)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// LPushX prepends values only when the list already exists.
func (c *baseClient) LPushX(ctx context.Context, key string, values ...[]byte) (int64, error) {
	res, err := c.exec(ctx, "LPUSHX", append([][]byte{arg(key)}, values...)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// RPushX appends values only when the list already exists.
func (c *baseClient) RPushX(ctx context.Context, key string, values ...[]byte) (int64, error) {
	res, err := c.exec(ctx, "RPUSHX", append([][]byte{arg(key)}, values...)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// LPop removes and returns the first element, or nil when the list is
// empty.
func (c *baseClient) LPop(ctx context.Context, key string) ([]byte, error) {
	res, err := c.exec(ctx, "LPOP", arg(key))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// LPopCount removes and returns up to count elements from the head.
func (c *baseClient) LPopCount(ctx context.Context, key string, count int64) ([][]byte, error) {
	res, err := c.exec(ctx, "LPOP", arg(key), argInt(count))
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// RPop removes and returns the last element, or nil when the list is empty.
func (c *baseClient) RPop(ctx context.Context, key string) ([]byte, error) {
	res, err := c.exec(ctx, "RPOP", arg(key))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// RPopCount removes and returns up to count elements from the tail.
func (c *baseClient) RPopCount(ctx context.Context, key string, count int64) ([][]byte, error) {
	res, err := c.exec(ctx, "RPOP", arg(key), argInt(count))
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// LLen returns the length of the list at key.
func (c *baseClient) LLen(ctx context.Context, key string) (int64, error) {
	res, err := c.exec(ctx, "LLEN", arg(key))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// LRange returns the elements between start and stop, inclusive.
func (c *baseClient) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	res, err := c.exec(ctx, "LRANGE", arg(key), argInt(start), argInt(stop))
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// LRem removes up to count occurrences of element and returns how many
// were removed. The sign of count selects the scan direction.
func (c *baseClient) LRem(ctx context.Context, key string, count int64, element []byte) (int64, error) {
	res, err := c.exec(ctx, "LREM", arg(key), argInt(count), element)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// LTrim trims the list to the elements between start and stop, inclusive.
func (c *baseClient) LTrim(ctx context.Context, key string, start, stop int64) error {
	res, err := c.exec(ctx, "LTRIM", arg(key), argInt(start), argInt(stop))
	if err != nil {
		return err
	}
	return toOK(res)
}

// LSet replaces the element at index.
func (c *baseClient) LSet(ctx context.Context, key string, index int64, element []byte) error {
	res, err := c.exec(ctx, "LSET", arg(key), argInt(index), element)
	if err != nil {
		return err
	}
	return toOK(res)
}

// LIndex returns the element at index, or nil when out of range.
func (c *baseClient) LIndex(ctx context.Context, key string, index int64) ([]byte, error) {
	res, err := c.exec(ctx, "LINDEX", arg(key), argInt(index))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// LInsert inserts element before or after pivot and returns the new list
// length, or -1 when pivot was not found.
func (c *baseClient) LInsert(ctx context.Context, key string, before bool, pivot, element []byte) (int64, error) {
	where := "AFTER"
	if before {
		where = "BEFORE"
	}
	res, err := c.exec(ctx, "LINSERT", arg(key), arg(where), pivot, element)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// LPosOptions refine LPos. Rank skips to the rank-th match (negative ranks
// search from the tail); MaxLen bounds the number of comparisons.
type LPosOptions struct {
	Rank   int64
	MaxLen int64
}

func (o LPosOptions) appendTo(args [][]byte) [][]byte {
	if o.Rank != 0 {
		args = append(args, arg("RANK"), argInt(o.Rank))
	}
	if o.MaxLen != 0 {
		args = append(args, arg("MAXLEN"), argInt(o.MaxLen))
	}
	return args
}

// LPos returns the index of the first match of element, with ok=false when
// not found.
func (c *baseClient) LPos(ctx context.Context, key string, element []byte, opts LPosOptions) (int64, bool, error) {
	args := opts.appendTo([][]byte{arg(key), element})
	res, err := c.exec(ctx, "LPOS", args...)
	if err != nil {
		return 0, false, err
	}
	if res == nil {
		return 0, false, nil
	}
	idx, err := toInt64(res)
	return idx, err == nil, err
}

// LPosCount returns the indexes of up to count matches of element.
func (c *baseClient) LPosCount(ctx context.Context, key string, element []byte, count int64, opts LPosOptions) ([]int64, error) {
	args := opts.appendTo([][]byte{arg(key), element})
	args = append(args, arg("COUNT"), argInt(count))
	res, err := c.exec(ctx, "LPOS", args...)
	if err != nil {
		return nil, err
	}
	items, err := toSlice(res)
	if err != nil || items == nil {
		return nil, err
	}
	out := make([]int64, len(items))
	for i, item := range items {
		n, err := toInt64(item)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// LMove atomically moves an element between lists and returns it, or nil
// when the source is empty.
func (c *baseClient) LMove(ctx context.Context, source, destination string, from, to ListDirection) ([]byte, error) {
	res, err := c.exec(ctx, "LMOVE", arg(source), arg(destination), arg(string(from)), arg(string(to)))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// PoppedElement is a blocking-pop result: the key the element came from and
// the element itself.
type PoppedElement struct {
	Key   string
	Value []byte
}

// BLPop blocks until an element is available at the head of one of the
// keys, or until timeout. A zero timeout blocks indefinitely; nil is
// returned on timeout.
func (c *baseClient) BLPop(ctx context.Context, timeout time.Duration, keys ...string) (*PoppedElement, error) {
	return c.blockingPop(ctx, "BLPOP", timeout, keys)
}

// BRPop is BLPop for the tail.
func (c *baseClient) BRPop(ctx context.Context, timeout time.Duration, keys ...string) (*PoppedElement, error) {
	return c.blockingPop(ctx, "BRPOP", timeout, keys)
}

func (c *baseClient) blockingPop(ctx context.Context, name string, timeout time.Duration, keys []string) (*PoppedElement, error) {
	args := append(stringsToArgs(keys), argFloat(timeout.Seconds()))
	res, err := c.exec(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	items, err := toSlice(res)
	if err != nil {
		return nil, err
	}
	if len(items) != 2 {
		return nil, errMalformedReply(name, res)
	}
	key, err := toString(items[0])
	if err != nil {
		return nil, err
	}
	val, err := toBytes(items[1])
	if err != nil {
		return nil, err
	}
	return &PoppedElement{Key: key, Value: val}, nil
}
