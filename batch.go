package talon

import (
	"context"
	"errors"
	"time"

	"github.com/talonkv/talon-go/core"
)

// -----------------------------------------------------------------------------
// Batches
// -----------------------------------------------------------------------------

// Batch accumulates commands for a single round trip. Atomic batches run
// inside MULTI/EXEC; non-atomic batches pipeline and may interleave with
// other clients. A Batch is not safe for concurrent use.
type Batch struct {
	cmds   []core.Cmd
	atomic bool
}

// NewBatch returns a pipelined (non-atomic) batch.
func NewBatch() *Batch { return &Batch{} }

// NewAtomicBatch returns a transactional batch.
func NewAtomicBatch() *Batch { return &Batch{atomic: true} }

// Len returns the number of queued commands.
func (b *Batch) Len() int { return len(b.cmds) }

// Cmd queues an arbitrary command.
func (b *Batch) Cmd(name string, args ...[]byte) *Batch {
	b.cmds = append(b.cmds, core.NewCmd(name, args...))
	return b
}

// Typed helpers for the common commands. Every helper is sugar over Cmd
// and returns the batch for chaining.

func (b *Batch) Get(key string) *Batch       { return b.Cmd("GET", arg(key)) }
func (b *Batch) Del(keys ...string) *Batch   { return b.Cmd("DEL", stringsToArgs(keys)...) }
func (b *Batch) Incr(key string) *Batch      { return b.Cmd("INCR", arg(key)) }
func (b *Batch) LLen(key string) *Batch      { return b.Cmd("LLEN", arg(key)) }
func (b *Batch) SCard(key string) *Batch     { return b.Cmd("SCARD", arg(key)) }
func (b *Batch) ZCard(key string) *Batch     { return b.Cmd("ZCARD", arg(key)) }
func (b *Batch) XLen(key string) *Batch      { return b.Cmd("XLEN", arg(key)) }
func (b *Batch) HGetAll(key string) *Batch   { return b.Cmd("HGETALL", arg(key)) }
func (b *Batch) Exists(keys ...string) *Batch {
	return b.Cmd("EXISTS", stringsToArgs(keys)...)
}

func (b *Batch) Set(key string, value []byte) *Batch {
	return b.Cmd("SET", arg(key), value)
}

func (b *Batch) HSet(key string, fields map[string][]byte) *Batch {
	args := [][]byte{arg(key)}
	for f, v := range fields {
		args = append(args, arg(f), v)
	}
	return b.Cmd("HSET", args...)
}

func (b *Batch) LPush(key string, elements ...[]byte) *Batch {
	return b.Cmd("LPUSH", append([][]byte{arg(key)}, elements...)...)
}

func (b *Batch) RPush(key string, elements ...[]byte) *Batch {
	return b.Cmd("RPUSH", append([][]byte{arg(key)}, elements...)...)
}

func (b *Batch) SAdd(key string, members ...[]byte) *Batch {
	return b.Cmd("SADD", append([][]byte{arg(key)}, members...)...)
}

func (b *Batch) ZAdd(key string, members ...ZMemberScore) *Batch {
	args := [][]byte{arg(key)}
	for _, m := range members {
		args = append(args, argFloat(m.Score), m.Member)
	}
	return b.Cmd("ZADD", args...)
}

func (b *Batch) Expire(key string, ttl time.Duration) *Batch {
	return b.Cmd("PEXPIRE", arg(key), argInt(ttl.Milliseconds()))
}

// BatchOptions refine batch execution.
type BatchOptions struct {
	// Timeout bounds the whole batch; zero uses the client default.
	Timeout time.Duration
	// Route pins a non-atomic cluster batch to specific nodes. Atomic
	// batches always route by their keys' slot.
	Route Route
	// RetryServerError retries commands rejected with a retriable server
	// error. Non-atomic batches only.
	RetryServerError bool
	// RetryConnError retries commands interrupted by a dropped
	// connection. Non-atomic batches only; the command may have already
	// applied.
	RetryConnError bool
	// RaiseOnError returns the first command failure as the batch error.
	// When false, failures surface in-place in the result slice as error
	// values.
	RaiseOnError bool
}

func (o BatchOptions) toCore() core.BatchOptions {
	return core.BatchOptions{
		Timeout:          o.Timeout.Milliseconds(),
		Route:            o.Route,
		RetryServerError: o.RetryServerError,
		RetryConnError:   o.RetryConnError,
		RaiseOnError:     o.RaiseOnError,
	}
}

// Exec runs the batch and returns one result per queued command, in
// order. An aborted atomic batch (WATCH conflict) returns a nil slice
// with no error.
func (c *baseClient) Exec(ctx context.Context, b *Batch, opts BatchOptions) ([]any, error) {
	if c.closed.Load() {
		return nil, core.ErrClosedClient
	}
	if b.Len() == 0 {
		return nil, errors.New("empty batch")
	}
	if b.atomic && (opts.RetryServerError || opts.RetryConnError) {
		return nil, errors.New("retry flags are not valid for atomic batches")
	}
	results, err := c.core.ExecBatch(ctx, core.BatchSpec{Cmds: b.cmds, Atomic: b.atomic}, opts.toCore())
	if err != nil {
		return nil, err
	}
	return results, nil
}
