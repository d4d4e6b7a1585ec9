package redisbridge

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talonkv/talon-go/core"
)

// ExecBatch implements core.Core. Non-atomic batches use a pipeline,
// atomic ones MULTI/EXEC. With RaiseOnError unset, per-command failures
// are returned in-place in the result slice.
func (b *Bridge) ExecBatch(ctx context.Context, batch core.BatchSpec, opts core.BatchOptions) ([]any, error) {
	if b.isClosed() {
		return nil, core.ErrClosedClient
	}
	if batch.Atomic && (opts.RetryServerError || opts.RetryConnError) {
		return nil, errors.New("redisbridge: retry options are not valid for atomic batches")
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.Timeout)*time.Millisecond)
		defer cancel()
	}

	target, err := b.batchTarget(ctx, opts.Route)
	if err != nil {
		return nil, err
	}

	var pipe redis.Pipeliner
	if batch.Atomic {
		pipe = target.TxPipeline()
	} else {
		pipe = target.Pipeline()
	}
	cmds := make([]*redis.Cmd, len(batch.Cmds))
	for i, c := range batch.Cmds {
		cmds[i] = pipe.Do(ctx, cmdArgv(c)...)
	}

	// Exec reports the first command error; per-command errors come off
	// the cmds themselves below.
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		if batch.Atomic || opts.RaiseOnError {
			return nil, classify(err)
		}
	}

	results := make([]any, len(cmds))
	for i, rc := range cmds {
		v, err := resultOf(rc)
		if err != nil && b.shouldRetry(err, opts) {
			v, err = b.Exec(ctx, batch.Cmds[i], opts.Route)
		}
		if err != nil {
			if opts.RaiseOnError {
				return nil, err
			}
			results[i] = err
			continue
		}
		results[i] = v
	}
	return results, nil
}

// batchTarget picks what the pipeline runs on. Only single-node routes can
// pin a batch; multi-node routes fall back to default routing.
func (b *Bridge) batchTarget(ctx context.Context, route core.Route) (doer, error) {
	if b.cluster == nil || route == nil || route.Multi() {
		return b.root(), nil
	}
	switch r := route.(type) {
	case core.ByAddressRoute:
		return b.addrClient(r.Addr())
	case core.SlotKeyRoute:
		return b.nodeForKey(ctx, r.SlotKey, r.SlotType)
	case core.SlotIDRoute:
		addr, err := b.addrForSlot(ctx, r.SlotID, r.SlotType)
		if err != nil {
			return nil, err
		}
		return b.addrClient(addr)
	}
	return b.root(), nil
}

func (b *Bridge) shouldRetry(err error, opts core.BatchOptions) bool {
	if opts.RetryConnError && isConnError(err) {
		return true
	}
	if opts.RetryServerError && isRetriableServerError(err) {
		return true
	}
	return false
}

func isConnError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var redisErr redis.Error
	return !errors.As(err, &redisErr)
}

func isRetriableServerError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "TRYAGAIN") ||
		strings.HasPrefix(msg, "MOVED") ||
		strings.HasPrefix(msg, "ASK") ||
		strings.HasPrefix(msg, "CLUSTERDOWN") ||
		strings.HasPrefix(msg, "LOADING")
}
