package redisbridge

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/talonkv/talon-go/core"
)

// scanState is the bridge-side state of one cluster-wide scan: a snapshot
// of the primary addresses plus the position within them. The snapshot
// keeps the scan stable across topology refreshes; keys on nodes added
// mid-scan are not guaranteed to be seen, matching SCAN semantics.
type scanState struct {
	nodes      []string
	nodeIndex  int
	nodeCursor uint64
}

// ClusterScan implements core.Core. Each call advances the scan by one
// SCAN step on the current node, moving to the next node when that node's
// cursor wraps to zero.
func (b *Bridge) ClusterScan(ctx context.Context, cursor string, opts core.ScanOptions) (string, []string, error) {
	if b.isClosed() {
		return "", nil, core.ErrClosedClient
	}
	if cursor == core.ScanFinishedCursor {
		return core.ScanFinishedCursor, nil, nil
	}

	state, id, err := b.scanStateFor(ctx, cursor)
	if err != nil {
		return "", nil, err
	}

	node, err := b.addrClient(state.nodes[state.nodeIndex])
	if err != nil {
		return "", nil, err
	}
	keys, next, err := b.scanStep(ctx, node, state.nodeCursor, opts)
	if err != nil {
		return "", nil, classify(err)
	}

	state.nodeCursor = next
	if next == 0 {
		state.nodeIndex++
	}
	if state.nodeIndex >= len(state.nodes) {
		b.mu.Lock()
		delete(b.scans, id)
		b.mu.Unlock()
		return core.ScanFinishedCursor, keys, nil
	}
	return id, keys, nil
}

// scanStateFor resolves a cursor to its state, minting a fresh registry
// entry for the initial "0" cursor.
func (b *Bridge) scanStateFor(ctx context.Context, cursor string) (*scanState, string, error) {
	if cursor != "0" {
		b.mu.Lock()
		state, ok := b.scans[cursor]
		b.mu.Unlock()
		if !ok {
			return nil, "", core.NewCommandError(core.KindUnspecified, "unknown or expired scan cursor "+cursor)
		}
		return state, cursor, nil
	}

	nodes, err := b.primaryAddrs(ctx)
	if err != nil {
		return nil, "", err
	}
	state := &scanState{nodes: nodes}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, "", core.ErrClosedClient
	}
	b.scanSeq++
	id := "scan-" + strconv.FormatUint(b.scanSeq, 16)
	b.scans[id] = state
	b.mu.Unlock()
	return state, id, nil
}

func (b *Bridge) primaryAddrs(ctx context.Context) ([]string, error) {
	if b.cluster == nil {
		return []string{b.cfg.Addresses[0]}, nil
	}
	var (
		addrs []string
		seen  = make(map[string]bool)
	)
	err := b.cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		addr := node.Options().Addr
		b.mu.Lock()
		if !seen[addr] {
			seen[addr] = true
			addrs = append(addrs, addr)
		}
		b.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return addrs, nil
}

func (b *Bridge) scanStep(ctx context.Context, node *redis.Client, cursor uint64, opts core.ScanOptions) ([]string, uint64, error) {
	if opts.Type != "" {
		return node.ScanType(ctx, cursor, opts.Match, opts.Count, opts.Type).Result()
	}
	return node.Scan(ctx, cursor, opts.Match, opts.Count).Result()
}

// RemoveScanCursor implements core.Core.
func (b *Bridge) RemoveScanCursor(cursor string) {
	b.mu.Lock()
	delete(b.scans, cursor)
	b.mu.Unlock()
}
