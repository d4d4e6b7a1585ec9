package talon

import (
	"context"
	"sync"

	"github.com/talonkv/talon-go/core"
)

// -----------------------------------------------------------------------------
// Scripting
// -----------------------------------------------------------------------------

// Script is a Lua script stored in the core's script container. Scripts
// with identical source share one container entry; Close releases this
// handle's reference and the source is dropped once the last handle is
// closed.
type Script struct {
	hash string
	core core.Core

	closeOnce sync.Once
}

// NewScript stores source in the core's script container and returns a
// handle keyed by the source's SHA1 digest.
func (c *baseClient) NewScript(source []byte) (*Script, error) {
	if c.closed.Load() {
		return nil, core.ErrClosedClient
	}
	hash, err := c.core.StoreScript(source)
	if err != nil {
		return nil, err
	}
	return &Script{hash: hash, core: c.core}, nil
}

// Hash returns the SHA1 digest identifying the script.
func (s *Script) Hash() string { return s.hash }

// Close releases this handle's container reference. Idempotent.
func (s *Script) Close() {
	s.closeOnce.Do(func() {
		s.core.DropScript(s.hash)
	})
}

// ScriptOptions carry the key and argument lists for script invocation.
// Keys participate in cluster routing; Args do not.
type ScriptOptions struct {
	Keys []string
	Args [][]byte
}

// InvokeScript runs script with the given keys and arguments. The core
// tries EVALSHA first and falls back to EVAL when the server has not yet
// cached the script.
func (c *baseClient) InvokeScript(ctx context.Context, script *Script, opts ScriptOptions) (any, error) {
	if c.closed.Load() {
		return nil, core.ErrClosedClient
	}
	return c.core.InvokeScript(ctx, script.hash, stringsToArgs(opts.Keys), opts.Args, nil)
}

// InvokeScriptWithRoute runs script on the nodes selected by route.
// Routed scripts take no keys; key-carrying scripts route by slot instead.
func (c *ClusterClient) InvokeScriptWithRoute(ctx context.Context, script *Script, args [][]byte, route Route) (ClusterValue[any], error) {
	if c.closed.Load() {
		return ClusterValue[any]{}, core.ErrClosedClient
	}
	raw, err := c.core.InvokeScript(ctx, script.hash, nil, args, route)
	if err != nil {
		return ClusterValue[any]{}, err
	}
	return clusterValueOf(raw, route, func(v any) (any, error) { return v, nil })
}

// ScriptExists reports, per digest, whether the server has the script
// cached.
func (c *baseClient) ScriptExists(ctx context.Context, hashes ...string) ([]bool, error) {
	res, err := c.exec(ctx, "SCRIPT EXISTS", stringsToArgs(hashes)...)
	if err != nil {
		return nil, err
	}
	items, err := toSlice(res)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(items))
	for i, it := range items {
		b, err := toBool(it)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// ScriptFlush clears the server-side script cache.
func (c *baseClient) ScriptFlush(ctx context.Context, mode FlushMode) error {
	args := [][]byte{}
	if mode != "" {
		args = append(args, arg(string(mode)))
	}
	res, err := c.exec(ctx, "SCRIPT FLUSH", args...)
	if err != nil {
		return err
	}
	return toOK(res)
}
