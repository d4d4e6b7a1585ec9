package redisbridge

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/talonkv/talon-go/core"
)

// scriptEntry is one body in the script container. Identical bodies share
// an entry; refs counts outstanding handles.
type scriptEntry struct {
	body []byte
	refs int
}

// StoreScript implements core.Core.
func (b *Bridge) StoreScript(code []byte) (string, error) {
	sum := sha1.Sum(code)
	sha := hex.EncodeToString(sum[:])

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", core.ErrClosedClient
	}
	if e, ok := b.scripts[sha]; ok {
		e.refs++
		return sha, nil
	}
	body := make([]byte, len(code))
	copy(body, code)
	b.scripts[sha] = &scriptEntry{body: body, refs: 1}
	return sha, nil
}

// DropScript implements core.Core. The body is forgotten once the last
// reference is dropped; unknown hashes are ignored.
func (b *Bridge) DropScript(sha string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.scripts[sha]
	if !ok {
		return nil
	}
	e.refs--
	if e.refs <= 0 {
		delete(b.scripts, sha)
	}
	return nil
}

func (b *Bridge) scriptBody(sha string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.scripts[sha]
	if !ok {
		return nil, false
	}
	return e.body, true
}

// InvokeScript implements core.Core. EVALSHA runs first; a NOSCRIPT
// rejection falls back to EVAL with the stored body, which also caches
// the script on the server for next time.
func (b *Bridge) InvokeScript(ctx context.Context, sha string, keys, args [][]byte, route core.Route) (any, error) {
	if b.isClosed() {
		return nil, core.ErrClosedClient
	}
	body, ok := b.scriptBody(sha)
	if !ok {
		return nil, fmt.Errorf("redisbridge: unknown script %s", sha)
	}

	res, err := b.Exec(ctx, evalCmd("EVALSHA", []byte(sha), keys, args), route)
	if err != nil && strings.Contains(err.Error(), "NOSCRIPT") {
		res, err = b.Exec(ctx, evalCmd("EVAL", body, keys, args), route)
	}
	return res, err
}

func evalCmd(name string, script []byte, keys, args [][]byte) core.Cmd {
	argv := make([][]byte, 0, 2+len(keys)+len(args))
	argv = append(argv, script, []byte(fmt.Sprintf("%d", len(keys))))
	argv = append(argv, keys...)
	argv = append(argv, args...)
	return core.NewCmd(name, argv...)
}
