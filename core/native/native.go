//go:build talon_native

package native

/*
#cgo LDFLAGS: -ltalon_core
#include <stdlib.h>
#include <stdint.h>
#include <talon_core.h>

extern void talonGoComplete(uintptr_t handle, const TalonValue *value, const TalonError *error);
extern void talonGoPush(uintptr_t client, const TalonPush *push);
*/
import "C"

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/talonkv/talon-go/core"
)

// Config carries the connection parameters serialized across the ABI.
type Config struct {
	Addresses           []string
	ClusterMode         bool
	UseTLS              bool
	InsecureSkipVerify  bool
	Username            string
	Password            string
	DatabaseID          int
	ClientName          string
	Protocol            int
	RequestTimeoutMs    int64
	ConnectionTimeoutMs int64
	LazyConnect         bool
	Channels            []string
	Patterns            []string
	ShardedChannels     []string
}

// pending is one in-flight request awaiting its completion callback.
type pending struct {
	done chan struct{}
	val  any
	err  error
}

// Client is the cgo-backed core.
type Client struct {
	ptr    unsafe.Pointer
	handle cgo.Handle

	mu      sync.Mutex
	closed  bool
	handler core.PushHandler
	scripts map[string][]byte
}

var _ core.Core = (*Client)(nil)

// New opens a native client. The shared library dials asynchronously; New
// blocks until the connection callback fires or fails.
func New(cfg Config) (*Client, error) {
	c := &Client{scripts: make(map[string][]byte)}
	c.handle = cgo.NewHandle(c)

	req := buildConnectionRequest(cfg)
	defer freeConnectionRequest(req)

	p := newPending()
	ptr := C.talon_create_client(req, C.uintptr_t(p.handle),
		(C.TalonCompleteFn)(C.talonGoComplete),
		C.uintptr_t(c.handle),
		(C.TalonPushFn)(C.talonGoPush))
	if ptr == nil {
		// The library never scheduled the completion, so the handle is
		// ours to release.
		p.handle.Delete()
		c.handle.Delete()
		return nil, fmt.Errorf("native: client allocation failed")
	}
	<-p.p.done
	if p.p.err != nil {
		C.talon_close_client(ptr)
		c.handle.Delete()
		return nil, p.p.err
	}
	c.ptr = ptr
	return c, nil
}

// pendingHandle pairs a pending with its cgo handle. The handle stays
// valid until the completion callback fires: callers that give up on a
// request (ctx cancellation) must not delete it, because the library
// still holds the handle and will invoke talonGoComplete with it.
type pendingHandle struct {
	p      *pending
	handle cgo.Handle
}

func newPending() pendingHandle {
	p := &pending{done: make(chan struct{})}
	return pendingHandle{p: p, handle: cgo.NewHandle(p)}
}

//export talonGoComplete
func talonGoComplete(handle C.uintptr_t, value *C.TalonValue, cerr *C.TalonError) {
	if cerr != nil {
		resolve(cgo.Handle(handle), nil, decodeError(cerr))
		return
	}
	resolve(cgo.Handle(handle), decodeValue(value), nil)
}

// resolve completes a pending and releases its handle. The completion is
// the handle's single owner: deleting here, rather than in the caller,
// keeps a request abandoned on ctx cancellation from invalidating a
// handle the library is about to use.
func resolve(h cgo.Handle, val any, err error) {
	p := h.Value().(*pending)
	p.val = val
	p.err = err
	close(p.done)
	h.Delete()
}

//export talonGoPush
func talonGoPush(client C.uintptr_t, push *C.TalonPush) {
	c := cgo.Handle(client).Value().(*Client)
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler == nil {
		return
	}
	handler(core.PushMessage{
		Kind:    core.PushKind(push.kind),
		Channel: C.GoString(push.channel),
		Pattern: C.GoString(push.pattern),
		Payload: C.GoBytes(unsafe.Pointer(push.payload), C.int(push.payload_len)),
	})
}

// Exec implements core.Core.
func (c *Client) Exec(ctx context.Context, cmd core.Cmd, route core.Route) (any, error) {
	if c.isClosed() {
		return nil, core.ErrClosedClient
	}
	p := newPending()

	creq := buildCommandRequest(cmd, route)
	defer freeCommandRequest(creq)
	C.talon_command(c.ptr, creq, C.uintptr_t(p.handle))
	return c.await(ctx, p.p)
}

// ExecBatch implements core.Core.
func (c *Client) ExecBatch(ctx context.Context, batch core.BatchSpec, opts core.BatchOptions) ([]any, error) {
	if c.isClosed() {
		return nil, core.ErrClosedClient
	}
	p := newPending()

	breq := buildBatchRequest(batch, opts)
	defer freeBatchRequest(breq)
	C.talon_batch(c.ptr, breq, C.uintptr_t(p.handle))
	raw, err := c.await(ctx, p.p)
	if err != nil {
		return nil, err
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("native: batch reply is %T, want array", raw)
	}
	return items, nil
}

// StoreScript implements core.Core. The body also registers in the shared
// library's script container so invocation by hash works after reconnects.
func (c *Client) StoreScript(code []byte) (string, error) {
	if c.isClosed() {
		return "", core.ErrClosedClient
	}
	sum := sha1.Sum(code)
	sha := hex.EncodeToString(sum[:])

	c.mu.Lock()
	_, known := c.scripts[sha]
	c.scripts[sha] = code
	c.mu.Unlock()
	if !known {
		cBody := C.CBytes(code)
		defer C.free(cBody)
		C.talon_store_script(c.ptr, (*C.uint8_t)(cBody), C.size_t(len(code)))
	}
	return sha, nil
}

// DropScript implements core.Core.
func (c *Client) DropScript(sha string) error {
	c.mu.Lock()
	delete(c.scripts, sha)
	c.mu.Unlock()
	cSha := C.CString(sha)
	defer C.free(unsafe.Pointer(cSha))
	C.talon_drop_script(c.ptr, cSha)
	return nil
}

// InvokeScript implements core.Core.
func (c *Client) InvokeScript(ctx context.Context, sha string, keys, args [][]byte, route core.Route) (any, error) {
	if c.isClosed() {
		return nil, core.ErrClosedClient
	}
	p := newPending()

	sreq := buildScriptRequest(sha, keys, args, route)
	defer freeScriptRequest(sreq)
	C.talon_invoke_script(c.ptr, sreq, C.uintptr_t(p.handle))
	return c.await(ctx, p.p)
}

// ClusterScan implements core.Core.
func (c *Client) ClusterScan(ctx context.Context, cursor string, opts core.ScanOptions) (string, []string, error) {
	if c.isClosed() {
		return "", nil, core.ErrClosedClient
	}
	p := newPending()

	sreq := buildScanRequest(cursor, opts)
	defer freeScanRequest(sreq)
	C.talon_cluster_scan(c.ptr, sreq, C.uintptr_t(p.handle))
	raw, err := c.await(ctx, p.p)
	if err != nil {
		return "", nil, err
	}
	pair, ok := raw.([]any)
	if !ok || len(pair) != 2 {
		return "", nil, fmt.Errorf("native: malformed scan reply %T", raw)
	}
	next, _ := pair[0].(string)
	items, _ := pair[1].([]any)
	keys := make([]string, 0, len(items))
	for _, it := range items {
		switch k := it.(type) {
		case string:
			keys = append(keys, k)
		case []byte:
			keys = append(keys, string(k))
		}
	}
	return next, keys, nil
}

// RemoveScanCursor implements core.Core.
func (c *Client) RemoveScanCursor(cursor string) {
	cCursor := C.CString(cursor)
	defer C.free(unsafe.Pointer(cCursor))
	C.talon_remove_scan_cursor(cCursor)
}

// Subscribe implements core.Core. The push callback was wired at client
// creation; this only installs the Go-side handler.
func (c *Client) Subscribe(handler core.PushHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrClosedClient
	}
	c.handler = handler
	return nil
}

// UpdateConnectionPassword implements core.Core.
func (c *Client) UpdateConnectionPassword(ctx context.Context, password string, immediateAuth bool) error {
	if c.isClosed() {
		return core.ErrClosedClient
	}
	p := newPending()

	cPass := C.CString(password)
	defer C.free(unsafe.Pointer(cPass))
	C.talon_update_connection_password(c.ptr, cPass, C.bool(immediateAuth), C.uintptr_t(p.handle))
	_, err := c.await(ctx, p.p)
	return err
}

// Close implements core.Core. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.handler = nil
	c.mu.Unlock()

	C.talon_close_client(c.ptr)
	c.handle.Delete()
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// await blocks until the completion callback fires or ctx is done. On
// cancellation the pending is abandoned, not freed: its handle lives
// until the completion callback arrives and deletes it.
func (c *Client) await(ctx context.Context, p *pending) (any, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func decodeError(cerr *C.TalonError) error {
	kind := core.ErrorKind(cerr.kind)
	return core.NewCommandError(kind, C.GoString(cerr.message))
}

// decodeValue maps the library's tagged value union onto the boundary's
// normalized reply shapes.
func decodeValue(v *C.TalonValue) any {
	if v == nil {
		return nil
	}
	switch v.kind {
	case C.TALON_VALUE_NIL:
		return nil
	case C.TALON_VALUE_BOOL:
		return bool(C.talon_value_bool(v))
	case C.TALON_VALUE_INT:
		return int64(C.talon_value_int(v))
	case C.TALON_VALUE_DOUBLE:
		return float64(C.talon_value_double(v))
	case C.TALON_VALUE_STRING:
		var n C.size_t
		data := C.talon_value_string(v, &n)
		return C.GoBytes(unsafe.Pointer(data), C.int(n))
	case C.TALON_VALUE_ARRAY:
		n := int(C.talon_value_len(v))
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = decodeValue(C.talon_value_index(v, C.size_t(i)))
		}
		return out
	case C.TALON_VALUE_MAP:
		n := int(C.talon_value_len(v))
		out := make(map[string]any, n)
		for i := 0; i < n; i++ {
			var kn C.size_t
			key := C.talon_value_map_key(v, C.size_t(i), &kn)
			out[C.GoStringN(key, C.int(kn))] = decodeValue(C.talon_value_map_value(v, C.size_t(i)))
		}
		return out
	}
	return nil
}
