package talon

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/talonkv/talon-go/core"
)

// =============================================================================
// Test Core
// =============================================================================

// fakeCore records commands and serves canned replies, in order. When the
// reply queue is exhausted it returns nil.
type fakeCore struct {
	mu      sync.Mutex
	cmds    []core.Cmd
	routes  []core.Route
	replies []any
	errs    []error

	batches      []core.BatchSpec
	batchOpts    []core.BatchOptions
	batchReplies [][]any

	scripts map[string][]byte
	handler core.PushHandler

	scanReplies []scanReply
	removed     []string

	passwords []string
	closed    bool
}

type scanReply struct {
	next string
	keys []string
	err  error
}

func newFakeCore(replies ...any) *fakeCore {
	return &fakeCore{replies: replies, scripts: make(map[string][]byte)}
}

func (f *fakeCore) Exec(ctx context.Context, cmd core.Cmd, route core.Route) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	f.routes = append(f.routes, route)
	var reply any
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	return reply, err
}

func (f *fakeCore) ExecBatch(ctx context.Context, batch core.BatchSpec, opts core.BatchOptions) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	f.batchOpts = append(f.batchOpts, opts)
	if len(f.batchReplies) > 0 {
		r := f.batchReplies[0]
		f.batchReplies = f.batchReplies[1:]
		return r, nil
	}
	return make([]any, len(batch.Cmds)), nil
}

func (f *fakeCore) StoreScript(code []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sha := "sha-of-" + string(code[:min(8, len(code))])
	f.scripts[sha] = code
	return sha, nil
}

func (f *fakeCore) DropScript(sha string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scripts, sha)
	return nil
}

func (f *fakeCore) InvokeScript(ctx context.Context, sha string, keys, args [][]byte, route core.Route) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scripts[sha]; !ok {
		return nil, errors.New("unknown script")
	}
	var reply any
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeCore) ClusterScan(ctx context.Context, cursor string, opts core.ScanOptions) (string, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.scanReplies) == 0 {
		return core.ScanFinishedCursor, nil, nil
	}
	r := f.scanReplies[0]
	f.scanReplies = f.scanReplies[1:]
	return r.next, r.keys, r.err
}

func (f *fakeCore) RemoveScanCursor(cursor string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, cursor)
}

func (f *fakeCore) Subscribe(handler core.PushHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
	return nil
}

func (f *fakeCore) UpdateConnectionPassword(ctx context.Context, password string, immediateAuth bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords = append(f.passwords, password)
	return nil
}

func (f *fakeCore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeCore) lastCmd() core.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cmds) == 0 {
		return core.Cmd{}
	}
	return f.cmds[len(f.cmds)-1]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// newTestClient wires a standalone client over a fakeCore.
func newTestClient(t *testing.T, replies ...any) (*Client, *fakeCore) {
	t.Helper()
	fc := newFakeCore(replies...)
	client, err := WithCoreClient(fc, testConfig())
	if err != nil {
		t.Fatalf("Failed to build client: %v", err)
	}
	return client, fc
}

func newTestClusterClient(t *testing.T, replies ...any) (*ClusterClient, *fakeCore) {
	t.Helper()
	fc := newFakeCore(replies...)
	client, err := WithClusterCoreClient(fc, testConfig())
	if err != nil {
		t.Fatalf("Failed to build cluster client: %v", err)
	}
	return client, fc
}

func testConfig() ClientConfig {
	cfg := DefaultConfig()
	cfg.Addresses = []string{"localhost:6379"}
	return cfg
}

// assertCmd checks the name and string form of the arguments of a recorded
// command.
func assertCmd(t *testing.T, cmd core.Cmd, name string, args ...string) {
	t.Helper()
	if cmd.Name != name {
		t.Fatalf("Command name = %q, want %q", cmd.Name, name)
	}
	if len(cmd.Args) != len(args) {
		t.Fatalf("%s arg count = %d, want %d (%q)", name, len(cmd.Args), len(args), cmd.Args)
	}
	for i, want := range args {
		if string(cmd.Args[i]) != want {
			t.Errorf("%s arg[%d] = %q, want %q", name, i, cmd.Args[i], want)
		}
	}
}

// =============================================================================
// Client Lifecycle
// =============================================================================

func TestCloseIdempotent(t *testing.T) {
	client, fc := newTestClient(t)
	if err := client.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
	if !fc.closed {
		t.Error("Core was not closed")
	}
}

func TestCommandsAfterCloseFail(t *testing.T) {
	client, _ := newTestClient(t)
	client.Close()
	if _, err := client.Get(context.Background(), "k"); !errors.Is(err, ErrClosedClient) {
		t.Errorf("Get after close = %v, want ErrClosedClient", err)
	}
}

func TestNewClientRejectsClusterConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ClusterMode = true
	if _, err := WithCoreClient(newFakeCore(), cfg); err == nil {
		t.Error("Expected error for cluster config on standalone constructor")
	}
}

func TestCustomCommand(t *testing.T) {
	client, fc := newTestClient(t, "PONG")
	res, err := client.CustomCommand(context.Background(), "PING")
	if err != nil {
		t.Fatalf("CustomCommand failed: %v", err)
	}
	if res != "PONG" {
		t.Errorf("Result = %v, want PONG", res)
	}
	assertCmd(t, fc.lastCmd(), "PING")
}

func TestCustomCommandEmpty(t *testing.T) {
	client, _ := newTestClient(t)
	if _, err := client.CustomCommand(context.Background()); err == nil {
		t.Error("Expected error for empty command")
	}
}

func TestCustomCommandWithRouteMulti(t *testing.T) {
	client, _ := newTestClusterClient(t, map[string]any{
		"node1:7000": "PONG",
		"node2:7000": "PONG",
	})
	res, err := client.CustomCommandWithRoute(context.Background(), AllPrimariesRoute, "PING")
	if err != nil {
		t.Fatalf("Routed command failed: %v", err)
	}
	if !res.IsMulti() {
		t.Fatal("Expected a multi-node value")
	}
	if len(res.Multi()) != 2 {
		t.Errorf("Node count = %d, want 2", len(res.Multi()))
	}
}

func TestUpdateConnectionPassword(t *testing.T) {
	client, fc := newTestClient(t)
	if err := client.UpdateConnectionPassword(context.Background(), "newpass", true); err != nil {
		t.Fatalf("UpdateConnectionPassword failed: %v", err)
	}
	if len(fc.passwords) != 1 || fc.passwords[0] != "newpass" {
		t.Errorf("Recorded passwords = %v", fc.passwords)
	}
	client.Close()
	if err := client.UpdateConnectionPassword(context.Background(), "again", false); !errors.Is(err, ErrClosedClient) {
		t.Errorf("After close = %v, want ErrClosedClient", err)
	}
}
