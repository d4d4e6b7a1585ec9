package talon

import (
	"context"
	"testing"
	"time"
)

func TestDel(t *testing.T) {
	client, fc := newTestClient(t, int64(2))
	n, err := client.Del(context.Background(), "a", "b", "c")
	if err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Del = %d, want 2", n)
	}
	assertCmd(t, fc.lastCmd(), "DEL", "a", "b", "c")
}

func TestExpireSeconds(t *testing.T) {
	client, fc := newTestClient(t, int64(1))
	ok, err := client.Expire(context.Background(), "k", 30*time.Second, ExpireAlways)
	if err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if !ok {
		t.Error("Expire = false, want true")
	}
	assertCmd(t, fc.lastCmd(), "EXPIRE", "k", "30")
}

func TestExpireSubSecondUsesPExpire(t *testing.T) {
	client, fc := newTestClient(t, int64(1))
	if _, err := client.Expire(context.Background(), "k", 1500*time.Millisecond, ExpireOnlyIfNone); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	assertCmd(t, fc.lastCmd(), "PEXPIRE", "k", "1500", "NX")
}

func TestTTLMissing(t *testing.T) {
	client, _ := newTestClient(t, int64(-2))
	_, ok, err := client.TTL(context.Background(), "nope")
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ok {
		t.Error("Missing key should report ok=false")
	}
}

func TestTTL(t *testing.T) {
	client, _ := newTestClient(t, int64(1500))
	ttl, ok, err := client.TTL(context.Background(), "k")
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if !ok || ttl != 1500*time.Millisecond {
		t.Errorf("TTL = %v/%v, want 1.5s/true", ttl, ok)
	}
}

func TestCopyWithOptions(t *testing.T) {
	client, fc := newTestClient(t, int64(1))
	db := 2
	ok, err := client.Copy(context.Background(), "src", "dst", CopyOptions{DestinationDB: &db, Replace: true})
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if !ok {
		t.Error("Copy = false, want true")
	}
	assertCmd(t, fc.lastCmd(), "COPY", "src", "dst", "DB", "2", "REPLACE")
}

func TestObjectEncodingMissing(t *testing.T) {
	client, _ := newTestClient(t, nil)
	_, ok, err := client.ObjectEncoding(context.Background(), "nope")
	if err != nil {
		t.Fatalf("ObjectEncoding failed: %v", err)
	}
	if ok {
		t.Error("Missing key should report ok=false")
	}
}

func TestScan(t *testing.T) {
	client, fc := newTestClient(t, []any{
		[]byte("17"),
		[]any{[]byte("k1"), []byte("k2")},
	})
	next, keys, err := client.Scan(context.Background(), "0", ScanOptions{Match: "k*", Type: "string"})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if next != "17" || len(keys) != 2 {
		t.Errorf("Scan = %q %v", next, keys)
	}
	assertCmd(t, fc.lastCmd(), "SCAN", "0", "MATCH", "k*", "TYPE", "string")
}

// =============================================================================
// Cluster Scan
// =============================================================================

func TestClusterScanLifecycle(t *testing.T) {
	client, fc := newTestClusterClient(t)
	fc.scanReplies = []scanReply{
		{next: "scan-1", keys: []string{"a"}},
		{next: "finished", keys: []string{"b"}},
	}

	cursor := NewClusterScanCursor()
	if cursor.Finished() {
		t.Fatal("Fresh cursor should not be finished")
	}

	cursor, keys, err := client.ScanWithCursor(context.Background(), cursor, ScanOptions{})
	if err != nil {
		t.Fatalf("First scan step failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "a" {
		t.Errorf("First step keys = %v", keys)
	}
	if cursor.Finished() {
		t.Fatal("Cursor should not be finished after first step")
	}

	cursor, keys, err = client.ScanWithCursor(context.Background(), cursor, ScanOptions{})
	if err != nil {
		t.Fatalf("Second scan step failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "b" {
		t.Errorf("Second step keys = %v", keys)
	}
	if !cursor.Finished() {
		t.Error("Cursor should be finished")
	}

	// Scanning past the end is a no-op.
	_, keys, err = client.ScanWithCursor(context.Background(), cursor, ScanOptions{})
	if err != nil || keys != nil {
		t.Errorf("Finished scan step = %v %v", keys, err)
	}
}

func TestClusterScanCursorCloseReleasesState(t *testing.T) {
	client, fc := newTestClusterClient(t)
	fc.scanReplies = []scanReply{{next: "scan-9", keys: nil}}

	cursor, _, err := client.ScanWithCursor(context.Background(), NewClusterScanCursor(), ScanOptions{})
	if err != nil {
		t.Fatalf("Scan step failed: %v", err)
	}
	cursor.Close()
	cursor.Close()
	if len(fc.removed) != 1 || fc.removed[0] != "scan-9" {
		t.Errorf("Removed cursors = %v, want exactly [scan-9]", fc.removed)
	}
}

func TestClusterScanCursorCloseInitialNoop(t *testing.T) {
	cursor := NewClusterScanCursor()
	cursor.Close()
	if cursor.Finished() {
		t.Error("Closed initial cursor should not report finished")
	}
}
