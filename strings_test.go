package talon

import (
	"bytes"
	"context"
	"testing"
	"time"
)

// =============================================================================
// Basic Get/Set
// =============================================================================

func TestSet(t *testing.T) {
	client, fc := newTestClient(t, "OK")
	if err := client.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	assertCmd(t, fc.lastCmd(), "SET", "k", "v")
}

func TestSetWithExpiration(t *testing.T) {
	client, fc := newTestClient(t, "OK")
	if err := client.Set(context.Background(), "k", []byte("v"), 10*time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	assertCmd(t, fc.lastCmd(), "SET", "k", "v", "EX", "10")
}

func TestSetWithMillisecondExpiration(t *testing.T) {
	client, fc := newTestClient(t, "OK")
	if err := client.Set(context.Background(), "k", []byte("v"), 1500*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	assertCmd(t, fc.lastCmd(), "SET", "k", "v", "PX", "1500")
}

func TestGet(t *testing.T) {
	client, _ := newTestClient(t, []byte("value"))
	v, err := client.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(v, []byte("value")) {
		t.Errorf("Get = %q, want %q", v, "value")
	}
}

func TestGetMissing(t *testing.T) {
	client, _ := newTestClient(t, nil)
	v, err := client.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != nil {
		t.Errorf("Missing key should return nil, got %q", v)
	}
}

func TestSetWithOptionsConditional(t *testing.T) {
	client, fc := newTestClient(t, nil)
	res, err := client.SetWithOptions(context.Background(), "k", []byte("v"), SetOptions{
		OnlyIfAbsent: true,
	})
	if err != nil {
		t.Fatalf("SetWithOptions failed: %v", err)
	}
	if res.Applied {
		t.Error("Nil reply means the condition failed, Applied should be false")
	}
	assertCmd(t, fc.lastCmd(), "SET", "k", "v", "NX")
}

func TestSetWithOptionsReturnOld(t *testing.T) {
	client, _ := newTestClient(t, []byte("old"))
	res, err := client.SetWithOptions(context.Background(), "k", []byte("new"), SetOptions{
		ReturnOldValue: true,
	})
	if err != nil {
		t.Fatalf("SetWithOptions failed: %v", err)
	}
	if !res.Applied {
		t.Error("Set with GET applied, want Applied true")
	}
	if !bytes.Equal(res.OldValue, []byte("old")) {
		t.Errorf("OldValue = %q, want %q", res.OldValue, "old")
	}
}

func TestSetOptionsConflict(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := client.SetWithOptions(context.Background(), "k", []byte("v"), SetOptions{
		OnlyIfExists: true,
		OnlyIfAbsent: true,
	})
	if err == nil {
		t.Error("Expected error for XX together with NX")
	}
}

// =============================================================================
// Multi-Key and Counters
// =============================================================================

func TestMGet(t *testing.T) {
	client, fc := newTestClient(t, []any{[]byte("a"), nil, []byte("c")})
	vals, err := client.MGet(context.Background(), "k1", "k2", "k3")
	if err != nil {
		t.Fatalf("MGet failed: %v", err)
	}
	if len(vals) != 3 {
		t.Fatalf("MGet returned %d values, want 3", len(vals))
	}
	if vals[1] != nil {
		t.Error("Missing key should be nil in MGet result")
	}
	assertCmd(t, fc.lastCmd(), "MGET", "k1", "k2", "k3")
}

func TestIncrBy(t *testing.T) {
	client, fc := newTestClient(t, int64(7))
	n, err := client.IncrBy(context.Background(), "counter", 3)
	if err != nil {
		t.Fatalf("IncrBy failed: %v", err)
	}
	if n != 7 {
		t.Errorf("IncrBy = %d, want 7", n)
	}
	assertCmd(t, fc.lastCmd(), "INCRBY", "counter", "3")
}

func TestIncrByFloat(t *testing.T) {
	client, _ := newTestClient(t, []byte("3.5"))
	n, err := client.IncrByFloat(context.Background(), "counter", 0.5)
	if err != nil {
		t.Fatalf("IncrByFloat failed: %v", err)
	}
	if n != 3.5 {
		t.Errorf("IncrByFloat = %v, want 3.5", n)
	}
}

func TestGetRange(t *testing.T) {
	client, fc := newTestClient(t, []byte("ell"))
	v, err := client.GetRange(context.Background(), "k", 1, 3)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if string(v) != "ell" {
		t.Errorf("GetRange = %q, want %q", v, "ell")
	}
	assertCmd(t, fc.lastCmd(), "GETRANGE", "k", "1", "3")
}
