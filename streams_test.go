package talon

import (
	"context"
	"testing"
	"time"
)

func TestXAdd(t *testing.T) {
	client, fc := newTestClient(t, []byte("1-1"))
	id, err := client.XAdd(context.Background(), "st", map[string][]byte{"f": []byte("v")})
	if err != nil {
		t.Fatalf("XAdd failed: %v", err)
	}
	if id != "1-1" {
		t.Errorf("XAdd id = %q, want 1-1", id)
	}
	assertCmd(t, fc.lastCmd(), "XADD", "st", "*", "f", "v")
}

func TestXAddWithTrim(t *testing.T) {
	client, fc := newTestClient(t, []byte("1-2"))
	_, err := client.XAddWithOptions(context.Background(), "st", map[string][]byte{"f": []byte("v")}, XAddOptions{
		ID:   "5-0",
		Trim: &StreamTrim{MaxLen: 1000, Approximate: true},
	})
	if err != nil {
		t.Fatalf("XAddWithOptions failed: %v", err)
	}
	assertCmd(t, fc.lastCmd(), "XADD", "st", "MAXLEN", "~", "1000", "5-0", "f", "v")
}

func TestStreamTrimLimitNeedsApproximate(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := client.XTrim(context.Background(), "st", StreamTrim{MaxLen: 10, Limit: 100})
	if err == nil {
		t.Error("Expected error for LIMIT without approximate trimming")
	}
}

func TestXRange(t *testing.T) {
	client, fc := newTestClient(t, []any{
		[]any{[]byte("1-1"), []any{[]byte("f"), []byte("v")}},
	})
	entries, err := client.XRange(context.Background(), "st", "-", "+", 0)
	if err != nil {
		t.Fatalf("XRange failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "1-1" || string(entries[0].Fields["f"]) != "v" {
		t.Errorf("XRange = %v", entries)
	}
	assertCmd(t, fc.lastCmd(), "XRANGE", "st", "-", "+")
}

func TestXReadArrayReply(t *testing.T) {
	client, fc := newTestClient(t, []any{
		[]any{
			[]byte("st"),
			[]any{[]any{[]byte("1-1"), []any{[]byte("f"), []byte("v")}}},
		},
	})
	res, err := client.XRead(context.Background(), map[string]string{"st": "0"}, XReadOptions{Count: 5})
	if err != nil {
		t.Fatalf("XRead failed: %v", err)
	}
	entries := res["st"]
	if len(entries) != 1 || entries[0].ID != "1-1" {
		t.Errorf("XRead = %v", res)
	}
	assertCmd(t, fc.lastCmd(), "XREAD", "COUNT", "5", "STREAMS", "st", "0")
}

func TestXReadMapReply(t *testing.T) {
	client, _ := newTestClient(t, map[string]any{
		"st": []any{[]any{[]byte("2-0"), []any{[]byte("a"), []byte("b")}}},
	})
	res, err := client.XRead(context.Background(), map[string]string{"st": "0"}, XReadOptions{})
	if err != nil {
		t.Fatalf("XRead failed: %v", err)
	}
	if len(res["st"]) != 1 || res["st"][0].ID != "2-0" {
		t.Errorf("XRead = %v", res)
	}
}

func TestXReadNoData(t *testing.T) {
	client, _ := newTestClient(t, nil)
	res, err := client.XRead(context.Background(), map[string]string{"st": "$"}, XReadOptions{})
	if err != nil {
		t.Fatalf("XRead failed: %v", err)
	}
	if res != nil {
		t.Errorf("XRead with no data = %v, want nil", res)
	}
}

func TestXGroupCreate(t *testing.T) {
	client, fc := newTestClient(t, "OK")
	if err := client.XGroupCreate(context.Background(), "st", "grp", "0", true); err != nil {
		t.Fatalf("XGroupCreate failed: %v", err)
	}
	assertCmd(t, fc.lastCmd(), "XGROUP CREATE", "st", "grp", "0", "MKSTREAM")
}

func TestXPendingSummary(t *testing.T) {
	client, _ := newTestClient(t, []any{
		int64(2),
		[]byte("1-1"),
		[]byte("1-2"),
		[]any{[]any{[]byte("c1"), []byte("2")}},
	})
	sum, err := client.XPending(context.Background(), "st", "grp")
	if err != nil {
		t.Fatalf("XPending failed: %v", err)
	}
	if sum.Count != 2 || sum.MinID != "1-1" || sum.MaxID != "1-2" || sum.Consumers["c1"] != 2 {
		t.Errorf("XPending = %+v", sum)
	}
}

func TestXPendingExtendedDefaults(t *testing.T) {
	client, fc := newTestClient(t, []any{
		[]any{[]byte("1-1"), []byte("c1"), int64(5000), int64(3)},
	})
	entries, err := client.XPendingExtended(context.Background(), "st", "grp", XPendingOptions{})
	if err != nil {
		t.Fatalf("XPendingExtended failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Idle != 5*time.Second || entries[0].DeliveryCount != 3 {
		t.Errorf("Entries = %+v", entries)
	}
	assertCmd(t, fc.lastCmd(), "XPENDING", "st", "grp", "-", "+", "10")
}

func TestXClaimJustID(t *testing.T) {
	client, fc := newTestClient(t, []any{[]byte("1-1"), []byte("1-2")})
	ids, err := client.XClaimJustID(context.Background(), "st", "grp", "c2", time.Minute, []string{"1-1", "1-2"}, XClaimOptions{})
	if err != nil {
		t.Fatalf("XClaimJustID failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "1-1" {
		t.Errorf("Claimed ids = %v", ids)
	}
	assertCmd(t, fc.lastCmd(), "XCLAIM", "st", "grp", "c2", "60000", "1-1", "1-2", "JUSTID")
}

func TestXAutoClaim(t *testing.T) {
	client, fc := newTestClient(t, []any{
		[]byte("0-0"),
		[]any{[]any{[]byte("1-1"), []any{[]byte("f"), []byte("v")}}},
		[]any{[]byte("9-9")},
	})
	res, err := client.XAutoClaim(context.Background(), "st", "grp", "c1", time.Second, "0-0", 10)
	if err != nil {
		t.Fatalf("XAutoClaim failed: %v", err)
	}
	if res.NextStart != "0-0" || len(res.Entries) != 1 || len(res.Deleted) != 1 {
		t.Errorf("XAutoClaim = %+v", res)
	}
	assertCmd(t, fc.lastCmd(), "XAUTOCLAIM", "st", "grp", "c1", "1000", "0-0", "COUNT", "10")
}
