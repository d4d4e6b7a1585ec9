package talon

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestLPushLRange(t *testing.T) {
	client, fc := newTestClient(t, int64(2), []any{[]byte("b"), []byte("a")})
	n, err := client.LPush(context.Background(), "l", []byte("a"), []byte("b"))
	if err != nil {
		t.Fatalf("LPush failed: %v", err)
	}
	if n != 2 {
		t.Errorf("LPush = %d, want 2", n)
	}
	assertCmd(t, fc.lastCmd(), "LPUSH", "l", "a", "b")

	got, err := client.LRange(context.Background(), "l", 0, -1)
	if err != nil {
		t.Fatalf("LRange failed: %v", err)
	}
	if len(got) != 2 || !bytes.Equal(got[0], []byte("b")) {
		t.Errorf("LRange = %v", got)
	}
	assertCmd(t, fc.lastCmd(), "LRANGE", "l", "0", "-1")
}

func TestLPopMissing(t *testing.T) {
	client, _ := newTestClient(t, nil)
	v, err := client.LPop(context.Background(), "empty")
	if err != nil {
		t.Fatalf("LPop failed: %v", err)
	}
	if v != nil {
		t.Errorf("LPop on empty list = %q, want nil", v)
	}
}

func TestLInsert(t *testing.T) {
	client, fc := newTestClient(t, int64(3))
	n, err := client.LInsert(context.Background(), "l", true, []byte("pivot"), []byte("x"))
	if err != nil {
		t.Fatalf("LInsert failed: %v", err)
	}
	if n != 3 {
		t.Errorf("LInsert = %d, want 3", n)
	}
	assertCmd(t, fc.lastCmd(), "LINSERT", "l", "BEFORE", "pivot", "x")
}

func TestLPosNotFound(t *testing.T) {
	client, _ := newTestClient(t, nil)
	_, ok, err := client.LPos(context.Background(), "l", []byte("missing"), LPosOptions{})
	if err != nil {
		t.Fatalf("LPos failed: %v", err)
	}
	if ok {
		t.Error("Missing element should report ok=false")
	}
}

func TestLPosWithRank(t *testing.T) {
	client, fc := newTestClient(t, int64(4))
	rank := int64(-1)
	pos, ok, err := client.LPos(context.Background(), "l", []byte("e"), LPosOptions{Rank: rank})
	if err != nil {
		t.Fatalf("LPos failed: %v", err)
	}
	if !ok || pos != 4 {
		t.Errorf("LPos = %d/%v, want 4/true", pos, ok)
	}
	assertCmd(t, fc.lastCmd(), "LPOS", "l", "e", "RANK", "-1")
}

func TestLMove(t *testing.T) {
	client, fc := newTestClient(t, []byte("v"))
	v, err := client.LMove(context.Background(), "src", "dst", ListLeft, ListRight)
	if err != nil {
		t.Fatalf("LMove failed: %v", err)
	}
	if string(v) != "v" {
		t.Errorf("LMove = %q, want v", v)
	}
	assertCmd(t, fc.lastCmd(), "LMOVE", "src", "dst", "LEFT", "RIGHT")
}

func TestBLPop(t *testing.T) {
	client, fc := newTestClient(t, []any{[]byte("l"), []byte("v")})
	popped, err := client.BLPop(context.Background(), 500*time.Millisecond, "l")
	if err != nil {
		t.Fatalf("BLPop failed: %v", err)
	}
	if popped == nil || popped.Key != "l" || string(popped.Value) != "v" {
		t.Errorf("BLPop = %+v", popped)
	}
	assertCmd(t, fc.lastCmd(), "BLPOP", "l", "0.5")
}

func TestBLPopTimeout(t *testing.T) {
	client, _ := newTestClient(t, nil)
	popped, err := client.BLPop(context.Background(), time.Second, "l")
	if err != nil {
		t.Fatalf("BLPop failed: %v", err)
	}
	if popped != nil {
		t.Errorf("Timed-out BLPop = %+v, want nil", popped)
	}
}
