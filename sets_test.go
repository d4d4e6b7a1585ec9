package talon

import (
	"context"
	"testing"
)

func TestSAddSMembers(t *testing.T) {
	client, fc := newTestClient(t, int64(2), []any{[]byte("a"), []byte("b")})
	n, err := client.SAdd(context.Background(), "s", []byte("a"), []byte("b"))
	if err != nil {
		t.Fatalf("SAdd failed: %v", err)
	}
	if n != 2 {
		t.Errorf("SAdd = %d, want 2", n)
	}
	members, err := client.SMembers(context.Background(), "s")
	if err != nil {
		t.Fatalf("SMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("SMembers returned %d members, want 2", len(members))
	}
	assertCmd(t, fc.lastCmd(), "SMEMBERS", "s")
}

func TestSMIsMember(t *testing.T) {
	client, fc := newTestClient(t, []any{int64(1), int64(0)})
	flags, err := client.SMIsMember(context.Background(), "s", []byte("a"), []byte("x"))
	if err != nil {
		t.Fatalf("SMIsMember failed: %v", err)
	}
	if len(flags) != 2 || !flags[0] || flags[1] {
		t.Errorf("SMIsMember = %v, want [true false]", flags)
	}
	assertCmd(t, fc.lastCmd(), "SMISMEMBER", "s", "a", "x")
}

func TestSInterCard(t *testing.T) {
	client, fc := newTestClient(t, int64(3))
	n, err := client.SInterCard(context.Background(), 5, "s1", "s2")
	if err != nil {
		t.Fatalf("SInterCard failed: %v", err)
	}
	if n != 3 {
		t.Errorf("SInterCard = %d, want 3", n)
	}
	assertCmd(t, fc.lastCmd(), "SINTERCARD", "2", "s1", "s2", "LIMIT", "5")
}

func TestSInterCardNoLimit(t *testing.T) {
	client, fc := newTestClient(t, int64(1))
	if _, err := client.SInterCard(context.Background(), 0, "s1", "s2"); err != nil {
		t.Fatalf("SInterCard failed: %v", err)
	}
	assertCmd(t, fc.lastCmd(), "SINTERCARD", "2", "s1", "s2")
}

func TestSMove(t *testing.T) {
	client, fc := newTestClient(t, int64(1))
	moved, err := client.SMove(context.Background(), "src", "dst", []byte("m"))
	if err != nil {
		t.Fatalf("SMove failed: %v", err)
	}
	if !moved {
		t.Error("SMove = false, want true")
	}
	assertCmd(t, fc.lastCmd(), "SMOVE", "src", "dst", "m")
}

func TestSDiffStore(t *testing.T) {
	client, fc := newTestClient(t, int64(4))
	n, err := client.SDiffStore(context.Background(), "dest", "s1", "s2")
	if err != nil {
		t.Fatalf("SDiffStore failed: %v", err)
	}
	if n != 4 {
		t.Errorf("SDiffStore = %d, want 4", n)
	}
	assertCmd(t, fc.lastCmd(), "SDIFFSTORE", "dest", "s1", "s2")
}

func TestSScan(t *testing.T) {
	client, fc := newTestClient(t, []any{
		[]byte("0"),
		[]any{[]byte("a"), []byte("b")},
	})
	next, members, err := client.SScan(context.Background(), "s", "0", ScanOptions{Count: 100})
	if err != nil {
		t.Fatalf("SScan failed: %v", err)
	}
	if next != "0" {
		t.Errorf("Cursor = %q, want 0", next)
	}
	if len(members) != 2 {
		t.Errorf("SScan returned %d members, want 2", len(members))
	}
	assertCmd(t, fc.lastCmd(), "SSCAN", "s", "0", "COUNT", "100")
}
