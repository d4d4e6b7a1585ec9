package talon

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBatchBuilder(t *testing.T) {
	b := NewBatch().
		Set("k", []byte("v")).
		Get("k").
		Incr("counter")
	if b.Len() != 3 {
		t.Fatalf("Batch length = %d, want 3", b.Len())
	}
}

func TestBatchExec(t *testing.T) {
	client, fc := newTestClient(t)
	fc.batchReplies = [][]any{{"OK", []byte("v")}}

	b := NewBatch().Set("k", []byte("v")).Get("k")
	results, err := client.Exec(context.Background(), b, BatchOptions{})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if len(results) != 2 || string(results[1].([]byte)) != "v" {
		t.Errorf("Results = %v", results)
	}
	if len(fc.batches) != 1 || fc.batches[0].Atomic {
		t.Errorf("Recorded batch = %+v", fc.batches)
	}
	spec := fc.batches[0]
	if spec.Cmds[0].Name != "SET" || spec.Cmds[1].Name != "GET" {
		t.Errorf("Batch commands = %v", spec.Cmds)
	}
}

func TestAtomicBatch(t *testing.T) {
	client, fc := newTestClient(t)
	b := NewAtomicBatch().Incr("c").Incr("c")
	if _, err := client.Exec(context.Background(), b, BatchOptions{}); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if !fc.batches[0].Atomic {
		t.Error("Batch should be atomic")
	}
}

func TestAtomicBatchRejectsRetryFlags(t *testing.T) {
	client, _ := newTestClient(t)
	b := NewAtomicBatch().Incr("c")
	if _, err := client.Exec(context.Background(), b, BatchOptions{RetryServerError: true}); err == nil {
		t.Error("Expected error for retry flag on atomic batch")
	}
}

func TestEmptyBatchRejected(t *testing.T) {
	client, _ := newTestClient(t)
	if _, err := client.Exec(context.Background(), NewBatch(), BatchOptions{}); err == nil {
		t.Error("Expected error for empty batch")
	}
}

func TestBatchAfterClose(t *testing.T) {
	client, _ := newTestClient(t)
	client.Close()
	b := NewBatch().Get("k")
	if _, err := client.Exec(context.Background(), b, BatchOptions{}); !errors.Is(err, ErrClosedClient) {
		t.Errorf("Exec after close = %v, want ErrClosedClient", err)
	}
}

func TestBatchOptionsTimeoutConversion(t *testing.T) {
	client, fc := newTestClient(t)
	b := NewBatch().Get("k")
	_, err := client.Exec(context.Background(), b, BatchOptions{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if fc.batchOpts[0].Timeout != 2000 {
		t.Errorf("Core timeout = %d ms, want 2000", fc.batchOpts[0].Timeout)
	}
}

func TestBatchTypedHelpersArgs(t *testing.T) {
	b := NewBatch().
		LPush("l", []byte("a"), []byte("b")).
		ZAdd("z", ZMemberScore{Member: []byte("m"), Score: 1.5}).
		Expire("k", 2*time.Second)
	if b.Len() != 3 {
		t.Fatalf("Batch length = %d, want 3", b.Len())
	}
	cmds := b.cmds
	if cmds[0].Name != "LPUSH" || len(cmds[0].Args) != 3 {
		t.Errorf("LPUSH cmd = %+v", cmds[0])
	}
	if cmds[1].Name != "ZADD" || string(cmds[1].Args[1]) != "1.5" {
		t.Errorf("ZADD cmd = %+v", cmds[1])
	}
	if cmds[2].Name != "PEXPIRE" || string(cmds[2].Args[1]) != "2000" {
		t.Errorf("PEXPIRE cmd = %+v", cmds[2])
	}
}
