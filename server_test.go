package talon

import (
	"context"
	"testing"
	"time"
)

func TestPing(t *testing.T) {
	client, _ := newTestClient(t, "PONG")
	res, err := client.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if res != "PONG" {
		t.Errorf("Ping = %q, want PONG", res)
	}
}

func TestPingWithMessage(t *testing.T) {
	client, fc := newTestClient(t, []byte("hello"))
	res, err := client.PingWithMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if res != "hello" {
		t.Errorf("Ping = %q, want hello", res)
	}
	assertCmd(t, fc.lastCmd(), "PING", "hello")
}

func TestInfoSections(t *testing.T) {
	client, fc := newTestClient(t, []byte("# Replication\r\nrole:master\r\n"))
	_, err := client.Info(context.Background(), "replication")
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	assertCmd(t, fc.lastCmd(), "INFO", "replication")
}

func TestFlushDBAsync(t *testing.T) {
	client, fc := newTestClient(t, "OK")
	if err := client.FlushDB(context.Background(), FlushAsync); err != nil {
		t.Fatalf("FlushDB failed: %v", err)
	}
	assertCmd(t, fc.lastCmd(), "FLUSHDB", "ASYNC")
}

func TestConfigGetFlatPairReply(t *testing.T) {
	client, fc := newTestClient(t, []any{[]byte("maxmemory"), []byte("0")})
	params, err := client.ConfigGet(context.Background(), "maxmemory")
	if err != nil {
		t.Fatalf("ConfigGet failed: %v", err)
	}
	if params["maxmemory"] != "0" {
		t.Errorf("ConfigGet = %v", params)
	}
	assertCmd(t, fc.lastCmd(), "CONFIG GET", "maxmemory")
}

func TestTime(t *testing.T) {
	client, _ := newTestClient(t, []any{[]byte("1700000000"), []byte("500000")})
	ts, err := client.Time(context.Background())
	if err != nil {
		t.Fatalf("Time failed: %v", err)
	}
	want := time.Unix(1700000000, 500000*int64(time.Microsecond))
	if !ts.Equal(want) {
		t.Errorf("Time = %v, want %v", ts, want)
	}
}

func TestClientGetNameUnset(t *testing.T) {
	client, _ := newTestClient(t, nil)
	name, err := client.ClientGetName(context.Background())
	if err != nil {
		t.Fatalf("ClientGetName failed: %v", err)
	}
	if name != "" {
		t.Errorf("ClientGetName = %q, want empty", name)
	}
}

// =============================================================================
// Routed Variants
// =============================================================================

func TestPingWithRouteSingle(t *testing.T) {
	client, _ := newTestClusterClient(t, "PONG")
	res, err := client.PingWithRoute(context.Background(), RandomRoute)
	if err != nil {
		t.Fatalf("PingWithRoute failed: %v", err)
	}
	if res.IsMulti() || res.Single() != "PONG" {
		t.Errorf("PingWithRoute = %+v", res)
	}
}

func TestDBSizeWithRouteAllPrimaries(t *testing.T) {
	client, _ := newTestClusterClient(t, map[string]any{
		"n1:7000": int64(10),
		"n2:7000": int64(20),
	})
	res, err := client.DBSizeWithRoute(context.Background(), AllPrimariesRoute)
	if err != nil {
		t.Fatalf("DBSizeWithRoute failed: %v", err)
	}
	if !res.IsMulti() {
		t.Fatal("Expected per-node value")
	}
	if res.Multi()["n2:7000"] != 20 {
		t.Errorf("DBSize map = %v", res.Multi())
	}
}

func TestTimeWithRouteRejectsMultiNode(t *testing.T) {
	client, _ := newTestClusterClient(t)
	if _, err := client.TimeWithRoute(context.Background(), AllNodesRoute); err == nil {
		t.Error("Expected error for multi-node TIME route")
	}
}
