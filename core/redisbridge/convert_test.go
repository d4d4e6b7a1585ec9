package redisbridge

import (
	"context"
	"errors"
	"net"
	"reflect"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/talonkv/talon-go/core"
)

func TestCmdArgvSplitsMultiWordNames(t *testing.T) {
	cmd := core.NewCmd("CONFIG GET", []byte("maxmemory"))
	argv := cmdArgv(cmd)
	if len(argv) != 3 {
		t.Fatalf("argv length = %d, want 3", len(argv))
	}
	if argv[0] != "CONFIG" || argv[1] != "GET" {
		t.Errorf("argv = %v", argv)
	}
}

func TestNormalizeNestedArrays(t *testing.T) {
	in := []interface{}{
		"a",
		[]interface{}{int64(1), "b"},
	}
	out := normalize(in).([]any)
	inner := out[1].([]any)
	if inner[0] != int64(1) || inner[1] != "b" {
		t.Errorf("Normalized = %v", out)
	}
}

func TestNormalizeInterfaceKeyedMap(t *testing.T) {
	in := map[interface{}]interface{}{
		"field": "value",
		"count": int64(3),
	}
	out := normalize(in).(map[string]any)
	if out["field"] != "value" || out["count"] != int64(3) {
		t.Errorf("Normalized = %v", out)
	}
}

func TestNormalizeMapInsideArray(t *testing.T) {
	in := []interface{}{
		map[interface{}]interface{}{"k": int64(1)},
	}
	out := normalize(in).([]any)
	m, ok := out[0].(map[string]any)
	if !ok || m["k"] != int64(1) {
		t.Errorf("Normalized = %#v", out)
	}
}

func TestNormalizeIntWidening(t *testing.T) {
	if got := normalize(7); got != int64(7) {
		t.Errorf("normalize(int) = %T %v, want int64", got, got)
	}
}

func TestNormalizeScalarsPassThrough(t *testing.T) {
	for _, v := range []any{nil, true, int64(5), 1.5, "s", []byte("b")} {
		if got := normalize(v); !reflect.DeepEqual(got, v) {
			t.Errorf("normalize(%v) = %v", v, got)
		}
	}
}

// serverError stands in for a reply error coming off the wire.
type serverError string

func (e serverError) Error() string { return string(e) }
func (e serverError) RedisError()   {}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyDialFailure(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	err := classify(dialErr)
	if core.KindOf(err) != core.KindDisconnect {
		t.Errorf("KindOf = %v, want disconnect", core.KindOf(err))
	}
	var op *net.OpError
	if !errors.As(err, &op) {
		t.Error("Classified error should still unwrap to the dial failure")
	}
}

func TestClassifyTimeouts(t *testing.T) {
	if core.KindOf(classify(context.DeadlineExceeded)) != core.KindTimeout {
		t.Error("DeadlineExceeded should classify as timeout")
	}
	if core.KindOf(classify(timeoutError{})) != core.KindTimeout {
		t.Error("Network timeout should classify as timeout")
	}
}

func TestClassifyServerErrors(t *testing.T) {
	err := classify(serverError("EXECABORT Transaction discarded because of previous errors."))
	if core.KindOf(err) != core.KindExecAbort {
		t.Errorf("KindOf = %v, want exec abort", core.KindOf(err))
	}
	err = classify(serverError("WRONGTYPE Operation against a key"))
	if core.KindOf(err) != core.KindUnspecified {
		t.Errorf("KindOf = %v, want unspecified", core.KindOf(err))
	}
	var redisErr redis.Error
	if !errors.As(err, &redisErr) {
		t.Error("Classified server error should still unwrap to redis.Error")
	}
	if isConnError(err) {
		t.Error("Classified server error should not look like a connection error")
	}
}

func TestClassifyPassesThroughCancellation(t *testing.T) {
	if classify(context.Canceled) != context.Canceled {
		t.Error("context.Canceled should pass through unclassified")
	}
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}

func TestIsRetriableServerError(t *testing.T) {
	retriable := []string{"TRYAGAIN multiple keys", "MOVED 1 n:1", "CLUSTERDOWN the cluster is down", "LOADING"}
	for _, msg := range retriable {
		if !isRetriableServerError(errors.New(msg)) {
			t.Errorf("%q should be retriable", msg)
		}
	}
	if isRetriableServerError(errors.New("WRONGTYPE Operation against a key")) {
		t.Error("WRONGTYPE should not be retriable")
	}
}
