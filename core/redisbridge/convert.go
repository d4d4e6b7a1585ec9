package redisbridge

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/talonkv/talon-go/core"
)

// cmdArgv flattens a Cmd into go-redis Do arguments. Multi-word command
// names ("CONFIG GET") become separate leading tokens.
func cmdArgv(cmd core.Cmd) []interface{} {
	parts := strings.Fields(cmd.Name)
	argv := make([]interface{}, 0, len(parts)+len(cmd.Args))
	for _, p := range parts {
		argv = append(argv, p)
	}
	for _, a := range cmd.Args {
		argv = append(argv, a)
	}
	return argv
}

// resultOf extracts and normalizes a reply. A redis.Nil error becomes a
// plain nil value.
func resultOf(cmd *redis.Cmd) (any, error) {
	v, err := cmd.Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return normalize(v), nil
}

// classify maps a go-redis or transport error onto the boundary's error
// kinds. The original error stays reachable through Unwrap.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *core.CommandError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.WrapError(core.KindTimeout, err)
	}
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		if strings.HasPrefix(redisErr.Error(), "EXECABORT") {
			return core.WrapError(core.KindExecAbort, err)
		}
		return core.WrapError(core.KindUnspecified, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	// Anything that is neither a server reply nor a context error came
	// from the connection itself.
	return core.WrapError(core.KindDisconnect, err)
}

// normalize rewrites go-redis reply values into the boundary's reply
// shapes. The work is in maps: RESP3 map replies arrive keyed by
// interface{} and must become map[string]any with normalized values.
func normalize(v any) any {
	switch val := v.(type) {
	case []interface{}:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[keyString(k)] = normalize(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case int:
		return int64(val)
	default:
		return v
	}
}

func keyString(k any) string {
	switch key := k.(type) {
	case string:
		return key
	case []byte:
		return string(key)
	}
	return ""
}
