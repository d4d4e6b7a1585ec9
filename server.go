package talon

import (
	"context"
	"time"

	"github.com/talonkv/talon-go/core"
)

// -----------------------------------------------------------------------------
// Server Management
// -----------------------------------------------------------------------------

// Ping checks liveness and returns "PONG".
func (c *baseClient) Ping(ctx context.Context) (string, error) {
	res, err := c.exec(ctx, "PING")
	if err != nil {
		return "", err
	}
	return toString(res)
}

// PingWithMessage checks liveness and echoes message back.
func (c *baseClient) PingWithMessage(ctx context.Context, message string) (string, error) {
	res, err := c.exec(ctx, "PING", arg(message))
	if err != nil {
		return "", err
	}
	return toString(res)
}

// Echo returns message unchanged.
func (c *baseClient) Echo(ctx context.Context, message string) (string, error) {
	res, err := c.exec(ctx, "ECHO", arg(message))
	if err != nil {
		return "", err
	}
	return toString(res)
}

// Select switches the connection to another logical database. Not
// available in cluster mode.
func (c *Client) Select(ctx context.Context, db int) error {
	res, err := c.exec(ctx, "SELECT", argInt(int64(db)))
	if err != nil {
		return err
	}
	return toOK(res)
}

// Info returns the server information and statistics text.
func (c *baseClient) Info(ctx context.Context, sections ...string) (string, error) {
	res, err := c.exec(ctx, "INFO", stringsToArgs(sections)...)
	if err != nil {
		return "", err
	}
	return toString(res)
}

// DBSize returns the number of keys in the current database.
func (c *baseClient) DBSize(ctx context.Context) (int64, error) {
	res, err := c.exec(ctx, "DBSIZE")
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// FlushMode selects whether a flush blocks the server or runs in the
// background.
type FlushMode string

const (
	FlushSync  FlushMode = "SYNC"
	FlushAsync FlushMode = "ASYNC"
)

// FlushDB deletes every key of the current database.
func (c *baseClient) FlushDB(ctx context.Context, mode FlushMode) error {
	args := [][]byte{}
	if mode != "" {
		args = append(args, arg(string(mode)))
	}
	res, err := c.exec(ctx, "FLUSHDB", args...)
	if err != nil {
		return err
	}
	return toOK(res)
}

// FlushAll deletes every key of every database.
func (c *baseClient) FlushAll(ctx context.Context, mode FlushMode) error {
	args := [][]byte{}
	if mode != "" {
		args = append(args, arg(string(mode)))
	}
	res, err := c.exec(ctx, "FLUSHALL", args...)
	if err != nil {
		return err
	}
	return toOK(res)
}

// ConfigGet returns the matching configuration parameters.
func (c *baseClient) ConfigGet(ctx context.Context, parameters ...string) (map[string]string, error) {
	res, err := c.exec(ctx, "CONFIG GET", stringsToArgs(parameters)...)
	if err != nil {
		return nil, err
	}
	raw, err := toBytesMap(res)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = string(v)
	}
	return out, nil
}

// ConfigSet updates configuration parameters at runtime.
func (c *baseClient) ConfigSet(ctx context.Context, parameters map[string]string) error {
	args := make([][]byte, 0, len(parameters)*2)
	for k, v := range parameters {
		args = append(args, arg(k), arg(v))
	}
	res, err := c.exec(ctx, "CONFIG SET", args...)
	if err != nil {
		return err
	}
	return toOK(res)
}

// ConfigResetStat resets the INFO statistics counters.
func (c *baseClient) ConfigResetStat(ctx context.Context) error {
	res, err := c.exec(ctx, "CONFIG RESETSTAT")
	if err != nil {
		return err
	}
	return toOK(res)
}

// Time returns the server clock.
func (c *baseClient) Time(ctx context.Context) (time.Time, error) {
	res, err := c.exec(ctx, "TIME")
	if err != nil {
		return time.Time{}, err
	}
	items, err := toSlice(res)
	if err != nil {
		return time.Time{}, err
	}
	if len(items) != 2 {
		return time.Time{}, errMalformedReply("TIME", res)
	}
	var secText, usecText string
	if secText, err = toString(items[0]); err != nil {
		return time.Time{}, err
	}
	if usecText, err = toString(items[1]); err != nil {
		return time.Time{}, err
	}
	sec, err := parseInt(secText)
	if err != nil {
		return time.Time{}, err
	}
	usec, err := parseInt(usecText)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, usec*int64(time.Microsecond)), nil
}

// ClientID returns the server-side ID of this connection.
func (c *baseClient) ClientID(ctx context.Context) (int64, error) {
	res, err := c.exec(ctx, "CLIENT ID")
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ClientGetName returns the connection name, or "" when unset.
func (c *baseClient) ClientGetName(ctx context.Context) (string, error) {
	res, err := c.exec(ctx, "CLIENT GETNAME")
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", nil
	}
	return toString(res)
}

// -----------------------------------------------------------------------------
// Routed Variants
// -----------------------------------------------------------------------------

// PingWithRoute pings the nodes selected by route.
func (c *ClusterClient) PingWithRoute(ctx context.Context, route Route) (ClusterValue[string], error) {
	res, err := c.execRoute(ctx, route, "PING")
	if err != nil {
		return ClusterValue[string]{}, err
	}
	return clusterValueOf(res, route, toString)
}

// InfoWithRoute collects INFO from the nodes selected by route.
func (c *ClusterClient) InfoWithRoute(ctx context.Context, route Route, sections ...string) (ClusterValue[string], error) {
	res, err := c.execRoute(ctx, route, "INFO", stringsToArgs(sections)...)
	if err != nil {
		return ClusterValue[string]{}, err
	}
	return clusterValueOf(res, route, toString)
}

// DBSizeWithRoute sums or reports key counts per the route.
func (c *ClusterClient) DBSizeWithRoute(ctx context.Context, route Route) (ClusterValue[int64], error) {
	res, err := c.execRoute(ctx, route, "DBSIZE")
	if err != nil {
		return ClusterValue[int64]{}, err
	}
	return clusterValueOf(res, route, toInt64)
}

// FlushAllWithRoute flushes the nodes selected by route.
func (c *ClusterClient) FlushAllWithRoute(ctx context.Context, route Route, mode FlushMode) error {
	args := [][]byte{}
	if mode != "" {
		args = append(args, arg(string(mode)))
	}
	_, err := c.execRoute(ctx, route, "FLUSHALL", args...)
	return err
}

// ConfigGetWithRoute reads configuration from the nodes selected by route.
func (c *ClusterClient) ConfigGetWithRoute(ctx context.Context, route Route, parameters ...string) (ClusterValue[map[string]string], error) {
	res, err := c.execRoute(ctx, route, "CONFIG GET", stringsToArgs(parameters)...)
	if err != nil {
		return ClusterValue[map[string]string]{}, err
	}
	return clusterValueOf(res, route, func(v any) (map[string]string, error) {
		raw, err := toBytesMap(v)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(raw))
		for k, b := range raw {
			out[k] = string(b)
		}
		return out, nil
	})
}

// TimeWithRoute reads the clock of a single node selected by route.
func (c *ClusterClient) TimeWithRoute(ctx context.Context, route core.Route) (time.Time, error) {
	if route != nil && route.Multi() {
		return time.Time{}, errMultiNodeRoute("TIME")
	}
	res, err := c.execRoute(ctx, route, "TIME")
	if err != nil {
		return time.Time{}, err
	}
	items, err := toSlice(res)
	if err != nil || len(items) != 2 {
		return time.Time{}, errMalformedReply("TIME", res)
	}
	secText, _ := toString(items[0])
	usecText, _ := toString(items[1])
	sec, err := parseInt(secText)
	if err != nil {
		return time.Time{}, err
	}
	usec, err := parseInt(usecText)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, usec*int64(time.Microsecond)), nil
}
