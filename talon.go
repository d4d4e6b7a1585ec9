// Package talon is a Go client for Talon, a Valkey-compatible key-value
// store. The package exposes the full command surface (strings, hashes,
// lists, sets, sorted sets, streams, pub/sub, scripting, batches and key
// and server management) while connection handling, pipelining, cluster
// routing and protocol encoding live behind the core boundary (see the
// core package).
//
//	// Standalone
//	client, err := talon.NewClient(talon.WithAddresses("localhost:6379"))
//
//	// Cluster
//	cc, err := talon.NewClusterClient(
//	    talon.WithAddresses("node1:7000", "node2:7000"),
//	)
//
//	// Same command surface either way
//	client.Set(ctx, "key", []byte("value"), nil)
//	val, _ := client.Get(ctx, "key")
//
// Cluster-only operations (routed server commands, cluster scan) hang off
// ClusterClient and return ClusterValue results where a route can target
// multiple nodes.
package talon

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/talonkv/talon-go/core"
	"github.com/talonkv/talon-go/core/redisbridge"
)

// coreFactory builds the default core for a validated config.
var coreFactory = func(cfg ClientConfig) (core.Core, error) {
	return redisbridge.New(bridgeConfig(cfg))
}

// baseClient carries the state shared by Client and ClusterClient.
type baseClient struct {
	core   core.Core
	cfg    ClientConfig
	log    zerolog.Logger
	closed atomic.Bool

	queueOnce sync.Once
	queue     *MessageQueue
	queueErr  error
}

// Client is a standalone-mode client.
type Client struct {
	*baseClient
}

// ClusterClient is a cluster-mode client. It shares the whole command
// surface with Client and adds routed variants and the cluster scan.
type ClusterClient struct {
	*baseClient
}

// NewClient connects to a standalone server.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ClusterMode {
		return nil, fmt.Errorf("talon: use NewClusterClient for cluster mode")
	}
	base, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{base}, nil
}

// NewClusterClient connects to a cluster through the given seed nodes.
func NewClusterClient(opts ...Option) (*ClusterClient, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.ClusterMode = true
	base, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	return &ClusterClient{base}, nil
}

// NewClientFromConfig builds a standalone or cluster client from a loaded
// configuration, choosing by its ClusterMode flag. The second return value
// is non-nil exactly when the config is cluster mode.
func NewClientFromConfig(cfg ClientConfig) (*Client, *ClusterClient, error) {
	if cfg.ClusterMode {
		base, err := newBase(cfg)
		if err != nil {
			return nil, nil, err
		}
		return nil, &ClusterClient{base}, nil
	}
	base, err := newBase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return &Client{base}, nil, nil
}

// Connect parses a URL (see ParseURL) and opens a standalone client.
func Connect(url string, opts ...Option) (*Client, error) {
	cfg, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	base, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{base}, nil
}

// WithCoreClient wraps an already-built core. Used by the native backend
// and by tests.
func WithCoreClient(c core.Core, cfg ClientConfig) (*Client, error) {
	if cfg.ClusterMode {
		return nil, fmt.Errorf("talon: use WithClusterCoreClient for cluster mode")
	}
	return &Client{newBaseWithCore(c, cfg)}, nil
}

// WithClusterCoreClient wraps an already-built core in a cluster client.
func WithClusterCoreClient(c core.Core, cfg ClientConfig) (*ClusterClient, error) {
	cfg.ClusterMode = true
	return &ClusterClient{newBaseWithCore(c, cfg)}, nil
}

func newBase(cfg ClientConfig) (*baseClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cr, err := coreFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("talon: connect: %w", err)
	}
	base := newBaseWithCore(cr, cfg)
	base.log.Debug().
		Strs("addresses", cfg.Addresses).
		Bool("cluster", cfg.ClusterMode).
		Msg("client created")
	return base, nil
}

func newBaseWithCore(cr core.Core, cfg ClientConfig) *baseClient {
	return &baseClient{
		core: cr,
		cfg:  cfg,
		log:  Logger().With().Str("component", "client").Logger(),
	}
}

// Close shuts down the client and its core. It is idempotent.
func (c *baseClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.queue != nil {
		c.queue.Close()
	}
	err := c.core.Close()
	c.log.Debug().Msg("client closed")
	return err
}

// exec runs a single command without an explicit route.
func (c *baseClient) exec(ctx context.Context, name string, args ...[]byte) (any, error) {
	return c.execRoute(ctx, nil, name, args...)
}

// execRoute runs a single command with an explicit route.
func (c *baseClient) execRoute(ctx context.Context, route core.Route, name string, args ...[]byte) (any, error) {
	if c.closed.Load() {
		return nil, core.ErrClosedClient
	}
	res, err := c.core.Exec(ctx, core.NewCmd(name, args...), route)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

// CustomCommand sends an arbitrary command. The first argument is the
// command name; the rest are passed through verbatim. The reply is returned
// in the core's normalized form.
func (c *baseClient) CustomCommand(ctx context.Context, args ...string) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("talon: empty command")
	}
	return c.exec(ctx, args[0], stringsToArgs(args[1:])...)
}

// CustomCommandWithRoute sends an arbitrary command to the routed node(s).
func (c *ClusterClient) CustomCommandWithRoute(ctx context.Context, route Route, args ...string) (ClusterValue[any], error) {
	if len(args) == 0 {
		return ClusterValue[any]{}, fmt.Errorf("talon: empty command")
	}
	res, err := c.execRoute(ctx, route, args[0], stringsToArgs(args[1:])...)
	if err != nil {
		return ClusterValue[any]{}, err
	}
	return clusterValueOf(res, route, func(v any) (any, error) { return v, nil })
}

// UpdateConnectionPassword replaces the password used when reconnecting.
// With immediateAuth the core re-authenticates existing connections too.
func (c *baseClient) UpdateConnectionPassword(ctx context.Context, password string, immediateAuth bool) error {
	if c.closed.Load() {
		return core.ErrClosedClient
	}
	return c.core.UpdateConnectionPassword(ctx, password, immediateAuth)
}

func bridgeConfig(cfg ClientConfig) redisbridge.Config {
	log := Logger().With().Str("component", "redisbridge").Logger()
	return redisbridge.Config{
		Logger:             &log,
		Addresses:          cfg.Addresses,
		ClusterMode:        cfg.ClusterMode,
		UseTLS:             cfg.UseTLS,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Username:           cfg.Username,
		Password:           cfg.Password,
		DatabaseID:         cfg.DatabaseID,
		ClientName:         cfg.ClientName,
		Protocol:           int(cfg.Protocol),
		RequestTimeout:     cfg.RequestTimeout,
		ConnectionTimeout:  cfg.ConnectionTimeout,
		PreferReplicaReads: cfg.ReadFrom != "" && cfg.ReadFrom != ReadFromPrimary,
		MaxRetries:         cfg.Retry.Retries,
		RetryBase:          cfg.Retry.Base,
		LazyConnect:        cfg.LazyConnect,
		Channels:           cfg.Subscriptions.Channels,
		Patterns:           cfg.Subscriptions.Patterns,
		ShardedChannels:    cfg.Subscriptions.ShardedChannels,
	}
}
