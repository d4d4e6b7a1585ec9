// Package redisbridge implements the core boundary on top of go-redis. It
// is the pure-Go core: no shared library, ordinary TCP connections, and
// go-redis's own pooling, pipelining and cluster routing underneath.
package redisbridge

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/talonkv/talon-go/core"
)

// Config mirrors the client configuration fields the bridge consumes.
type Config struct {
	Addresses   []string
	ClusterMode bool

	UseTLS             bool
	InsecureSkipVerify bool

	Username string
	Password string

	DatabaseID int
	ClientName string

	// Protocol is the RESP version, 2 or 3. Zero means 3.
	Protocol int

	RequestTimeout    time.Duration
	ConnectionTimeout time.Duration

	PreferReplicaReads bool

	MaxRetries int
	RetryBase  time.Duration

	LazyConnect bool

	Channels        []string
	Patterns        []string
	ShardedChannels []string

	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

// doer is the slice of the go-redis API the bridge needs from both client
// kinds and from per-node clients.
type doer interface {
	Do(ctx context.Context, args ...interface{}) *redis.Cmd
	Pipeline() redis.Pipeliner
	TxPipeline() redis.Pipeliner
}

// Bridge is the go-redis backed core.
type Bridge struct {
	cfg Config
	log zerolog.Logger

	single  *redis.Client
	cluster *redis.ClusterClient

	credMu   sync.RWMutex
	username string
	password string

	mu          sync.Mutex
	closed      bool
	addrClients map[string]*redis.Client
	scripts     map[string]*scriptEntry
	scans       map[string]*scanState
	scanSeq     uint64
	pubsubs     []*redis.PubSub
}

// New connects per cfg and returns the bridge. Unless LazyConnect is set,
// the first node is pinged before returning.
func New(cfg Config) (*Bridge, error) {
	b := &Bridge{
		cfg:         cfg,
		log:         zerolog.Nop(),
		username:    cfg.Username,
		password:    cfg.Password,
		addrClients: make(map[string]*redis.Client),
		scripts:     make(map[string]*scriptEntry),
		scans:       make(map[string]*scanState),
	}
	if cfg.Logger != nil {
		b.log = *cfg.Logger
	}
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("redisbridge: no addresses")
	}

	if cfg.ClusterMode {
		b.cluster = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:               cfg.Addresses,
			ClientName:          cfg.ClientName,
			Protocol:            b.protocol(),
			CredentialsProvider: b.credentials,
			TLSConfig:           b.tlsConfig(),
			DialTimeout:         cfg.ConnectionTimeout,
			ReadTimeout:         cfg.RequestTimeout,
			WriteTimeout:        cfg.RequestTimeout,
			MaxRetries:          cfg.MaxRetries,
			MinRetryBackoff:     cfg.RetryBase,
			ReadOnly:            cfg.PreferReplicaReads,
		})
	} else {
		b.single = redis.NewClient(&redis.Options{
			Addr:                cfg.Addresses[0],
			ClientName:          cfg.ClientName,
			Protocol:            b.protocol(),
			CredentialsProvider: b.credentials,
			DB:                  cfg.DatabaseID,
			TLSConfig:           b.tlsConfig(),
			DialTimeout:         cfg.ConnectionTimeout,
			ReadTimeout:         cfg.RequestTimeout,
			WriteTimeout:        cfg.RequestTimeout,
			MaxRetries:          cfg.MaxRetries,
			MinRetryBackoff:     cfg.RetryBase,
		})
	}

	if !cfg.LazyConnect {
		ctx, cancel := context.WithTimeout(context.Background(), b.dialBudget())
		defer cancel()
		if err := b.root().Do(ctx, "PING").Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("redisbridge: connect %v: %w", cfg.Addresses, err)
		}
	}
	b.log.Debug().
		Strs("addresses", cfg.Addresses).
		Bool("cluster", cfg.ClusterMode).
		Bool("lazy", cfg.LazyConnect).
		Msg("bridge ready")
	return b, nil
}

func (b *Bridge) protocol() int {
	if b.cfg.Protocol == 0 {
		return 3
	}
	return b.cfg.Protocol
}

func (b *Bridge) dialBudget() time.Duration {
	if b.cfg.ConnectionTimeout > 0 {
		return b.cfg.ConnectionTimeout
	}
	return 5 * time.Second
}

func (b *Bridge) tlsConfig() *tls.Config {
	if !b.cfg.UseTLS {
		return nil
	}
	return &tls.Config{InsecureSkipVerify: b.cfg.InsecureSkipVerify}
}

// credentials feeds go-redis on every (re)connect so a password update
// applies to future dials without rebuilding the client.
func (b *Bridge) credentials() (string, string) {
	b.credMu.RLock()
	defer b.credMu.RUnlock()
	return b.username, b.password
}

func (b *Bridge) root() doer {
	if b.cluster != nil {
		return b.cluster
	}
	return b.single
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// addrClient returns a dedicated client for one node, creating it on first
// use. Used for by-address routes and cluster scan stepping.
func (b *Bridge) addrClient(addr string) (*redis.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, core.ErrClosedClient
	}
	if c, ok := b.addrClients[addr]; ok {
		return c, nil
	}
	c := redis.NewClient(&redis.Options{
		Addr:                addr,
		ClientName:          b.cfg.ClientName,
		Protocol:            b.protocol(),
		CredentialsProvider: b.credentials,
		TLSConfig:           b.tlsConfig(),
		DialTimeout:         b.cfg.ConnectionTimeout,
		ReadTimeout:         b.cfg.RequestTimeout,
		WriteTimeout:        b.cfg.RequestTimeout,
	})
	b.addrClients[addr] = c
	return c, nil
}

// Exec implements core.Core.
func (b *Bridge) Exec(ctx context.Context, cmd core.Cmd, route core.Route) (any, error) {
	if b.isClosed() {
		return nil, core.ErrClosedClient
	}
	argv := cmdArgv(cmd)

	if b.cluster == nil || route == nil {
		return resultOf(b.root().Do(ctx, argv...))
	}

	switch r := route.(type) {
	case core.SimpleRoute:
		switch r {
		case core.AllPrimariesRoute:
			return b.execEach(ctx, argv, true)
		case core.AllNodesRoute:
			return b.execEach(ctx, argv, false)
		default:
			return resultOf(b.cluster.Do(ctx, argv...))
		}
	case core.ByAddressRoute:
		c, err := b.addrClient(r.Addr())
		if err != nil {
			return nil, err
		}
		return resultOf(c.Do(ctx, argv...))
	case core.SlotKeyRoute:
		node, err := b.nodeForKey(ctx, r.SlotKey, r.SlotType)
		if err != nil {
			return nil, err
		}
		return resultOf(node.Do(ctx, argv...))
	case core.SlotIDRoute:
		addr, err := b.addrForSlot(ctx, r.SlotID, r.SlotType)
		if err != nil {
			return nil, err
		}
		c, err := b.addrClient(addr)
		if err != nil {
			return nil, err
		}
		return resultOf(c.Do(ctx, argv...))
	}
	return nil, fmt.Errorf("redisbridge: unsupported route %T", route)
}

// execEach fans a command out and returns a per-node-address map.
func (b *Bridge) execEach(ctx context.Context, argv []interface{}, primariesOnly bool) (any, error) {
	results := make(map[string]any)
	var mu sync.Mutex
	fn := func(ctx context.Context, node *redis.Client) error {
		v, err := resultOf(node.Do(ctx, argv...))
		if err != nil {
			return err
		}
		mu.Lock()
		results[node.Options().Addr] = v
		mu.Unlock()
		return nil
	}
	var err error
	if primariesOnly {
		err = b.cluster.ForEachMaster(ctx, fn)
	} else {
		err = b.cluster.ForEachShard(ctx, fn)
	}
	if err != nil {
		return nil, classify(err)
	}
	return results, nil
}

func (b *Bridge) nodeForKey(ctx context.Context, key string, t core.SlotType) (*redis.Client, error) {
	if t == core.SlotTypeReplica {
		return b.cluster.SlaveForKey(ctx, key)
	}
	return b.cluster.MasterForKey(ctx, key)
}

// addrForSlot resolves a slot number to a node address via CLUSTER SLOTS.
func (b *Bridge) addrForSlot(ctx context.Context, slot int, t core.SlotType) (string, error) {
	slots, err := b.cluster.ClusterSlots(ctx).Result()
	if err != nil {
		return "", err
	}
	for _, s := range slots {
		if slot < s.Start || slot > s.End || len(s.Nodes) == 0 {
			continue
		}
		if t == core.SlotTypeReplica && len(s.Nodes) > 1 {
			return s.Nodes[1].Addr, nil
		}
		return s.Nodes[0].Addr, nil
	}
	return "", fmt.Errorf("redisbridge: no node serves slot %d", slot)
}

// UpdateConnectionPassword implements core.Core. The stored credentials
// feed every future dial; with immediateAuth the live connections are
// re-authenticated as well.
func (b *Bridge) UpdateConnectionPassword(ctx context.Context, password string, immediateAuth bool) error {
	if b.isClosed() {
		return core.ErrClosedClient
	}
	b.credMu.Lock()
	b.password = password
	username := b.username
	b.credMu.Unlock()

	if !immediateAuth {
		return nil
	}
	authArgv := []interface{}{"AUTH", password}
	if username != "" {
		authArgv = []interface{}{"AUTH", username, password}
	}
	if b.cluster != nil {
		return b.cluster.ForEachShard(ctx, func(ctx context.Context, node *redis.Client) error {
			return node.Do(ctx, authArgv...).Err()
		})
	}
	return b.single.Do(ctx, authArgv...).Err()
}

// Close implements core.Core. Idempotent.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	pubsubs := b.pubsubs
	b.pubsubs = nil
	addrClients := b.addrClients
	b.addrClients = make(map[string]*redis.Client)
	b.scans = make(map[string]*scanState)
	b.mu.Unlock()

	var first error
	for _, ps := range pubsubs {
		if err := ps.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, c := range addrClients {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	if b.cluster != nil {
		if err := b.cluster.Close(); err != nil && first == nil {
			first = err
		}
	}
	if b.single != nil {
		if err := b.single.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
