package talon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ReadFrom controls which nodes serve read commands.
type ReadFrom string

const (
	// ReadFromPrimary always reads from the primary holding the key.
	ReadFromPrimary ReadFrom = "primary"
	// ReadFromPreferReplica spreads reads over replicas, falling back to
	// the primary.
	ReadFromPreferReplica ReadFrom = "prefer_replica"
	// ReadFromAZAffinity prefers replicas in the configured availability
	// zone.
	ReadFromAZAffinity ReadFrom = "az_affinity"
	// ReadFromAZAffinityReplicasAndPrimary prefers any node, replica or
	// primary, in the configured availability zone.
	ReadFromAZAffinityReplicasAndPrimary ReadFrom = "az_affinity_replicas_and_primary"
)

// ProtocolVersion selects the wire protocol.
type ProtocolVersion int

const (
	ProtocolRESP3 ProtocolVersion = 3
	ProtocolRESP2 ProtocolVersion = 2
)

// RetryStrategy shapes the reconnect backoff: delay grows as
// base * factor^attempt, capped at the number of retries, with optional
// jitter applied as a percentage of the computed delay.
type RetryStrategy struct {
	Retries       int           `toml:"retries"`
	Base          time.Duration `toml:"base"`
	Factor        int           `toml:"factor"`
	JitterPercent int           `toml:"jitter_percent"`
}

// SubscriptionConfig declares the pub/sub subscriptions established at
// connection time and re-established after reconnects.
type SubscriptionConfig struct {
	Channels        []string `toml:"channels"`
	Patterns        []string `toml:"patterns"`
	ShardedChannels []string `toml:"sharded_channels"`
}

// Empty reports whether no subscriptions are declared.
func (s SubscriptionConfig) Empty() bool {
	return len(s.Channels) == 0 && len(s.Patterns) == 0 && len(s.ShardedChannels) == 0
}

// ClientConfig collects everything the core needs to establish and maintain
// connections. The zero value plus at least one address is usable.
type ClientConfig struct {
	// Addresses are the seed nodes, host:port. In cluster mode the core
	// discovers the rest of the topology from them.
	Addresses []string `toml:"addresses"`

	ClusterMode bool `toml:"cluster_mode"`

	UseTLS             bool `toml:"use_tls"`
	InsecureSkipVerify bool `toml:"insecure_skip_verify"`

	Username string `toml:"username"`
	Password string `toml:"password"`

	// DatabaseID selects the logical database. Standalone only.
	DatabaseID int `toml:"database_id"`

	ClientName string `toml:"client_name"`

	Protocol ProtocolVersion `toml:"protocol"`

	RequestTimeout    time.Duration `toml:"request_timeout"`
	ConnectionTimeout time.Duration `toml:"connection_timeout"`

	ReadFrom         ReadFrom `toml:"read_from"`
	AvailabilityZone string   `toml:"availability_zone"`

	Retry RetryStrategy `toml:"retry"`

	// LazyConnect defers dialing until the first command.
	LazyConnect bool `toml:"lazy_connect"`

	Subscriptions SubscriptionConfig `toml:"subscriptions"`
}

// Option mutates a ClientConfig during construction.
type Option func(*ClientConfig)

// WithAddresses sets the seed node addresses.
func WithAddresses(addrs ...string) Option {
	return func(c *ClientConfig) { c.Addresses = addrs }
}

// WithClusterMode enables cluster topology discovery and slot routing.
func WithClusterMode() Option {
	return func(c *ClientConfig) { c.ClusterMode = true }
}

// WithTLS enables TLS on every connection.
func WithTLS() Option {
	return func(c *ClientConfig) { c.UseTLS = true }
}

// WithInsecureTLS enables TLS without certificate verification.
func WithInsecureTLS() Option {
	return func(c *ClientConfig) {
		c.UseTLS = true
		c.InsecureSkipVerify = true
	}
}

// WithAuth sets the credentials sent on connection establishment.
func WithAuth(username, password string) Option {
	return func(c *ClientConfig) {
		c.Username = username
		c.Password = password
	}
}

// WithDatabase selects a logical database (standalone only).
func WithDatabase(id int) Option {
	return func(c *ClientConfig) { c.DatabaseID = id }
}

// WithClientName sets the connection name reported to the server.
func WithClientName(name string) Option {
	return func(c *ClientConfig) { c.ClientName = name }
}

// WithProtocol pins the wire protocol version.
func WithProtocol(p ProtocolVersion) Option {
	return func(c *ClientConfig) { c.Protocol = p }
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *ClientConfig) { c.RequestTimeout = d }
}

// WithConnectionTimeout bounds connection establishment.
func WithConnectionTimeout(d time.Duration) Option {
	return func(c *ClientConfig) { c.ConnectionTimeout = d }
}

// WithReadFrom sets the read routing strategy. The availability zone is
// required for the AZ affinity strategies.
func WithReadFrom(rf ReadFrom, az string) Option {
	return func(c *ClientConfig) {
		c.ReadFrom = rf
		c.AvailabilityZone = az
	}
}

// WithRetryStrategy shapes the reconnect backoff.
func WithRetryStrategy(rs RetryStrategy) Option {
	return func(c *ClientConfig) { c.Retry = rs }
}

// WithLazyConnect defers dialing until the first command.
func WithLazyConnect() Option {
	return func(c *ClientConfig) { c.LazyConnect = true }
}

// WithSubscriptions declares pub/sub subscriptions established at
// connection time. Messages are consumed through Client.Queue.
func WithSubscriptions(sub SubscriptionConfig) Option {
	return func(c *ClientConfig) { c.Subscriptions = sub }
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Protocol:          ProtocolRESP3,
		RequestTimeout:    5 * time.Second,
		ConnectionTimeout: 5 * time.Second,
		ReadFrom:          ReadFromPrimary,
		Retry: RetryStrategy{
			Retries:       8,
			Base:          100 * time.Millisecond,
			Factor:        2,
			JitterPercent: 20,
		},
	}
}

// Validate checks the configuration for contradictions.
func (c *ClientConfig) Validate() error {
	if len(c.Addresses) == 0 {
		return fmt.Errorf("config: at least one address is required")
	}
	for _, a := range c.Addresses {
		if _, _, err := splitAddr(a); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if c.ClusterMode && c.DatabaseID != 0 {
		return fmt.Errorf("config: database selection is not available in cluster mode")
	}
	switch c.ReadFrom {
	case "", ReadFromPrimary, ReadFromPreferReplica:
	case ReadFromAZAffinity, ReadFromAZAffinityReplicasAndPrimary:
		if c.AvailabilityZone == "" {
			return fmt.Errorf("config: read_from %q requires an availability zone", c.ReadFrom)
		}
	default:
		return fmt.Errorf("config: unknown read_from strategy %q", c.ReadFrom)
	}
	switch c.Protocol {
	case 0, ProtocolRESP2, ProtocolRESP3:
	default:
		return fmt.Errorf("config: unsupported protocol version %d", c.Protocol)
	}
	if !c.ClusterMode && len(c.Subscriptions.ShardedChannels) > 0 {
		return fmt.Errorf("config: sharded subscriptions require cluster mode")
	}
	return nil
}

// LoadConfig reads a TOML configuration file and applies defaults.
func LoadConfig(path string) (ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("config: %w", err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// ParseURL turns a connection URL into a configuration.
//
// Accepted forms:
//   - "host:port"
//   - "redis://[user:pass@]host[:port][/db]"
//   - "valkey://..." and the TLS variants "rediss://", "valkeys://"
func ParseURL(url string) (ClientConfig, error) {
	cfg := DefaultConfig()

	rest := url
	switch {
	case strings.HasPrefix(url, "redis://"):
		rest = strings.TrimPrefix(url, "redis://")
	case strings.HasPrefix(url, "valkey://"):
		rest = strings.TrimPrefix(url, "valkey://")
	case strings.HasPrefix(url, "rediss://"):
		rest = strings.TrimPrefix(url, "rediss://")
		cfg.UseTLS = true
	case strings.HasPrefix(url, "valkeys://"):
		rest = strings.TrimPrefix(url, "valkeys://")
		cfg.UseTLS = true
	}

	if at := strings.LastIndex(rest, "@"); at != -1 {
		cred := rest[:at]
		rest = rest[at+1:]
		if colon := strings.Index(cred, ":"); colon != -1 {
			cfg.Username = cred[:colon]
			cfg.Password = cred[colon+1:]
		} else {
			cfg.Password = cred
		}
	}

	if slash := strings.Index(rest, "/"); slash != -1 {
		dbPart := rest[slash+1:]
		rest = rest[:slash]
		if dbPart != "" {
			db, err := strconv.Atoi(dbPart)
			if err != nil {
				return ClientConfig{}, fmt.Errorf("config: invalid database in URL %q", url)
			}
			cfg.DatabaseID = db
		}
	}

	host, port, err := splitAddr(rest)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("config: %w", err)
	}
	cfg.Addresses = []string{fmt.Sprintf("%s:%d", host, port)}
	return cfg, nil
}

func splitAddr(addr string) (string, int, error) {
	host := addr
	port := 6379
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		host = addr[:idx]
		p, err := strconv.Atoi(addr[idx+1:])
		if err != nil {
			return "", 0, fmt.Errorf("invalid port in address %q", addr)
		}
		port = p
	}
	if host == "" {
		return "", 0, fmt.Errorf("empty host in address %q", addr)
	}
	return host, port, nil
}
