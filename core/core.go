// Package core defines the boundary between the talon command surface and
// the client core that owns connections, pipelining, cluster topology and
// protocol encoding.
//
// The binding layer in the root package only builds commands and interprets
// replies; everything that touches the network sits behind the Core
// interface. Two implementations ship with the module: redisbridge (pure Go,
// backed by go-redis) and native (cgo, backed by the talon shared library).
//
// Replies crossing the boundary are normalized to a small set of Go types:
//
//	nil                 missing value / nil reply
//	bool                boolean reply
//	int64               integer reply
//	float64             double reply
//	string or []byte    simple status or bulk string
//	[]any               array reply, elements normalized recursively
//	map[string]any      map reply, values normalized recursively
//
// Implementations may return either string or []byte for textual replies;
// callers must accept both.
package core

import "context"

// Cmd is a single command: a name (possibly multi-word, e.g. "CONFIG GET")
// and its binary-safe arguments.
type Cmd struct {
	Name string
	Args [][]byte
}

// NewCmd builds a Cmd from a name and raw arguments.
func NewCmd(name string, args ...[]byte) Cmd {
	return Cmd{Name: name, Args: args}
}

// BatchSpec is an ordered set of commands executed as a pipeline or, when
// Atomic is set, as a single MULTI/EXEC transaction.
type BatchSpec struct {
	Cmds   []Cmd
	Atomic bool
}

// BatchOptions control batch execution.
type BatchOptions struct {
	// Timeout bounds the whole batch. Zero means the core default.
	Timeout int64 // milliseconds

	// Route pins the batch to specific node(s) in cluster mode.
	Route Route

	// RetryServerError and RetryConnError ask the core to retry individual
	// pipeline commands. Both are rejected for atomic batches.
	RetryServerError bool
	RetryConnError   bool

	// RaiseOnError makes the first command error abort the batch. When
	// false, per-command errors are returned in-place in the result slice.
	RaiseOnError bool
}

// ScanOptions are shared by SCAN and the cluster scan.
type ScanOptions struct {
	Match string
	Count int64
	Type  string
}

// ScanFinishedCursor is the terminal cursor returned by ClusterScan once
// every node has been fully iterated.
const ScanFinishedCursor = "finished"

// PushKind classifies a push notification delivered by the core.
type PushKind int

const (
	PushKindDisconnection PushKind = iota
	PushKindOther
	PushKindInvalidate
	PushKindMessage
	PushKindPMessage
	PushKindSMessage
	PushKindUnsubscribe
	PushKindPUnsubscribe
	PushKindSUnsubscribe
	PushKindSubscribe
	PushKindPSubscribe
	PushKindSSubscribe
)

// IsMessage reports whether the push carries a channel message payload, as
// opposed to a subscription-state confirmation.
func (k PushKind) IsMessage() bool {
	return k == PushKindMessage || k == PushKindPMessage || k == PushKindSMessage
}

func (k PushKind) String() string {
	switch k {
	case PushKindDisconnection:
		return "disconnection"
	case PushKindInvalidate:
		return "invalidate"
	case PushKindMessage:
		return "message"
	case PushKindPMessage:
		return "pmessage"
	case PushKindSMessage:
		return "smessage"
	case PushKindUnsubscribe:
		return "unsubscribe"
	case PushKindPUnsubscribe:
		return "punsubscribe"
	case PushKindSUnsubscribe:
		return "sunsubscribe"
	case PushKindSubscribe:
		return "subscribe"
	case PushKindPSubscribe:
		return "psubscribe"
	case PushKindSSubscribe:
		return "ssubscribe"
	}
	return "other"
}

// PushMessage is a single push notification. Pattern is set only for
// pattern-based pushes.
type PushMessage struct {
	Kind    PushKind
	Channel string
	Pattern string
	Payload []byte
}

// PushHandler receives push notifications. The core calls it from its own
// delivery goroutine; the handler must not block.
type PushHandler func(PushMessage)

// Core is the contract the command surface programs against.
type Core interface {
	// Exec sends a single command. A nil route lets the core pick the node
	// (key-based in cluster mode).
	Exec(ctx context.Context, cmd Cmd, route Route) (any, error)

	// ExecBatch sends a pipeline or transaction and returns one normalized
	// reply per command.
	ExecBatch(ctx context.Context, batch BatchSpec, opts BatchOptions) ([]any, error)

	// StoreScript registers a script body in the core's script container
	// and returns its SHA1 digest. Storing the same body again bumps a
	// reference count; DropScript releases one reference.
	StoreScript(code []byte) (string, error)
	DropScript(sha string) error

	// InvokeScript runs a stored script by hash, falling back from EVALSHA
	// to EVAL transparently.
	InvokeScript(ctx context.Context, sha string, keys, args [][]byte, route Route) (any, error)

	// ClusterScan advances a core-owned scan cursor across all primaries.
	// The initial cursor is "0"; ScanFinishedCursor marks completion.
	ClusterScan(ctx context.Context, cursor string, opts ScanOptions) (next string, keys []string, err error)

	// RemoveScanCursor releases core-side state for a cursor that will not
	// be driven to completion. Unknown cursors are ignored.
	RemoveScanCursor(cursor string)

	// Subscribe installs the push handler and starts delivery for the
	// subscriptions declared at connection time.
	Subscribe(handler PushHandler) error

	// UpdateConnectionPassword swaps the password used for reconnection.
	// With immediateAuth the core also re-authenticates live connections.
	UpdateConnectionPassword(ctx context.Context, password string, immediateAuth bool) error

	Close() error
}
