package talon

import (
	"fmt"

	"github.com/talonkv/talon-go/core"
)

// Route directs a command to specific node(s) in cluster mode. See the core
// package for the concrete route types; the constructors below are
// re-exported for convenience.
type Route = core.Route

// SlotType selects the primary or a replica for slot-addressed routes.
type SlotType = core.SlotType

const (
	SlotTypePrimary = core.SlotTypePrimary
	SlotTypeReplica = core.SlotTypeReplica
)

// Parameterless routes.
const (
	RandomRoute       = core.RandomRoute
	AllNodesRoute     = core.AllNodesRoute
	AllPrimariesRoute = core.AllPrimariesRoute
)

// NewSlotIDRoute routes to the node serving a hash slot.
func NewSlotIDRoute(id int, t SlotType) Route { return core.NewSlotIDRoute(id, t) }

// NewSlotKeyRoute routes to the node serving the slot a key hashes to.
func NewSlotKeyRoute(key string, t SlotType) Route { return core.NewSlotKeyRoute(key, t) }

// NewByAddressRoute routes to a node by address.
func NewByAddressRoute(host string, port int) Route { return core.NewByAddressRoute(host, port) }

// ClusterValue holds either a single reply or a per-node map of replies,
// depending on whether the command was routed to one or many nodes.
type ClusterValue[T any] struct {
	single T
	multi  map[string]T
	many   bool
}

// SingleValue wraps a single-node reply.
func SingleValue[T any](v T) ClusterValue[T] {
	return ClusterValue[T]{single: v}
}

// MultiValue wraps a per-node reply map keyed by node address.
func MultiValue[T any](m map[string]T) ClusterValue[T] {
	return ClusterValue[T]{multi: m, many: true}
}

// IsMulti reports whether the value holds per-node replies.
func (v ClusterValue[T]) IsMulti() bool { return v.many }

// Single returns the single-node reply. Only valid when IsMulti is false.
func (v ClusterValue[T]) Single() T { return v.single }

// Multi returns the per-node reply map. Only valid when IsMulti is true.
func (v ClusterValue[T]) Multi() map[string]T { return v.multi }

// clusterValueOf interprets a raw reply according to the route: multi-node
// routes produce per-node maps, everything else a single value.
func clusterValueOf[T any](raw any, route Route, conv func(any) (T, error)) (ClusterValue[T], error) {
	if route != nil && route.Multi() {
		m, ok := raw.(map[string]any)
		if !ok {
			return ClusterValue[T]{}, fmt.Errorf("expected per-node reply map, got %T", raw)
		}
		out := make(map[string]T, len(m))
		for node, nodeRaw := range m {
			v, err := conv(nodeRaw)
			if err != nil {
				return ClusterValue[T]{}, fmt.Errorf("node %s: %w", node, err)
			}
			out[node] = v
		}
		return MultiValue(out), nil
	}
	v, err := conv(raw)
	if err != nil {
		return ClusterValue[T]{}, err
	}
	return SingleValue(v), nil
}
