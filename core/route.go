package core

import "fmt"

// Route directs a command to specific node(s) in cluster mode. A nil Route
// means key-based routing. Standalone cores ignore routes entirely.
type Route interface {
	// Multi reports whether the route targets more than one node, in which
	// case the reply is a per-node map.
	Multi() bool

	isRoute()
}

// SimpleRoute is a route without parameters.
type SimpleRoute int

const (
	// RandomRoute sends the command to an arbitrary node.
	RandomRoute SimpleRoute = iota
	// AllNodesRoute sends the command to every node, primaries and replicas.
	AllNodesRoute
	// AllPrimariesRoute sends the command to every primary.
	AllPrimariesRoute
)

func (r SimpleRoute) Multi() bool { return r != RandomRoute }
func (r SimpleRoute) isRoute()    {}

func (r SimpleRoute) String() string {
	switch r {
	case AllNodesRoute:
		return "all-nodes"
	case AllPrimariesRoute:
		return "all-primaries"
	}
	return "random"
}

// SlotType selects the primary or a replica for slot-addressed routes.
type SlotType int

const (
	SlotTypePrimary SlotType = iota
	SlotTypeReplica
)

// SlotIDRoute targets the node serving a specific hash slot.
type SlotIDRoute struct {
	SlotID   int
	SlotType SlotType
}

// NewSlotIDRoute builds a route for a hash slot in [0, 16384).
func NewSlotIDRoute(id int, t SlotType) SlotIDRoute {
	return SlotIDRoute{SlotID: id, SlotType: t}
}

func (SlotIDRoute) Multi() bool { return false }
func (SlotIDRoute) isRoute()    {}

// SlotKeyRoute targets the node serving the slot a key hashes to.
type SlotKeyRoute struct {
	SlotKey  string
	SlotType SlotType
}

// NewSlotKeyRoute builds a route addressed by a key's slot.
func NewSlotKeyRoute(key string, t SlotType) SlotKeyRoute {
	return SlotKeyRoute{SlotKey: key, SlotType: t}
}

func (SlotKeyRoute) Multi() bool { return false }
func (SlotKeyRoute) isRoute()    {}

// ByAddressRoute targets a node by its address.
type ByAddressRoute struct {
	Host string
	Port int
}

// NewByAddressRoute builds a route addressed to host:port.
func NewByAddressRoute(host string, port int) ByAddressRoute {
	return ByAddressRoute{Host: host, Port: port}
}

func (ByAddressRoute) Multi() bool { return false }
func (ByAddressRoute) isRoute()    {}

func (r ByAddressRoute) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
