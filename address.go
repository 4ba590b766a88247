package graphbolt

import "github.com/arboracle/graphbolt/internal/netaddr"

// DefaultPort is the well-known Bolt port used when a URI omits one.
const DefaultPort = netaddr.DefaultPort

// Address identifies a Bolt server by host and port. Two addresses are
// equal iff both fields match.
type Address = netaddr.Address

// NewAddress builds an Address, defaulting Port to DefaultPort when zero.
func NewAddress(host string, port int) Address {
	return netaddr.New(host, port)
}
