// Package netaddr defines the server Address type shared between the
// public graphbolt package and the internal connection/pool layers,
// avoiding an import cycle between them.
package netaddr

import (
	"fmt"
	"net"
	"strconv"
)

// DefaultPort is the well-known Bolt port used when a URI omits one.
const DefaultPort = 7687

// Address identifies a Bolt server by host and port. Two addresses are
// equal iff both fields match, which holds for free since Address is a
// plain comparable struct usable as a map key.
type Address struct {
	Host string
	Port int
}

// New builds an Address, defaulting Port to DefaultPort when zero.
func New(host string, port int) Address {
	if port == 0 {
		port = DefaultPort
	}
	return Address{Host: host, Port: port}
}

// String renders the address in host:port form, suitable for net.Dial.
func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// GoString supports %#v and debug printing with a stable, readable form.
func (a Address) GoString() string {
	return fmt.Sprintf("Address{%s, %d}", a.Host, a.Port)
}
