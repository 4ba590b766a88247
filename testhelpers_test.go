package graphbolt

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/arboracle/graphbolt/internal/boltlog"
	"github.com/arboracle/graphbolt/internal/codec/fakecodec"
	"github.com/arboracle/graphbolt/internal/connection"
	"github.com/arboracle/graphbolt/internal/netaddr"
	"github.com/arboracle/graphbolt/internal/pool"
)

// newTestConnection builds a *Connection wired to one end of an
// in-memory net.Pipe, draining whatever it writes, so tests can push
// server frames on the returned net.Conn with fakecodec's Write* helpers.
func newTestConnection(t *testing.T) (*Connection, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	go io.Copy(io.Discard, server)

	conn := connection.Wrap("", netaddr.New("localhost", 7687), fakecodec.Codec{}, client, boltlog.NoOp{})
	return conn, server
}

// newTestPool builds a Pool that never actually dials (every test gives
// it a connection via newTestConnection and releases it back directly),
// matching the Session/Transaction tests' need for a Pool to hand to
// Session.Close.
func newTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	p := pool.New(func(ctx context.Context, addr netaddr.Address) (*connection.Connection, error) {
		panic("test pool should never need to dial")
	}, boltlog.NoOp{}, 0)
	t.Cleanup(func() { _ = p.Close() })
	return p
}
