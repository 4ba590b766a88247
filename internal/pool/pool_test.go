package pool

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arboracle/graphbolt/internal/boltlog"
	"github.com/arboracle/graphbolt/internal/codec/fakecodec"
	"github.com/arboracle/graphbolt/internal/connection"
	"github.com/arboracle/graphbolt/internal/netaddr"
)

// pipeConnector dials by handing out one end of an in-memory net.Pipe,
// discarding whatever is written to the other end, matching the
// QuickConnection test fixture from the original driver's test suite.
func pipeConnector(t *testing.T) Connector {
	return func(ctx context.Context, address netaddr.Address) (*connection.Connection, error) {
		client, server := net.Pipe()
		t.Cleanup(func() { _ = client.Close(); _ = server.Close() })
		go func() {
			buf := make([]byte, 4096)
			for {
				if _, err := server.Read(buf); err != nil {
					return
				}
			}
		}()
		return connection.Wrap("", address, fakecodec.Codec{}, client, boltlog.NoOp{}), nil
	}
}

func TestAcquire_ReturnsConnectionForAddress(t *testing.T) {
	p := New(pipeConnector(t), boltlog.NoOp{}, 0)
	address := netaddr.New("127.0.0.1", 7687)

	conn, err := p.Acquire(context.Background(), address)
	require.NoError(t, err)
	assert.Equal(t, address, conn.Address)

	active, inactive := p.Stats(address)
	assert.Equal(t, 1, active)
	assert.Equal(t, 0, inactive)
}

func TestAcquireTwice_YieldsDistinctConnections(t *testing.T) {
	p := New(pipeConnector(t), boltlog.NoOp{}, 0)
	address := netaddr.New("127.0.0.1", 7687)

	c1, err := p.Acquire(context.Background(), address)
	require.NoError(t, err)
	c2, err := p.Acquire(context.Background(), address)
	require.NoError(t, err)

	assert.NotSame(t, c1, c2)
	active, inactive := p.Stats(address)
	assert.Equal(t, 2, active)
	assert.Equal(t, 0, inactive)
}

func TestAcquireTwoAddresses_AreIndependentSets(t *testing.T) {
	p := New(pipeConnector(t), boltlog.NoOp{}, 0)
	a1 := netaddr.New("127.0.0.1", 7687)
	a2 := netaddr.New("127.0.0.1", 7474)

	c1, err := p.Acquire(context.Background(), a1)
	require.NoError(t, err)
	c2, err := p.Acquire(context.Background(), a2)
	require.NoError(t, err)

	assert.Equal(t, a1, c1.Address)
	assert.Equal(t, a2, c2.Address)

	active1, _ := p.Stats(a1)
	active2, _ := p.Stats(a2)
	assert.Equal(t, 1, active1)
	assert.Equal(t, 1, active2)
}

func TestAcquireThenRelease_UpdatesAccounting(t *testing.T) {
	p := New(pipeConnector(t), boltlog.NoOp{}, 0)
	address := netaddr.New("127.0.0.1", 7687)

	conn, err := p.Acquire(context.Background(), address)
	require.NoError(t, err)
	active, inactive := p.Stats(address)
	assert.Equal(t, 1, active)
	assert.Equal(t, 0, inactive)

	p.Release(conn)
	active, inactive = p.Stats(address)
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, inactive)
}

// TestReleasingTwice_IsIdempotent is the release-idempotence invariant
// from spec.md §8.2.
func TestReleasingTwice_IsIdempotent(t *testing.T) {
	p := New(pipeConnector(t), boltlog.NoOp{}, 0)
	address := netaddr.New("127.0.0.1", 7687)

	conn, err := p.Acquire(context.Background(), address)
	require.NoError(t, err)

	p.Release(conn)
	active, inactive := p.Stats(address)
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, inactive)

	p.Release(conn)
	active, inactive = p.Stats(address)
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, inactive)
}

func TestAcquire_ReusesReleasedConnection(t *testing.T) {
	p := New(pipeConnector(t), boltlog.NoOp{}, 0)
	address := netaddr.New("127.0.0.1", 7687)

	c1, err := p.Acquire(context.Background(), address)
	require.NoError(t, err)
	p.Release(c1)

	c2, err := p.Acquire(context.Background(), address)
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	active, inactive := p.Stats(address)
	assert.Equal(t, 1, active)
	assert.Equal(t, 0, inactive)
}

func TestClose_ClosesEveryConnectionAndIsIdempotent(t *testing.T) {
	p := New(pipeConnector(t), boltlog.NoOp{}, 0)
	address := netaddr.New("127.0.0.1", 7687)

	conn, err := p.Acquire(context.Background(), address)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, conn.Closed())
	require.NoError(t, p.Close())

	_, err = p.Acquire(context.Background(), address)
	assert.Error(t, err)
}

// TestMaxSize_ExhaustsPool asserts that a maxed-out set blocks Acquire
// rather than failing it outright, and that a caller-supplied deadline
// bounds the wait, surfacing ctx.Err() once it elapses.
func TestMaxSize_ExhaustsPool(t *testing.T) {
	p := New(pipeConnector(t), boltlog.NoOp{}, 1)
	address := netaddr.New("127.0.0.1", 7687)

	_, err := p.Acquire(context.Background(), address)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx, address)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestAcquire_WaitsForReleaseUnderMaxSize proves Acquire does not fail
// the moment a set is full: it wakes and succeeds once a Release frees
// a slot, within the caller's deadline.
func TestAcquire_WaitsForReleaseUnderMaxSize(t *testing.T) {
	p := New(pipeConnector(t), boltlog.NoOp{}, 1)
	address := netaddr.New("127.0.0.1", 7687)

	c1, err := p.Acquire(context.Background(), address)
	require.NoError(t, err)

	resultCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, acquireErr := p.Acquire(ctx, address)
		resultCh <- acquireErr
	}()

	time.Sleep(10 * time.Millisecond) // give the goroutine time to start waiting
	p.Release(c1)

	require.NoError(t, <-resultCh)
}
