// Package pool implements the ConnectionPool half of the core: a
// mapping from server address to a set of Connections, with an
// acquire/release discipline enforcing single ownership, per
// spec.md §4.3.
package pool

import (
	"context"
	"sync"

	"github.com/arboracle/graphbolt/internal/boltlog"
	"github.com/arboracle/graphbolt/internal/connection"
	"github.com/arboracle/graphbolt/internal/netaddr"
)

// Connector dials a new Connection for address. The pool calls it only
// when no idle connection is available.
type Connector func(ctx context.Context, address netaddr.Address) (*connection.Connection, error)

// Pool is the connection pool described in spec.md §4.3: every
// Connection in connections has exactly one owner, the pool
// (in-use=false) or a consumer (in-use=true); a Connection never
// appears under two addresses. All mutations are serialized under one
// lock, matching spec.md §5.
type Pool struct {
	connector Connector
	log       boltlog.Logger
	maxSize   int // 0 == unbounded, per spec.md §9's deployment-decision note

	mu          sync.Mutex
	connections map[netaddr.Address][]*connection.Connection
	closed      bool
	released    chan struct{} // closed and replaced whenever a slot may have freed up
}

// New builds a Pool that dials new connections via connector. maxSize
// bounds the number of connections kept per address; 0 means unbounded.
func New(connector Connector, log boltlog.Logger, maxSize int) *Pool {
	return &Pool{
		connector:   connector,
		log:         log,
		maxSize:     maxSize,
		connections: make(map[netaddr.Address][]*connection.Connection),
		released:    make(chan struct{}),
	}
}

// broadcastLocked wakes every goroutine blocked in Acquire, waiting to
// see whether a slot opened up. Must be called with p.mu held.
func (p *Pool) broadcastLocked() {
	close(p.released)
	p.released = make(chan struct{})
}

// Acquire scans address's set for an idle, non-closed connection; if
// found, marks it in-use and returns it. If the address's set is at
// maxSize with none idle, Acquire waits for a Release to free one up,
// bounded by ctx — the caller applies config.ConnectionAcquisitionTimeout
// by deriving a deadline onto ctx before calling Acquire, the way the
// teacher's session layer bounds Borrow. Otherwise it dials a new one
// via connector, inserts it in-use, and returns it.
func (p *Pool) Acquire(ctx context.Context, address netaddr.Address) (*connection.Connection, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, errPoolClosed
		}
		set := p.connections[address]
		for _, c := range set {
			if !c.InUse() && !c.Closed() {
				c.SetInUse(true)
				p.mu.Unlock()
				p.log.Debugf(boltlog.Pool, c.ID, "acquired idle connection to %s", address.String())
				return c, nil
			}
		}
		if p.maxSize == 0 || len(set) < p.maxSize {
			p.mu.Unlock()
			break
		}
		waitCh := p.released
		p.mu.Unlock()

		select {
		case <-waitCh:
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c, err := p.connector(ctx, address)
	if err != nil {
		return nil, err
	}
	c.SetInUse(true)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = c.Close()
		return nil, errPoolClosed
	}
	p.connections[address] = append(p.connections[address], c)
	p.mu.Unlock()

	p.log.Debugf(boltlog.Pool, c.ID, "created new connection to %s", address.String())
	return c, nil
}

// Release marks c idle again, making it eligible for re-acquisition by
// any caller asking for its address, and wakes any Acquire call waiting
// on this address's set. Releasing an already-released connection is a
// no-op (idempotent), per spec.md §4.3. Release does not check that c
// belongs to this pool; it acts on c's in-use flag alone.
func (p *Pool) Release(c *connection.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !c.InUse() {
		return
	}
	c.SetInUse(false)
	p.broadcastLocked()
	p.log.Debugf(boltlog.Pool, c.ID, "released")
}

// Close closes every Connection in every set and clears the map.
// Idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	all := p.connections
	p.connections = make(map[netaddr.Address][]*connection.Connection)
	p.broadcastLocked()
	p.mu.Unlock()

	var firstErr error
	for _, set := range all {
		for _, c := range set {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Stats reports active/inactive connection counts for address, used by
// tests verifying the pool-accounting invariant (spec.md §8.1).
func (p *Pool) Stats(address netaddr.Address) (active, inactive int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.connections[address] {
		if c.InUse() {
			active++
		} else {
			inactive++
		}
	}
	return
}

type poolError string

func (e poolError) Error() string { return string(e) }

const errPoolClosed poolError = "connection pool is closed"
