package graphbolt

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/arboracle/graphbolt/internal/boltlog"
	"github.com/arboracle/graphbolt/internal/connection"
	"github.com/arboracle/graphbolt/internal/netaddr"
	"github.com/arboracle/graphbolt/internal/pool"
)

// AccessMode tells a RoutingDriver whether a Session should be bound to
// a reader or a writer. A DirectDriver ignores it, per spec.md §4.8.
type AccessMode int

const (
	AccessModeWrite AccessMode = iota
	AccessModeRead
)

// Driver is a top-level factory holding a ConnectionPool, per spec.md
// §4.8/§4.9. It is thread-safe; Sessions it produces are not.
type Driver interface {
	// NewSession acquires a Connection for the appropriate address and
	// wraps it in a Session.
	NewSession(ctx context.Context, mode AccessMode) (*Session, error)
	// Close releases every pooled connection.
	Close() error
	// Target returns the address this driver was constructed with.
	Target() Address
}

type baseDriver struct {
	address      Address
	config       *Config
	securityPlan *SecurityPlan
	codec        Codec
	pool         *pool.Pool
	log          boltlog.Logger
	obs          *observability
}

func newBaseDriver(address Address, config *Config, codecImpl Codec) (*baseDriver, error) {
	plan, err := BuildSecurityPlan(address, config)
	if err != nil {
		return nil, err
	}

	connector := func(ctx context.Context, addr netaddr.Address) (*connection.Connection, error) {
		conn, err := dialConnection(ctx, addr, codecImpl, plan, config)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	return &baseDriver{
		address:      address,
		config:       config,
		securityPlan: plan,
		codec:        codecImpl,
		pool:         pool.New(connector, config.Logger, config.MaxConnectionPoolSize),
		log:          config.Logger,
		obs:          newObservability(config.Observability),
	}, nil
}

func (d *baseDriver) Target() Address { return d.address }

func (d *baseDriver) Close() error {
	poolErr := d.pool.Close()
	obsErr := d.obs.shutdown(context.Background())
	if poolErr != nil {
		return poolErr
	}
	return obsErr
}

func (d *baseDriver) acquireSession(ctx context.Context, address Address) (*Session, error) {
	if d.config.ConnectionAcquisitionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ConnectionAcquisitionTimeout)
		defer cancel()
	}

	end := d.obs.startSpan(ctx, "Pool.Acquire", address)
	conn, err := d.pool.Acquire(ctx, address)
	end(err)
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("acquire connection for %s", address.String()), Cause: err}
	}
	d.obs.recordAcquire(ctx, 1)
	return newSession(conn, d.pool, d.config, d.codec, d.log, d.obs), nil
}

// DirectDriver addresses a single database instance reachable at one
// address, per spec.md §4.8.
type DirectDriver struct {
	*baseDriver
}

// NewDirectDriver builds a DirectDriver for address.
func NewDirectDriver(address Address, codecImpl Codec, config *Config) (*DirectDriver, error) {
	base, err := newBaseDriver(address, config, codecImpl)
	if err != nil {
		return nil, err
	}
	return &DirectDriver{baseDriver: base}, nil
}

// NewSession acquires a Connection for the driver's address; access
// mode is ignored, per spec.md §4.8.
func (d *DirectDriver) NewSession(ctx context.Context, _ AccessMode) (*Session, error) {
	return d.acquireSession(ctx, d.address)
}

// RoutingDriver addresses a cluster via a contacted router address and
// maintains rotating reader/writer/router sets, per spec.md §4.9.
type RoutingDriver struct {
	*baseDriver

	mu      sync.Mutex
	routers *roundRobinSet
	readers *roundRobinSet
	writers *roundRobinSet
}

// NewRoutingDriver builds a RoutingDriver seeded with address as the
// initial (and, in the core's placeholder discover(), only) router. It
// requires a routing-compatible SecurityPlan; TrustOnFirstUse fails
// this check, per spec.md §4.9/§7.
func NewRoutingDriver(address Address, codecImpl Codec, config *Config) (*RoutingDriver, error) {
	base, err := newBaseDriver(address, config, codecImpl)
	if err != nil {
		return nil, err
	}
	if !base.securityPlan.RoutingCompatible {
		return nil, &ConfigurationError{Message: "TrustOnFirstUse is not compatible with routing"}
	}

	d := &RoutingDriver{
		baseDriver: base,
		routers:    newRoundRobinSet(address),
		readers:    newRoundRobinSet(),
		writers:    newRoundRobinSet(),
	}
	d.discover()
	return d, nil
}

// discover picks the next router address via round-robin and installs
// it as the sole reader and sole writer, clearing both sets first. This
// is a deliberate placeholder for a real routing-table RPC
// (`CALL dbms.cluster.routing.getServers` or equivalent) — spec.md §9
// leaves that RPC unimplemented rather than guessed at; a fuller
// cluster implementation replaces this method's body, not its
// signature or call sites.
func (d *RoutingDriver) discover() {
	d.mu.Lock()
	defer d.mu.Unlock()

	address, ok := d.routers.Next()
	if !ok {
		return
	}
	d.readers.Clear()
	d.readers.Add(address)
	d.writers.Clear()
	d.writers.Add(address)
	d.log.Debugf(boltlog.Driver, "-", "discovery installed %s as sole reader/writer", address.String())
}

// NewSession picks the next reader or writer address (per mode) and
// acquires a Connection for it.
func (d *RoutingDriver) NewSession(ctx context.Context, mode AccessMode) (*Session, error) {
	d.mu.Lock()
	var (
		address Address
		ok      bool
	)
	if mode == AccessModeRead {
		address, ok = d.readers.Next()
	} else {
		address, ok = d.writers.Next()
	}
	d.mu.Unlock()

	if !ok {
		return nil, &ProtocolError{Message: "no known servers for the requested access mode"}
	}
	return d.acquireSession(ctx, address)
}

// GraphDatabase is an empty type with no methods. The entry point for
// building a Driver from a Bolt URI (spec.md §6) is the package-level
// NewDriver function.
type GraphDatabase struct{}

// NewDriver parses uri and builds the matching Driver:
//   - "bolt://host[:port]" → DirectDriver
//   - "bolt+routing://host[:port]" → RoutingDriver
//   - any other scheme is a fatal ProtocolError echoing the URI
//
// A missing port defaults to DefaultPort.
func NewDriver(uri string, codecImpl Codec, options ...ConfigOption) (Driver, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("invalid URI [%s]: %v", uri, err)}
	}

	host := parsed.Hostname()
	port := DefaultPort
	if p := parsed.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, &ProtocolError{Message: fmt.Sprintf("invalid port in URI [%s]", uri)}
		}
	}
	address := NewAddress(host, port)
	config := NewConfig(options...)

	switch parsed.Scheme {
	case "bolt":
		return NewDirectDriver(address, codecImpl, config)
	case "bolt+routing":
		return NewRoutingDriver(address, codecImpl, config)
	default:
		return nil, &ProtocolError{Message: fmt.Sprintf("only the 'bolt' and 'bolt+routing' URI schemes are supported [%s]", uri)}
	}
}
