package graphbolt

import (
	"context"
	"fmt"

	"github.com/arboracle/graphbolt/internal/codec"
	"github.com/arboracle/graphbolt/internal/connection"
)

// Connection is one open Bolt socket plus its framed request/response
// pipeline, per spec.md §4.2. It is a single-owner object (spec.md §5):
// a Session or StatementResult borrows it and must not share it across
// goroutines.
type Connection = connection.Connection

// Response is the set of event hooks a caller installs before appending
// a frame, consumed by the Connection's receive loop.
type Response = connection.Response

// OpCode names the request frames the core emits.
type OpCode = connection.OpCode

const (
	OpRun     = connection.OpRun
	OpPullAll = connection.OpPullAll
	OpReset   = connection.OpReset
)

// dialConnection establishes a Connection to address using plan and cfg,
// wrapping any dial or handshake failure in a public TransportError.
func dialConnection(ctx context.Context, address Address, codecImpl codec.Codec, plan *SecurityPlan, cfg *Config) (*Connection, error) {
	ccfg := codec.ConnectionConfig{
		SocketConnectTimeoutMS: int(cfg.SocketConnectTimeout.Milliseconds()),
		UserAgent:              cfg.UserAgent,
	}
	conn, err := connection.Dial(ctx, address, codecImpl, plan.TLSConfig, ccfg, cfg.Logger)
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("connect to %s", address.String()), Cause: err}
	}
	return conn, nil
}

// wrapConnErr translates the internal connection package's transport
// sentinel into a public TransportError; any other error (encode
// failures, protocol desync) passes through unchanged.
func wrapConnErr(err error) error {
	if err == nil {
		return nil
	}
	if connection.IsTransportError(err) {
		return &TransportError{Message: err.Error()}
	}
	return err
}
