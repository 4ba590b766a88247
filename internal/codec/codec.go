// Package codec declares the minimal interface the graphbolt core
// consumes from the wire-protocol layer. PackStream-level encoding,
// decoding, and value hydration are deliberately out of the core's
// scope (spec.md §1) — this package only names the contract; a real
// implementation lives outside this module, and tests substitute an
// in-memory fake over net.Pipe.
package codec

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
)

// MessageKind classifies an inbound Bolt message as dispatched to a
// Response's hooks.
type MessageKind int

const (
	// KindSuccess carries a metadata map terminating a request
	// (RUN's header, or PULL_ALL's footer).
	KindSuccess MessageKind = iota
	// KindRecord carries one row of values for a streaming result.
	KindRecord
	// KindFailure carries the server's error metadata for a failed
	// request.
	KindFailure
	// KindIgnored carries metadata for a request the server skipped
	// because a prior request in the same batch failed.
	KindIgnored
)

// InboundMessage is one decoded frame from the server.
type InboundMessage struct {
	Kind   MessageKind
	Meta   map[string]any // populated for Success/Failure/Ignored
	Values []any          // populated for Record
}

// ConnectionConfig carries the subset of driver configuration a Codec
// needs to dial and handshake: timeouts and the user agent string. It is
// intentionally narrower than the full graphbolt Config so this package
// has no dependency on the root package.
type ConnectionConfig struct {
	SocketConnectTimeoutMS int
	UserAgent              string
}

// Codec is the wire-protocol collaborator the core depends on. It owns
// dialing, handshaking, frame encoding, frame decoding, and raw-value
// hydration. The core never inspects PackStream bytes directly.
type Codec interface {
	// Connect dials address, optionally under tlsConfig, and performs
	// the protocol handshake, returning a ready net.Conn.
	Connect(ctx context.Context, host string, port int, tlsConfig *tls.Config, cfg ConnectionConfig) (net.Conn, error)
	// EncodeRun serializes a RUN request for statement/parameters.
	EncodeRun(statement string, parameters map[string]any) ([]byte, error)
	// EncodePullAll serializes a PULL_ALL request.
	EncodePullAll() ([]byte, error)
	// EncodeReset serializes a RESET request, sent by Connection.Reset.
	EncodeReset() ([]byte, error)
	// ReadMessage blocks until one complete inbound frame has been
	// read from r and returns its decoded form.
	ReadMessage(r *bufio.Reader) (InboundMessage, error)
	// Hydrate converts one raw decoded value into a domain value.
	Hydrate(raw any) any
}
