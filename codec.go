package graphbolt

import "github.com/arboracle/graphbolt/internal/codec"

// Codec is the wire-protocol collaborator the core depends on (spec.md
// §6): dialing, handshaking, RUN/PULL_ALL/RESET frame encoding, frame
// decoding, and raw-value hydration. PackStream byte layout and value
// hydration internals are out of scope for this module (spec.md §1) —
// callers supply a concrete Codec (for example, a PackStream
// implementation) when constructing a Driver.
type Codec = codec.Codec

// MessageKind classifies an inbound Bolt message as dispatched to a
// Response's hooks.
type MessageKind = codec.MessageKind

const (
	KindSuccess = codec.KindSuccess
	KindRecord  = codec.KindRecord
	KindFailure = codec.KindFailure
	KindIgnored = codec.KindIgnored
)

// InboundMessage is one decoded frame from the server.
type InboundMessage = codec.InboundMessage

// ConnectionConfig carries the subset of driver configuration a Codec
// needs to dial and handshake.
type ConnectionConfig = codec.ConnectionConfig
