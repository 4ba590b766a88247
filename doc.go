// Package graphbolt is a pooled client core for Bolt-protocol graph
// databases: connection lifecycle and pooling, session/transaction state
// management, lazy result streaming, and a routing-aware driver layered
// over a single-address one. It does not implement the Bolt wire format
// itself — callers supply a Codec that knows how to dial, frame, and
// hydrate values for the protocol version they target.
package graphbolt
