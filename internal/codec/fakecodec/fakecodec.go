// Package fakecodec is a test double for codec.Codec. It frames
// messages as line-delimited JSON instead of PackStream — adequate for
// exercising the core's connection/pipelining/streaming logic, which
// never looks at wire bytes itself, without implementing the real
// (and explicitly out-of-scope) binary protocol.
package fakecodec

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net"

	"github.com/arboracle/graphbolt/internal/codec"
)

// Codec is the fake codec.Codec implementation.
type Codec struct {
	// HydrateFn, if set, overrides the default identity hydration.
	HydrateFn func(any) any
}

type wireFrame struct {
	Op         string         `json:"op,omitempty"`
	Statement  string         `json:"statement,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Kind       int            `json:"kind"`
	Meta       map[string]any `json:"meta,omitempty"`
	Values     []any          `json:"values,omitempty"`
}

// Connect is not used by tests that build a Connection directly over a
// net.Pipe via connection.Wrap; it returns an error if accidentally
// invoked.
func (Codec) Connect(ctx context.Context, host string, port int, tlsConfig *tls.Config, cfg codec.ConnectionConfig) (net.Conn, error) {
	return nil, errors.New("fakecodec: Connect is not supported, use connection.Wrap with a net.Pipe in tests")
}

func (Codec) EncodeRun(statement string, parameters map[string]any) ([]byte, error) {
	return encodeLine(wireFrame{Op: "RUN", Statement: statement, Parameters: parameters})
}

func (Codec) EncodePullAll() ([]byte, error) {
	return encodeLine(wireFrame{Op: "PULL_ALL"})
}

func (Codec) EncodeReset() ([]byte, error) {
	return encodeLine(wireFrame{Op: "RESET"})
}

func (c Codec) ReadMessage(r *bufio.Reader) (codec.InboundMessage, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return codec.InboundMessage{}, err
	}
	var wf wireFrame
	if err := json.Unmarshal(line, &wf); err != nil {
		return codec.InboundMessage{}, err
	}
	return codec.InboundMessage{Kind: codec.MessageKind(wf.Kind), Meta: wf.Meta, Values: wf.Values}, nil
}

func (c Codec) Hydrate(raw any) any {
	if c.HydrateFn != nil {
		return c.HydrateFn(raw)
	}
	return raw
}

func encodeLine(wf wireFrame) ([]byte, error) {
	b, err := json.Marshal(wf)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// WriteSuccess, WriteRecord, WriteFailure, and WriteIgnored write one
// server->client test frame to w (a *bufio.Writer or net.Conn wrapped by
// the test harness) using the same line-delimited JSON framing
// ReadMessage expects.
func WriteSuccess(w interface{ Write([]byte) (int, error) }, meta map[string]any) error {
	return writeFrame(w, wireFrame{Kind: int(codec.KindSuccess), Meta: meta})
}

func WriteRecord(w interface{ Write([]byte) (int, error) }, values []any) error {
	return writeFrame(w, wireFrame{Kind: int(codec.KindRecord), Values: values})
}

func WriteFailure(w interface{ Write([]byte) (int, error) }, meta map[string]any) error {
	return writeFrame(w, wireFrame{Kind: int(codec.KindFailure), Meta: meta})
}

func WriteIgnored(w interface{ Write([]byte) (int, error) }, meta map[string]any) error {
	return writeFrame(w, wireFrame{Kind: int(codec.KindIgnored), Meta: meta})
}

func writeFrame(w interface{ Write([]byte) (int, error) }, wf wireFrame) error {
	b, err := json.Marshal(wf)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
