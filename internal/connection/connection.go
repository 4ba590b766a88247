// Package connection implements the Connection half of the core: one
// open socket, an outbound frame buffer, and an ordered queue of
// pending Responses, per spec.md §4.2.
package connection

import (
	"bufio"
	"container/list"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/arboracle/graphbolt/internal/boltlog"
	"github.com/arboracle/graphbolt/internal/codec"
	"github.com/arboracle/graphbolt/internal/netaddr"
)

// OpCode names the two request frames the core ever emits (spec.md §6),
// plus Reset, which only Connection.Reset emits. Releasing a connection
// to the pool does not send a Reset.
type OpCode int

const (
	OpRun OpCode = iota
	OpPullAll
	OpReset
)

// Response is a set of event hooks, installed by the caller (typically a
// StatementResult), consumed by the Connection's receive loop in
// Fetch/FetchAll. Exactly one of OnSuccess/OnFailure/OnIgnored fires to
// terminate a request; OnRecord may fire any number of times before
// that, per spec.md §3.
type Response struct {
	OnSuccess func(meta map[string]any)
	OnRecord  func(values []any)
	OnFailure func(meta map[string]any)
	OnIgnored func(meta map[string]any)

	// Complete is set once a terminal event (Success/Failure/Ignored)
	// has been dispatched to this Response.
	Complete bool
}

func (r *Response) dispatchTerminal(msg codec.InboundMessage) {
	switch msg.Kind {
	case codec.KindSuccess:
		if r.OnSuccess != nil {
			r.OnSuccess(msg.Meta)
		}
	case codec.KindFailure:
		if r.OnFailure != nil {
			r.OnFailure(msg.Meta)
		}
	case codec.KindIgnored:
		if r.OnIgnored != nil {
			r.OnIgnored(msg.Meta)
		}
	}
	r.Complete = true
}

// pendingFrame is one outbound request awaiting flush: its serialized
// bytes plus the Response that should receive the matching reply.
type pendingFrame struct {
	bytes    []byte
	response *Response
}

// Connection owns one Bolt socket plus the two FIFO queues spec.md §3
// describes: requestBuffer (serialized outbound frames awaiting flush)
// and responseQueue (Response handles in the exact order their requests
// were enqueued). It is a single-owner object: callers must not use a
// Connection from more than one goroutine concurrently (spec.md §5).
type Connection struct {
	ID      string
	Address netaddr.Address

	codec codec.Codec
	log   boltlog.Logger

	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer

	requestBuffer []pendingFrame
	responseQueue *list.List // of *Response

	mu      sync.Mutex
	closed  bool
	defunct bool
	inUse   bool
}

// Dial establishes a new Connection to address using codecImpl for
// framing and optional TLS.
func Dial(ctx context.Context, address netaddr.Address, codecImpl codec.Codec, tlsConfig *tls.Config, cfg codec.ConnectionConfig, log boltlog.Logger) (*Connection, error) {
	netConn, err := codecImpl.Connect(ctx, address.Host, address.Port, tlsConfig, cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address.String(), err)
	}
	c := &Connection{
		ID:            uuid.New().String(),
		Address:       address,
		codec:         codecImpl,
		log:           log,
		conn:          netConn,
		reader:        bufio.NewReader(netConn),
		writer:        bufio.NewWriter(netConn),
		responseQueue: list.New(),
	}
	log.Debugf(boltlog.Connection, c.ID, "connected to %s", address.String())
	return c, nil
}

// Wrap builds a Connection around an already-established net.Conn,
// skipping the Codec's Connect/handshake step. Used by tests that drive
// the wire with an in-memory net.Pipe, and by callers that perform their
// own connection setup (e.g. multiplexing over an existing socket).
func Wrap(id string, address netaddr.Address, codecImpl codec.Codec, netConn net.Conn, log boltlog.Logger) *Connection {
	if id == "" {
		id = uuid.New().String()
	}
	return &Connection{
		ID:            id,
		Address:       address,
		codec:         codecImpl,
		log:           log,
		conn:          netConn,
		reader:        bufio.NewReader(netConn),
		writer:        bufio.NewWriter(netConn),
		responseQueue: list.New(),
	}
}

// InUse reports whether the pool currently considers this connection
// checked out.
func (c *Connection) InUse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inUse
}

// SetInUse is used exclusively by the pool to flip ownership; it is not
// part of the public contract a Session/StatementResult should call.
func (c *Connection) SetInUse(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inUse = v
}

// Closed reports whether Close has been called on this connection.
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Defunct reports whether a transport-level failure was observed.
func (c *Connection) Defunct() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defunct
}

// Append serializes one frame and enqueues response to receive its
// eventual reply, per spec.md §4.2. It does not write to the socket;
// call Send to flush.
func (c *Connection) Append(op OpCode, statement string, parameters map[string]any, response *Response) error {
	var (
		raw []byte
		err error
	)
	switch op {
	case OpRun:
		raw, err = c.codec.EncodeRun(statement, parameters)
	case OpPullAll:
		raw, err = c.codec.EncodePullAll()
	case OpReset:
		raw, err = c.codec.EncodeReset()
	default:
		return fmt.Errorf("connection: unknown op code %d", op)
	}
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	c.mu.Lock()
	c.requestBuffer = append(c.requestBuffer, pendingFrame{bytes: raw, response: response})
	c.mu.Unlock()
	return nil
}

// Send flushes requestBuffer to the socket as one write batch and
// enqueues every pending Response onto responseQueue in order.
func (c *Connection) Send() error {
	c.mu.Lock()
	frames := c.requestBuffer
	c.requestBuffer = nil
	c.mu.Unlock()

	if len(frames) == 0 {
		return nil
	}

	for _, f := range frames {
		if _, err := c.writer.Write(f.bytes); err != nil {
			c.fail(err)
			return &transportErr{message: "write", cause: err}
		}
	}
	if err := c.writer.Flush(); err != nil {
		c.fail(err)
		return &transportErr{message: "flush", cause: err}
	}

	c.mu.Lock()
	for _, f := range frames {
		c.responseQueue.PushBack(f.response)
	}
	c.mu.Unlock()
	return nil
}

// Fetch blocks until at least one inbound message is fully received and
// dispatches it to the head of responseQueue: on Success/Failure/Ignored
// the head is popped; on Record it stays in place (more records or a
// footer may follow). It returns the number of messages dispatched
// (always 1 on success).
func (c *Connection) Fetch() (int, error) {
	if c.Closed() || c.Defunct() {
		return 0, &transportErr{message: "fetch on closed or defunct connection"}
	}

	msg, err := c.codec.ReadMessage(c.reader)
	if err != nil {
		c.fail(err)
		return 0, &transportErr{message: "read", cause: err}
	}

	c.mu.Lock()
	front := c.responseQueue.Front()
	c.mu.Unlock()
	if front == nil {
		return 0, fmt.Errorf("connection: received %v with no pending response", msg.Kind)
	}
	resp := front.Value.(*Response)

	switch msg.Kind {
	case codec.KindRecord:
		if resp.OnRecord != nil {
			resp.OnRecord(msg.Values)
		}
	default:
		resp.dispatchTerminal(msg)
		c.mu.Lock()
		c.responseQueue.Remove(front)
		c.mu.Unlock()
	}
	return 1, nil
}

// FetchAll calls Fetch until responseQueue is empty or the connection
// becomes closed/defunct.
func (c *Connection) FetchAll() error {
	for {
		c.mu.Lock()
		empty := c.responseQueue.Len() == 0
		c.mu.Unlock()
		if empty || c.Closed() || c.Defunct() {
			return nil
		}
		if _, err := c.Fetch(); err != nil {
			return err
		}
	}
}

// Reset sends a RESET frame and drains responses, readying the
// connection to be returned to the pool after a protocol-level failure.
func (c *Connection) Reset() error {
	resp := &Response{}
	if err := c.Append(OpReset, "", nil, resp); err != nil {
		return err
	}
	if err := c.Send(); err != nil {
		return err
	}
	for !resp.Complete {
		if _, err := c.Fetch(); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the connection closed and closes the underlying socket.
// Further operations on a closed connection fail. Idempotent.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.log.Debugf(boltlog.Connection, c.ID, "closing")
	return c.conn.Close()
}

// fail marks the connection defunct/closed and fails every pending
// response with a TransportError, per spec.md §4.2's failure semantics.
func (c *Connection) fail(cause error) {
	c.mu.Lock()
	if c.defunct {
		c.mu.Unlock()
		return
	}
	c.defunct = true
	c.closed = true
	pending := c.responseQueue
	c.responseQueue = list.New()
	c.mu.Unlock()

	c.log.Errorf(boltlog.Connection, c.ID, "transport failure: %v", cause)
	_ = c.conn.Close()

	meta := map[string]any{"code": "TransportError", "message": cause.Error()}
	for e := pending.Front(); e != nil; e = e.Next() {
		resp := e.Value.(*Response)
		if resp.OnFailure != nil {
			resp.OnFailure(meta)
		}
		resp.Complete = true
	}
}

// transportErr is the internal sentinel used to signal transport
// failures out of this package without importing the root package's
// TransportError type (which would create an import cycle). The root
// package's Connection wrapper translates it.
type transportErr struct {
	message string
	cause   error
}

func (e *transportErr) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *transportErr) Unwrap() error { return e.cause }

// IsTransportError reports whether err originated from this package's
// transport-failure path.
func IsTransportError(err error) bool {
	_, ok := err.(*transportErr)
	return ok
}
