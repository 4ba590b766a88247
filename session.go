package graphbolt

import (
	"context"

	"github.com/arboracle/graphbolt/internal/boltlog"
	"github.com/arboracle/graphbolt/internal/pool"
	"github.com/arboracle/graphbolt/internal/retry"
)

// Session is a single-borrowed-connection handle: at most one open
// Transaction at a time, plus an auto-commit Run, per spec.md §3/§4.6.
// A Session is single-owner (spec.md §5): do not share one across
// goroutines.
type Session struct {
	id  string
	log boltlog.Logger
	obs *observability

	conn *Connection
	pool *pool.Pool

	config *Config
	codec  Codec

	transaction *Transaction
	// bookmarks holds the bookmark a prior transaction's COMMIT footer
	// reported, if any. BeginTransaction forwards it on the next BEGIN,
	// and a successful Close folds the new bookmark back in here, so
	// causal ordering chains across transactions within a Session
	// (SPEC_FULL.md §4.11).
	bookmarks Bookmarks
	closed    bool
}

func newSession(conn *Connection, p *pool.Pool, config *Config, codecImpl Codec, log boltlog.Logger, obs *observability) *Session {
	return &Session{
		id:     boltlog.NewID(),
		log:    log,
		obs:    obs,
		conn:   conn,
		pool:   p,
		config: config,
		codec:  codecImpl,
	}
}

// runOnConnection normalizes statement/parameters to the wire shape,
// installs RUN/PULL_ALL Response hooks via newStatementResult, appends
// both frames, flushes, and returns the StatementResult immediately;
// records arrive as iteration proceeds, per spec.md §4.10.
func runOnConnection(conn *Connection, codecImpl Codec, obs *observability, ctx context.Context, address Address, statement string, parameters map[string]any) (*StatementResult, error) {
	if parameters == nil {
		parameters = map[string]any{}
	}

	obs.recordStatementRun(ctx, len(statement))
	end := obs.startSpan(ctx, "Session.Run", address)

	sr, runResponse, pullAllResponse := newStatementResult(conn, statement, parameters, codecImpl.Hydrate)

	if err := conn.Append(OpRun, statement, parameters, runResponse); err != nil {
		end(err)
		return nil, wrapConnErr(err)
	}
	if err := conn.Append(OpPullAll, "", nil, pullAllResponse); err != nil {
		end(err)
		return nil, wrapConnErr(err)
	}
	if err := conn.Send(); err != nil {
		end(err)
		return nil, wrapConnErr(err)
	}

	end(nil)
	return sr, nil
}

// Run executes statement as an auto-commit transaction. It fails with a
// TransactionError, without writing to the socket, if an explicit
// Transaction is currently open (spec.md §4.6/§8.8).
func (s *Session) Run(ctx context.Context, statement string, parameters map[string]any) (*StatementResult, error) {
	if s.transaction != nil {
		return nil, &TransactionError{Message: "cannot run a statement on the session while an explicit transaction is open"}
	}
	if s.closed {
		return nil, &UsageError{Message: "session is closed"}
	}
	return runOnConnection(s.conn, s.codec, s.obs, ctx, s.conn.Address, statement, parameters)
}

// BeginTransaction starts a new explicit transaction on this session,
// forwarding any bookmark left by a previously committed transaction on
// this Session (SPEC_FULL.md §4.11). It fails if one is already open
// (spec.md §4.6).
func (s *Session) BeginTransaction(ctx context.Context) (*Transaction, error) {
	if s.transaction != nil {
		return nil, &TransactionError{Message: "session already has an open transaction"}
	}
	if s.closed {
		return nil, &UsageError{Message: "session is closed"}
	}

	tx, err := newTransaction(ctx, s.conn, s.codec, s.obs, s.bookmarks, func(bookmark string) {
		s.transaction = nil
		if bookmark != "" {
			s.bookmarks = cleanupBookmarks(append(s.bookmarks, bookmark))
		}
	})
	if err != nil {
		return nil, err
	}
	s.transaction = tx
	return tx, nil
}

// ExecuteRead runs work in a managed, retried read transaction.
func (s *Session) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	return s.executeManaged(ctx, work)
}

// ExecuteWrite runs work in a managed, retried write transaction.
func (s *Session) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	return s.executeManaged(ctx, work)
}

// isRetryable classifies a failure as transient, per SPEC_FULL.md
// §4.11: transport errors (the connection died mid-transaction) and
// cypher errors the server tagged transient.
func isRetryable(err error) bool {
	var transportErr *TransportError
	if asTransport(err, &transportErr) {
		return true
	}
	var cypherErr *CypherError
	if asCypher(err, &cypherErr) {
		return cypherErr.IsRetryable()
	}
	return false
}

func asTransport(err error, target **TransportError) bool {
	if te, ok := err.(*TransportError); ok {
		*target = te
		return true
	}
	return false
}

func asCypher(err error, target **CypherError) bool {
	if ce, ok := err.(*CypherError); ok {
		*target = ce
		return true
	}
	return false
}

// executeManaged runs work in a fresh Transaction, retrying under
// isRetryable up to config.MaxTransactionRetryTime, per SPEC_FULL.md
// §4.11. It is the implementation behind both ExecuteRead and
// ExecuteWrite, which the core spec does not distinguish once a
// Connection for the right address is already held.
func (s *Session) executeManaged(ctx context.Context, work TransactionWork) (any, error) {
	if s.transaction != nil {
		return nil, &TransactionError{Message: "session already has an open transaction"}
	}
	state := retry.NewState(s.config.MaxTransactionRetryTime, isRetryable)
	return state.Run(func() (any, error) {
		return WithTransaction(ctx, s, work)
	})
}

// LastBookmark returns the bookmark received after the last
// successfully completed transaction, or "" if none.
func (s *Session) LastBookmark() string {
	return s.bookmarks.Last()
}

// Close closes any open Transaction (which commits or rolls back per its
// success flag; rollback unless MarkSuccess(true) or Commit was called,
// since success defaults to false), drains outstanding responses if the
// connection is still open, and releases the Connection back to the
// pool. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	var txErr error
	if s.transaction != nil {
		txErr = s.transaction.Close(ctx)
	}

	if s.conn != nil {
		if !s.conn.Closed() {
			if err := s.conn.FetchAll(); err != nil && txErr == nil {
				txErr = wrapConnErr(err)
			}
		}
		s.pool.Release(s.conn)
		s.obs.recordAcquire(ctx, -1)
		s.conn = nil
	}
	return txErr
}
