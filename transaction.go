package graphbolt

import "context"

// Transaction is an explicit BEGIN/COMMIT/ROLLBACK-scoped group of
// statements within a Session, per spec.md §3/§4.7. Its lifecycle is
// OPEN → CLOSED, an irreversible transition. Close sends COMMIT if
// Success is true when it runs, else ROLLBACK — so a Transaction that
// is abandoned without ever setting Success commits nothing (spec.md
// §8.7).
type Transaction struct {
	conn *Connection
	code Codec
	obs  *observability

	success bool
	closed  bool

	// onClose fires once, when Close runs, with the bookmark the
	// COMMIT/ROLLBACK footer reported ("" if none). Session uses it to
	// clear its open-transaction field and to fold the new bookmark into
	// its bookmark set, mirroring the teacher's retrieveBookmarks/
	// onClosed pattern.
	onClose func(bookmark string)
}

// newTransaction synchronously issues BEGIN on conn, forwarding
// bookmarks as the set the server should be at-least-as-caught-up-as,
// and returns the resulting Transaction wired to call onClose when it
// closes.
func newTransaction(ctx context.Context, conn *Connection, codecImpl Codec, obs *observability, bookmarks Bookmarks, onClose func(bookmark string)) (*Transaction, error) {
	var params map[string]any
	if len(bookmarks) > 0 {
		params = map[string]any{"bookmarks": []string(bookmarks)}
	}
	sr, err := runOnConnection(conn, codecImpl, obs, ctx, conn.Address, "BEGIN", params)
	if err != nil {
		return nil, err
	}
	if _, err := sr.Consume(); err != nil {
		return nil, err
	}
	return &Transaction{conn: conn, code: codecImpl, obs: obs, onClose: onClose}, nil
}

// Run executes statement within this transaction. It fails with a
// TransactionError if the transaction is already closed.
func (t *Transaction) Run(ctx context.Context, statement string, parameters map[string]any) (*StatementResult, error) {
	if t.closed {
		return nil, &TransactionError{Message: "cannot run a statement on a closed transaction"}
	}
	return runOnConnection(t.conn, t.code, t.obs, ctx, t.conn.Address, statement, parameters)
}

// Success reports the commit-or-rollback flag that Close will act on.
// It can be flipped any number of times before Close runs; only the
// final value takes effect (spec.md §4.7).
func (t *Transaction) Success() bool { return t.success }

// MarkSuccess sets whether Close should COMMIT (true) or ROLLBACK
// (false, the default) when it runs.
func (t *Transaction) MarkSuccess(success bool) { t.success = success }

// Commit marks the transaction successful and closes it, triggering a
// COMMIT.
func (t *Transaction) Commit(ctx context.Context) error {
	t.success = true
	return t.Close(ctx)
}

// Rollback marks the transaction unsuccessful and closes it, triggering
// a ROLLBACK.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.success = false
	return t.Close(ctx)
}

// Close sends COMMIT if Success is true, else ROLLBACK, and marks the
// transaction closed. Idempotent, per spec.md §5's double-close
// guarantee. A successful COMMIT's footer may carry a "bookmark" key;
// when it does, Close passes it to onClose so the owning Session can
// propagate it to the next transaction (SPEC_FULL.md §4.11).
func (t *Transaction) Close(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true

	statement := "ROLLBACK"
	if t.success {
		statement = "COMMIT"
	}
	sr, err := runOnConnection(t.conn, t.code, t.obs, ctx, t.conn.Address, statement, nil)
	var bookmark string
	if err == nil {
		var summary *Summary
		summary, err = sr.Consume()
		if summary != nil {
			if bk, ok := summary.Metadata["bookmark"].(string); ok {
				bookmark = bk
			}
		}
	}
	if t.onClose != nil {
		t.onClose(bookmark)
	}
	return err
}

// TransactionWork is a unit of work run against a managed Transaction by
// ExecuteRead/ExecuteWrite, retried on transient failure per
// SPEC_FULL.md §4.11.
type TransactionWork func(tx *Transaction) (any, error)

// WithTransaction runs work against a freshly begun Transaction,
// committing on a nil return and rolling back otherwise — the scoped-use
// discipline spec.md §4.7 describes: exiting with an unhandled error
// forces success=false before Close runs.
func WithTransaction(ctx context.Context, session *Session, work func(tx *Transaction) (any, error)) (result any, err error) {
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.MarkSuccess(false)
			_ = tx.Close(ctx)
			panic(r)
		}
	}()

	result, err = work(tx)
	if err != nil {
		tx.MarkSuccess(false)
		_ = tx.Close(ctx)
		return nil, err
	}
	tx.MarkSuccess(true)
	if closeErr := tx.Close(ctx); closeErr != nil {
		return nil, closeErr
	}
	return result, nil
}
