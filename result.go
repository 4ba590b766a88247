package graphbolt

// Summary is the outcome of a fully-consumed StatementResult: whatever
// metadata the server sent on the PULL_ALL footer, keyed by the
// server's own field names (no core-level interpretation is placed on
// them, per spec.md §1's non-goal on result caching/interpretation).
type Summary struct {
	Statement  string
	Parameters map[string]any
	Metadata   map[string]any
}

// StatementResult is a lazy, forward-only, single-pass sequence of
// Records streamed from a Connection, per spec.md §3/§4.4.
type StatementResult struct {
	conn *Connection

	statement  string
	parameters map[string]any

	keys     []string
	keysSet  bool
	buffer   [][]any
	summary  *Summary
	consumed bool
	failure  error

	codecHydrate func(any) any
}

// newStatementResult wires RUN/PULL_ALL Response hooks per spec.md
// §4.4: RUN.on_success populates keys; PULL_ALL.on_record buffers rows;
// PULL_ALL.on_success builds the summary and marks consumed; either
// failure marks consumed and records a CypherError observed at the
// point iteration reaches it.
func newStatementResult(conn *Connection, statement string, parameters map[string]any, hydrate func(any) any) (*StatementResult, *Response, *Response) {
	sr := &StatementResult{
		conn:         conn,
		statement:    statement,
		parameters:   parameters,
		codecHydrate: hydrate,
	}

	runResponse := &Response{
		OnSuccess: func(meta map[string]any) {
			if fields, ok := meta["fields"].([]string); ok {
				sr.keys = fields
			} else if fields, ok := meta["fields"].([]any); ok {
				sr.keys = make([]string, len(fields))
				for i, f := range fields {
					if s, ok := f.(string); ok {
						sr.keys[i] = s
					}
				}
			}
			sr.keysSet = true
		},
		OnFailure: func(meta map[string]any) {
			sr.keysSet = true
			sr.consumed = true
			sr.failure = &CypherError{Metadata: meta}
		},
	}

	pullAllResponse := &Response{
		OnRecord: func(values []any) {
			sr.buffer = append(sr.buffer, values)
		},
		OnSuccess: func(meta map[string]any) {
			sr.summary = &Summary{Statement: statement, Parameters: parameters, Metadata: meta}
			sr.consumed = true
		},
		OnFailure: func(meta map[string]any) {
			sr.consumed = true
			sr.failure = &CypherError{Metadata: meta}
		},
	}

	return sr, runResponse, pullAllResponse
}

func (r *StatementResult) hydrateRecord(values []any) *Record {
	hydrated := make([]any, len(values))
	for i, v := range values {
		if r.codecHydrate != nil {
			hydrated[i] = r.codecHydrate(v)
		} else {
			hydrated[i] = v
		}
	}
	rec, _ := NewRecord(r.keys, hydrated)
	return rec
}

// Keys blocks on fetches until the result header is known or the stream
// is consumed, then returns the field names.
func (r *StatementResult) Keys() ([]string, error) {
	for !r.keysSet && !r.consumed {
		if _, err := r.conn.Fetch(); err != nil {
			return nil, wrapConnErr(err)
		}
	}
	return r.keys, nil
}

// Next advances the single-pass cursor, returning the next Record, or
// (nil, false, nil) at clean end of stream. An error return means the
// server reported a failure or a transport error occurred.
func (r *StatementResult) Next() (*Record, bool, error) {
	for {
		if len(r.buffer) > 0 {
			values := r.buffer[0]
			r.buffer = r.buffer[1:]
			if _, err := r.Keys(); err != nil {
				return nil, false, err
			}
			return r.hydrateRecord(values), true, nil
		}
		if r.consumed {
			if r.failure != nil {
				return nil, false, r.failure
			}
			return nil, false, nil
		}
		if r.conn == nil {
			return nil, false, &UsageError{Message: "result is detached from its connection but not fully buffered"}
		}
		if _, err := r.conn.Fetch(); err != nil {
			return nil, false, wrapConnErr(err)
		}
	}
}

// Peek returns the head Record without removing it, fetching as needed.
// It fails with ResultError if no more records will arrive.
func (r *StatementResult) Peek() (*Record, error) {
	for len(r.buffer) == 0 && !r.consumed {
		if r.conn == nil {
			return nil, &UsageError{Message: "result is detached from its connection but not fully buffered"}
		}
		if _, err := r.conn.Fetch(); err != nil {
			return nil, wrapConnErr(err)
		}
	}
	if len(r.buffer) == 0 {
		if r.failure != nil {
			return nil, r.failure
		}
		return nil, &ResultError{Message: "end of stream"}
	}
	if _, err := r.Keys(); err != nil {
		return nil, err
	}
	return r.hydrateRecord(r.buffer[0]), nil
}

// Single materializes the full result and requires exactly one record,
// failing with a ResultError distinguishing empty from more-than-one
// (spec.md §4.4/§8 S6).
func (r *StatementResult) Single() (*Record, error) {
	records, err := r.Collect()
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, &ResultError{Message: "cannot retrieve a single record because this result is empty"}
	case 1:
		return records[0], nil
	default:
		return nil, &ResultError{Message: "expected a result with a single record, but this result contains more than one"}
	}
}

// Collect drains the entire result into a slice, in arrival order.
func (r *StatementResult) Collect() ([]*Record, error) {
	var out []*Record
	for {
		rec, ok, err := r.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}

// Buffer fetches the remainder of the stream into the in-memory buffer
// and detaches the Connection reference, so the caller can release the
// Connection back to the pool without losing already-received data.
// Idempotent.
func (r *StatementResult) Buffer() error {
	if r.conn == nil {
		return nil
	}
	if !r.conn.Closed() {
		for !r.consumed {
			if _, err := r.conn.Fetch(); err != nil {
				r.conn = nil
				return wrapConnErr(err)
			}
		}
	}
	r.conn = nil
	return nil
}

// Consume fully drains the result, detaches the connection, and returns
// the summary.
func (r *StatementResult) Consume() (*Summary, error) {
	if r.conn != nil && !r.conn.Closed() {
		if _, err := r.Collect(); err != nil && r.failure == nil {
			return nil, err
		}
		r.conn = nil
	}
	if r.failure != nil {
		return nil, r.failure
	}
	return r.summary, nil
}
