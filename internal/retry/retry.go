// Package retry implements the bounded retry loop behind
// Session.ExecuteRead/ExecuteWrite, grounded in the teacher driver's
// internal/retry.State: keep retrying a transaction function while its
// failures are classified transient, up to a maximum elapsed time.
package retry

import "time"

// Classifier reports whether err should be retried.
type Classifier func(err error) bool

// State tracks one managed-transaction retry loop.
type State struct {
	MaxRetryTime time.Duration
	IsRetryable  Classifier
	Now          func() time.Time
	Sleep        func(time.Duration)

	start    time.Time
	attempt  int
	lastErr  error
	backoff  time.Duration
}

// NewState builds a State with sane defaults for Now/Sleep (time.Now /
// time.Sleep) and an initial backoff of 1 second, matching the
// teacher's throttleTime default.
func NewState(maxRetryTime time.Duration, isRetryable Classifier) *State {
	return &State{
		MaxRetryTime: maxRetryTime,
		IsRetryable:  isRetryable,
		Now:          time.Now,
		Sleep:        time.Sleep,
		backoff:      time.Second,
	}
}

// Run invokes fn until it succeeds, its error is not retryable, or the
// retry budget is exhausted, returning the final result/error.
func (s *State) Run(fn func() (any, error)) (any, error) {
	s.start = s.Now()
	for {
		s.attempt++
		result, err := fn()
		if err == nil {
			return result, nil
		}
		s.lastErr = err
		if !s.IsRetryable(err) {
			return nil, err
		}
		if s.Now().Sub(s.start) >= s.MaxRetryTime {
			return nil, &RetriesExhaustedError{Attempts: s.attempt, LastErr: err}
		}
		s.Sleep(s.backoff)
		s.backoff *= 2
	}
}

// RetriesExhaustedError is returned when the retry budget elapses
// without a successful attempt.
type RetriesExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *RetriesExhaustedError) Error() string {
	return "transaction retry time limit exceeded"
}

func (e *RetriesExhaustedError) Unwrap() error { return e.LastErr }
