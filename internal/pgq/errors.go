package pgq

import "fmt"

// QueueUnavailableError wraps a failure to reach the queue database. The
// consumer loop treats these as retryable: it backs off and polls again,
// or terminates once its retry budget is exhausted.
type QueueUnavailableError struct {
	Op  string
	Err error
}

func (e *QueueUnavailableError) Error() string {
	return fmt.Sprintf("queue unavailable during %s: %v", e.Op, e.Err)
}

func (e *QueueUnavailableError) Unwrap() error { return e.Err }
