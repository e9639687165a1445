package model

import (
	"fmt"
	"time"
)

// Event is one unit of queued work: an identifier assigned by the queue,
// a type tag, the time the producer inserted it, and an open mapping of
// payload fields. Events are read-only once delivered.
type Event struct {
	ID      int64
	Type    string
	Time    time.Time
	Payload map[string]string
}

// Special field names that resolve against the event record itself rather
// than the payload mapping.
const (
	FieldID        = "id"
	FieldType      = "type"
	FieldTimestamp = "timestamp"
)

// FieldValue resolves a field name to a bindable value. The special fields
// id, type and timestamp come from the event record; any other name is
// looked up in the payload, with missing fields resolving to the empty
// string rather than an error.
func (e *Event) FieldValue(name string) any {
	switch name {
	case FieldID:
		return e.ID
	case FieldType:
		return e.Type
	case FieldTimestamp:
		return e.Time
	}
	return e.Payload[name]
}

// MalformedEventError reports a batch-listing row that could not be decoded
// into an Event. The whole batch is abandoned when one is seen.
type MalformedEventError struct {
	BatchID int64
	Reason  string
	Err     error
}

func (e *MalformedEventError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed event in batch %d: %s: %v", e.BatchID, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed event in batch %d: %s", e.BatchID, e.Reason)
}

func (e *MalformedEventError) Unwrap() error { return e.Err }
