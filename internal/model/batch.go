package model

// Batch is an atomically-claimed group of pending events assigned to one
// consumer. The queue owns batch identity; a batch is either processed to
// completion and closed, or abandoned for redelivery. There is no partial
// close.
type Batch struct {
	ID       int64
	Queue    string
	Consumer string

	// Events in queue-assigned order. Processing must preserve this order
	// so that reprocessing a redelivered batch is deterministic.
	Events []Event
}
