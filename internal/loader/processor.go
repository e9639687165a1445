// Package loader drives batch consumption: claim a batch from the queue,
// execute the configured statement once per event, and report completion.
// Delivery is at-least-once; a failed batch is never partially acknowledged,
// it is abandoned whole and redelivered by the queue.
package loader

import (
	"context"
	"fmt"

	"github.com/erum21/skytools/internal/model"
	"github.com/erum21/skytools/internal/render"
	"github.com/erum21/skytools/internal/sink"
)

// BatchError reports the event that aborted a batch. Per-event errors never
// escape individually; they collapse into one batch-level failure.
type BatchError struct {
	BatchID int64
	EventID int64
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d failed at event %d: %v", e.BatchID, e.EventID, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Processor processes one batch to completion or abort.
type Processor struct {
	renderer *render.Renderer
	sink     sink.Sink
}

func NewProcessor(r *render.Renderer, s sink.Sink) *Processor {
	return &Processor{renderer: r, sink: s}
}

// ProcessBatch executes the batch's events strictly in queue-assigned order.
// The first execution failure stops iteration; no later event is attempted
// and nothing already executed is rolled back. Reprocessing a redelivered
// batch therefore re-executes statements that succeeded before the failure
// point, which is why target statements must be idempotent.
func (p *Processor) ProcessBatch(ctx context.Context, batch *model.Batch) error {
	for i := range batch.Events {
		ev := &batch.Events[i]
		stmt := p.renderer.Render(ev)
		if err := p.sink.Exec(ctx, stmt); err != nil {
			return &BatchError{BatchID: batch.ID, EventID: ev.ID, Err: err}
		}
	}
	return nil
}
