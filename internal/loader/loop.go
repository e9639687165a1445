package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erum21/skytools/internal/events"
	"github.com/erum21/skytools/internal/model"
)

// maxBackoff caps the exponential backoff applied after consecutive queue
// failures.
const maxBackoff = time.Minute

// QueueClient is the queue protocol surface the loop needs. *pgq.Queue
// implements it; tests substitute fakes.
type QueueClient interface {
	Register(ctx context.Context, queue, consumer string) error
	NextBatch(ctx context.Context, queue, consumer string) (*model.Batch, error)
	BatchEvents(ctx context.Context, batchID int64) ([]model.Event, error)
	FinishBatch(ctx context.Context, batchID int64) error
}

// Options configure one loop instance.
type Options struct {
	QueueName    string
	ConsumerName string
	InstanceID   string
	PollInterval time.Duration

	// MaxQueueFailures bounds consecutive queue errors before Run returns
	// with an error. 0 retries forever.
	MaxQueueFailures int
}

// Loop is the process-lifetime driver: register once, then claim, process
// and finish batches until the context is canceled. It runs single-threaded;
// at most one batch is in flight, and cancellation is only observed between
// batches so that accepted work is never silently dropped mid-batch.
type Loop struct {
	queue     QueueClient
	processor *Processor
	publisher events.Publisher
	logger    *slog.Logger
	opts      Options
}

func NewLoop(queue QueueClient, processor *Processor, publisher events.Publisher, logger *slog.Logger, opts Options) *Loop {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	return &Loop{
		queue:     queue,
		processor: processor,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

// Run blocks until the context is canceled (returns nil) or the queue
// failure budget is exhausted (returns an error). A failed batch is logged
// and abandoned: the finish call is skipped and the loop moves on, relying
// on queue redelivery as the only recovery mechanism.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.queue.Register(ctx, l.opts.QueueName, l.opts.ConsumerName); err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}
	l.logger.Info("consumer registered",
		"queue", l.opts.QueueName,
		"consumer", l.opts.ConsumerName,
		"instance", l.opts.InstanceID,
	)
	l.publish(ctx, events.TopicConsumerStarted, events.ConsumerStarted{
		Queue:      l.opts.QueueName,
		Consumer:   l.opts.ConsumerName,
		InstanceID: l.opts.InstanceID,
		StartedAt:  time.Now().UTC(),
	})

	// In-flight batch work runs on a non-cancelable context: the shutdown
	// signal is only observed between batches, so an accepted batch is
	// never aborted mid-statement.
	workCtx := context.WithoutCancel(ctx)

	queueFailures := 0
	for {
		if err := ctx.Err(); err != nil {
			l.stopped(ctx, "shutdown signal")
			return nil
		}

		batch, err := l.queue.NextBatch(ctx, l.opts.QueueName, l.opts.ConsumerName)
		if err != nil {
			if ctx.Err() != nil {
				l.stopped(ctx, "shutdown signal")
				return nil
			}
			queueFailures++
			if exceeded := l.checkBudget(queueFailures, err); exceeded != nil {
				return exceeded
			}
			l.logger.Warn("claim failed, backing off", "err", err, "consecutive", queueFailures)
			if !l.sleep(ctx, backoff(l.opts.PollInterval, queueFailures)) {
				l.stopped(ctx, "shutdown signal")
				return nil
			}
			continue
		}
		queueFailures = 0

		if batch == nil {
			if !l.sleep(ctx, l.opts.PollInterval) {
				l.stopped(ctx, "shutdown signal")
				return nil
			}
			continue
		}

		if err := l.runBatch(workCtx, batch); err != nil {
			var qerr *queueFailure
			if errors.As(err, &qerr) {
				queueFailures++
				if exceeded := l.checkBudget(queueFailures, qerr.err); exceeded != nil {
					return exceeded
				}
				l.logger.Warn("queue call failed, backing off", "batch", batch.ID, "err", qerr.err)
				if !l.sleep(ctx, backoff(l.opts.PollInterval, queueFailures)) {
					l.stopped(ctx, "shutdown signal")
					return nil
				}
				continue
			}
			// Batch-level failure, already logged. The queue redelivers the
			// same batch on the next claim, so pause a full poll interval
			// first; a persistently failing statement must not spin
			// claim/execute cycles against either database.
			if !l.sleep(ctx, l.opts.PollInterval) {
				l.stopped(ctx, "shutdown signal")
				return nil
			}
		}
	}
}

// queueFailure marks errors from runBatch that count against the queue
// failure budget, as opposed to batch failures that only trigger redelivery.
type queueFailure struct{ err error }

func (e *queueFailure) Error() string { return e.err.Error() }

// runBatch fetches the batch's events, processes them, and finishes the
// batch on success. Any failure leaves the batch unfinished.
func (l *Loop) runBatch(ctx context.Context, batch *model.Batch) error {
	evs, err := l.queue.BatchEvents(ctx, batch.ID)
	if err != nil {
		var merr *model.MalformedEventError
		if errors.As(err, &merr) {
			l.batchFailed(ctx, batch, 0, err)
			return err
		}
		return &queueFailure{err: err}
	}
	batch.Events = evs

	if err := l.processor.ProcessBatch(ctx, batch); err != nil {
		var berr *BatchError
		eventID := int64(0)
		if errors.As(err, &berr) {
			eventID = berr.EventID
		}
		l.batchFailed(ctx, batch, eventID, err)
		return err
	}

	if err := l.queue.FinishBatch(ctx, batch.ID); err != nil {
		// The batch was fully processed but never acknowledged; the queue
		// will redeliver it. At-least-once makes this safe for idempotent
		// target statements.
		return &queueFailure{err: err}
	}

	l.logger.Info("batch finished", "batch", batch.ID, "events", len(batch.Events))
	l.publish(ctx, events.TopicBatchFinished, events.BatchFinished{
		Queue:      batch.Queue,
		Consumer:   batch.Consumer,
		InstanceID: l.opts.InstanceID,
		BatchID:    batch.ID,
		Events:     len(batch.Events),
	})
	return nil
}

func (l *Loop) batchFailed(ctx context.Context, batch *model.Batch, eventID int64, err error) {
	l.logger.Error("batch failed, leaving unfinished for redelivery",
		"batch", batch.ID, "event", eventID, "err", err)
	l.publish(ctx, events.TopicBatchFailed, events.BatchFailed{
		Queue:      batch.Queue,
		Consumer:   batch.Consumer,
		InstanceID: l.opts.InstanceID,
		BatchID:    batch.ID,
		EventID:    eventID,
		Error:      err.Error(),
	})
}

func (l *Loop) checkBudget(failures int, err error) error {
	if l.opts.MaxQueueFailures > 0 && failures >= l.opts.MaxQueueFailures {
		return fmt.Errorf("queue unavailable after %d consecutive attempts: %w", failures, err)
	}
	return nil
}

func (l *Loop) stopped(ctx context.Context, reason string) {
	l.logger.Info("consumer stopping", "reason", reason)
	// Use a fresh context: the loop context is already canceled.
	pubCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	l.publish(pubCtx, events.TopicConsumerStopped, events.ConsumerStopped{
		Queue:      l.opts.QueueName,
		Consumer:   l.opts.ConsumerName,
		InstanceID: l.opts.InstanceID,
		Reason:     reason,
	})
}

func (l *Loop) publish(ctx context.Context, topic string, event any) {
	if err := l.publisher.Publish(ctx, topic, event); err != nil {
		l.logger.Warn("event publish failed", "topic", topic, "err", err)
	}
}

// sleep waits for d or until the context is canceled; it reports false on
// cancellation.
func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// backoff returns the delay before the next attempt after n consecutive
// failures: base doubling per failure, capped at maxBackoff.
func backoff(base time.Duration, n int) time.Duration {
	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
