package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/microloans/loan-service/internal/ports"
)

// OutboxWorker pulls unpublished outbox records and publishes them.
// This separates transactional writes from broker delivery for reliability.
type OutboxWorker struct {
	logger    *slog.Logger
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	interval  time.Duration
	batchSize int
	claimTTL  time.Duration
}

func NewOutboxWorker(
	logger *slog.Logger,
	outbox ports.OutboxRepository,
	publisher ports.EventPublisher,
	interval time.Duration,
	batchSize int,
	claimTTL time.Duration,
) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if claimTTL <= 0 {
		claimTTL = 30 * time.Second
	}
	return &OutboxWorker{
		logger:    logger,
		outbox:    outbox,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		claimTTL:  claimTTL,
	}
}

// Run executes the periodic outbox publish loop until context cancellation.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.ProcessOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "outbox_process_once",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessOnce claims one batch and publishes it. Publish failures release the
// claim so another iteration (or worker) retries the record.
func (w *OutboxWorker) ProcessOnce(ctx context.Context) error {
	now := time.Now().UTC()
	records, err := w.outbox.ClaimPending(ctx, w.batchSize, w.claimTTL, now)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if err := w.publisher.Publish(ctx, rec.EventType, rec.Payload); err != nil {
			w.logger.WarnContext(ctx, "event publish failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "publish",
				"outcome", "failure",
				"record_id", rec.RecordID.String(),
				"event_type", rec.EventType,
				"error", err,
			)
			if markErr := w.outbox.MarkFailed(ctx, rec.RecordID, err.Error(), time.Now().UTC()); markErr != nil {
				return markErr
			}
			continue
		}
		if err := w.outbox.MarkPublished(ctx, rec.RecordID, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}
