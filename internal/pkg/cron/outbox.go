package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/outbox"
)

// EventPublisher delivers one outbox event to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, event outbox.Event) error
}

// OutboxJobs relays committed outbox events to the broker.
type OutboxJobs struct {
	outboxRepo outbox.Repository
	publisher  EventPublisher
	batchSize  int
	logger     *slog.Logger
}

func NewOutboxJobs(outboxRepo outbox.Repository, publisher EventPublisher, batchSize int, logger *slog.Logger) *OutboxJobs {
	if batchSize <= 0 {
		batchSize = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxJobs{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		batchSize:  batchSize,
		logger:     logger,
	}
}

func (j *OutboxJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("relay_outbox_events", interval, j.RelayPending)
}

// RelayPending publishes one batch. A failed publish marks that event for
// retry and moves on; only listing errors fail the job.
func (j *OutboxJobs) RelayPending(ctx context.Context) error {
	events, err := j.outboxRepo.ListPending(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending outbox events: %w", err)
	}

	if len(events) == 0 {
		return nil
	}

	j.logger.Info("Cron: Relaying outbox events", "count", len(events))

	sent := 0
	for _, event := range events {
		if err := j.publisher.Publish(ctx, event); err != nil {
			j.logger.Error("Cron: Failed to publish outbox event",
				"outbox_id", event.ID,
				"event_type", event.EventType,
				"topic", event.Topic,
				"retry_count", event.RetryCount,
				"error", err,
			)
			if markErr := j.outboxRepo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				j.logger.Error("Cron: Failed to mark outbox event failed", "outbox_id", event.ID, "error", markErr)
			} else if event.Exhausted() {
				j.logger.Warn("Cron: Outbox event is dead, giving up",
					"outbox_id", event.ID,
					"event_type", event.EventType,
					"max_retries", outbox.MaxRetries,
				)
			}
			continue
		}

		if err := j.outboxRepo.MarkSent(ctx, event.ID); err != nil {
			j.logger.Error("Cron: Failed to mark outbox event sent", "outbox_id", event.ID, "error", err)
			continue
		}
		sent++
	}

	j.logger.Info("Cron: Outbox relay finished", "sent", sent, "failed", len(events)-sent)
	return nil
}
