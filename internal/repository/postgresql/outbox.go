package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/outbox"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
)

type outboxRepository struct {
	db *database.DB
}

func NewOutboxRepository(db *database.DB) outbox.Repository {
	return &outboxRepository{db: db}
}

// Create joins the caller's transaction when ctx carries one.
func (r *outboxRepository) Create(ctx context.Context, event outbox.Event) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO outbox_events (
			id, aggregate_type, aggregate_id, event_type, topic, payload, status, next_retry_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		event.ID, event.AggregateType, event.AggregateID, event.EventType,
		event.Topic, event.Payload, event.Status, event.NextRetryAt, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	return nil
}

// ListPending returns pending events and failed events whose backoff elapsed.
func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, topic, payload, status,
			   retry_count, COALESCE(next_retry_at, created_at), created_at
		FROM outbox_events
		WHERE status IN ($1, $2)
			AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := q.Query(ctx, query, outbox.StatusPending, outbox.StatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox events: %w", err)
	}
	defer rows.Close()

	events := make([]outbox.Event, 0, limit)
	for rows.Next() {
		var e outbox.Event
		if err := rows.Scan(
			&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Topic, &e.Payload, &e.Status,
			&e.RetryCount, &e.NextRetryAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}

	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE outbox_events
		SET status = $2, processed_at = NOW(), error_message = NULL, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := q.Exec(ctx, query, id, outbox.StatusSent); err != nil {
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}

	return nil
}

// MarkFailed backs off linearly, 15s per attempt up to 150s. After
// outbox.MaxRetries failures the event is dead and no longer listed.
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE outbox_events
		SET status = CASE WHEN retry_count + 1 >= $4 THEN $5 ELSE $2 END,
			retry_count = retry_count + 1,
			error_message = LEFT($3, 500),
			next_retry_at = NOW() + (LEAST(retry_count + 1, 10) * INTERVAL '15 seconds'),
			updated_at = NOW()
		WHERE id = $1
	`

	if _, err := q.Exec(ctx, query, id, outbox.StatusFailed, reason, outbox.MaxRetries, outbox.StatusDead); err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}

	return nil
}
