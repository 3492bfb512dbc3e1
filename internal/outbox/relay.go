// Package outbox publishes rows written by the audit store to Kafka. Rows are
// written in the same transaction as the state change, so events are never
// lost even if the broker is down when the change commits.
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"opsdesk/internal/platform/kafka"
)

const batchSize = 100

// Relay polls the outbox table and forwards unpublished rows to Kafka.
type Relay struct {
	db       *sql.DB
	producer *kafka.Producer
	topic    string
	interval time.Duration
	logger   *slog.Logger
}

func NewRelay(db *sql.DB, producer *kafka.Producer, topic string, interval time.Duration, logger *slog.Logger) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{db: db, producer: producer, topic: topic, interval: interval, logger: logger}
}

// Run polls until the context is cancelled. Publish failures are logged and
// retried on the next tick; rows stay unpublished until the broker accepts them.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil {
				r.logger.WarnContext(ctx, "outbox drain failed", slog.String("error", err.Error()))
			}
		}
	}
}

type row struct {
	id          string
	aggregateID string
	eventType   string
	payload     []byte
}

func (r *Relay) drainOnce(ctx context.Context) error {
	query := `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, batchSize)
	if err != nil {
		return fmt.Errorf("select outbox: %w", err)
	}
	defer rows.Close()

	var pending []row
	for rows.Next() {
		var rec row
		if err := rows.Scan(&rec.id, &rec.aggregateID, &rec.eventType, &rec.payload); err != nil {
			return fmt.Errorf("scan outbox row: %w", err)
		}
		pending = append(pending, rec)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, rec := range pending {
		if err := r.producer.Produce(ctx, r.topic, []byte(rec.aggregateID), rec.payload); err != nil {
			return err
		}
		if err := r.markPublished(ctx, rec.id); err != nil {
			return err
		}
	}
	return nil
}

func (r *Relay) markPublished(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE outbox SET published_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark outbox row published: %w", err)
	}
	return nil
}
