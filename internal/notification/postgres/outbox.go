package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/fulfillment-service/pkg/outbox"
	"github.com/orderflow/fulfillment-service/pkg/tracing"
)

// Notifier enqueues notification events into the transactional outbox. The
// insert runs in its own short transaction, deliberately outside any payment
// reconciliation scope; failures are logged and swallowed.
type Notifier struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewNotifier(log *slog.Logger, pool *pgxpool.Pool) *Notifier {
	return &Notifier{log: log, pool: pool}
}

func (n *Notifier) Notify(ctx context.Context, orderID, eventType string) {
	payload, err := json.Marshal(map[string]string{"orderId": orderID, "event": eventType})
	if err != nil {
		n.log.Error("notification payload marshal failed", "order_id", orderID, "err", err)
		return
	}
	_, err = n.pool.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ('notification', $1, $2, $3, $4, $5)`,
		orderID, eventType, payload, tracing.Traceparent(ctx), string(outbox.StatusPending))
	if err != nil {
		n.log.Error("notification enqueue failed", "order_id", orderID, "event", eventType, "err", err)
		return
	}
	n.log.Info("notification enqueued", "order_id", orderID, "event", eventType)
}

// OutboxStore implements outbox.Store on the shared outbox table.
type OutboxStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOutboxStore(log *slog.Logger, pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{log: log, pool: pool}
}

func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, COALESCE(traceparent, ''), created_at
		FROM outbox
		WHERE status=$2 OR (status=$3 AND lease_until < now())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1`, batchSize, string(outbox.StatusPending), string(outbox.StatusInProgress))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []outbox.Event
	for rows.Next() {
		var event outbox.Event
		if err := rows.Scan(&event.ID, &event.AggregateType, &event.AggregateID,
			&event.Type, &event.Payload, &event.Traceparent, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	_, err = tx.Exec(ctx, `
		UPDATE outbox SET status=$4, relay_id=$1, lease_until=now() + $2::interval
		WHERE id = ANY($3)`, relayID, lease.String(), ids, string(outbox.StatusInProgress))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET status=$2 WHERE id = ANY($1)`,
		ids, string(outbox.StatusSent))
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox SET status=$3, last_error=$2, retry_count=retry_count+1
		WHERE id=$1`, id, errMsg, string(outbox.StatusFailed))
	return err
}
