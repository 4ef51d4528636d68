package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/fulfillment-service/internal/delivery/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error) {
	return r.get(ctx, `WHERE order_id=$1`, orderID)
}

func (r *Repository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Delivery, error) {
	return r.get(ctx, `WHERE tracking_id=$1`, trackingID)
}

func (r *Repository) get(ctx context.Context, where, arg string) (*domain.Delivery, error) {
	var d domain.Delivery
	err := r.pool.QueryRow(ctx, `
		SELECT order_id, tracking_id, status, created_at, updated_at
		FROM deliveries `+where, arg).
		Scan(&d.OrderID, &d.TrackingID, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, changed_at FROM delivery_history
		WHERE order_id=$1 ORDER BY id`, d.OrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var change domain.StatusChange
		if err := rows.Scan(&change.Status, &change.At); err != nil {
			return nil, err
		}
		d.History = append(d.History, change)
	}
	return &d, rows.Err()
}

// Save upserts the delivery row and appends every history entry not yet on
// disk, so the initial pending entry of a lazily created delivery is kept
// alongside the transition that created it. The delivery aggregate is not
// part of the payment transactional scope, so a plain short transaction is
// enough.
func (r *Repository) Save(ctx context.Context, d *domain.Delivery) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO deliveries (order_id, tracking_id, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (order_id) DO UPDATE SET status=$3, updated_at=$5`,
		d.OrderID, d.TrackingID, d.Status, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return err
	}

	var persisted int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM delivery_history WHERE order_id=$1`, d.OrderID).Scan(&persisted)
	if err != nil {
		return err
	}
	if persisted > len(d.History) {
		persisted = len(d.History)
	}
	for _, change := range d.History[persisted:] {
		_, err = tx.Exec(ctx, `
			INSERT INTO delivery_history (order_id, status, changed_at) VALUES ($1,$2,$3)`,
			d.OrderID, change.Status, change.At)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
