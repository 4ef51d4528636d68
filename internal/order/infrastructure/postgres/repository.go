package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/fulfillment-service/internal/order/domain"
	"github.com/orderflow/fulfillment-service/internal/storage"
	storagepg "github.com/orderflow/fulfillment-service/internal/storage/postgres"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, payment_method, payment_status, COALESCE(external_payment_id, ''),
		       status, COALESCE(delivery_status, ''), version, created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.Payment.Method, &o.Payment.Status, &o.Payment.ExternalPaymentID,
			&o.Status, &o.DeliveryStatus, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, quantity, unit_price_cents
		FROM order_items WHERE order_id=$1 ORDER BY product_id`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPriceCents); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

// SavePayment updates the payment fields inside the caller's session with an
// optimistic version check. Zero rows affected means another writer got
// there first.
func (r *Repository) SavePayment(ctx context.Context, sess storage.Session, o domain.Order) error {
	tx, err := storagepg.Tx(sess)
	if err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status=$2, external_payment_id=NULLIF($3, ''), version=version+1, updated_at=$4
		WHERE id=$1 AND version=$5`,
		o.ID, o.Payment.Status, o.Payment.ExternalPaymentID, time.Now().UTC(), o.Version)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrConflict
	}
	return nil
}

// AdvanceStatus is a conditional single-row update outside any session; if
// the order already moved past from, it is a no-op.
func (r *Repository) AdvanceStatus(ctx context.Context, id string, from, to domain.Status) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE orders SET status=$3, version=version+1, updated_at=$4
		WHERE id=$1 AND status=$2`,
		id, from, to, time.Now().UTC())
	return err
}

// UpdateDeliveryStatus mirrors the delivery aggregate's state onto the order.
func (r *Repository) UpdateDeliveryStatus(ctx context.Context, id, status string) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE orders SET delivery_status=$2, version=version+1, updated_at=$3
		WHERE id=$1`,
		id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
