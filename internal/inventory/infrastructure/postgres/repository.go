package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/fulfillment-service/internal/inventory/domain"
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

// Finalize consumes reserved stock inside the caller's session. The guard is
// in the WHERE clause: a missing row or a shortfall both land on zero rows
// affected, leaving the counters untouched.
func (r *Repository) Finalize(ctx context.Context, sess storage.Session, productID string, qty int) error {
	tx, err := storagepg.Tx(sess)
	if err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `
		UPDATE stock SET reserved=reserved-$2, updated_at=$3
		WHERE product_id=$1 AND reserved >= $2`,
		productID, qty, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrInsufficientReserved
	}
	return nil
}

// Release moves reserved stock back to available inside the caller's session.
func (r *Repository) Release(ctx context.Context, sess storage.Session, productID string, qty int) error {
	tx, err := storagepg.Tx(sess)
	if err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `
		UPDATE stock SET reserved=reserved-$2, available=available+$2, updated_at=$3
		WHERE product_id=$1 AND reserved >= $2`,
		productID, qty, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrInsufficientReserved
	}
	return nil
}
