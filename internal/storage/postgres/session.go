package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/fulfillment-service/internal/storage"
)

type Provider struct {
	pool *pgxpool.Pool
}

func NewProvider(pool *pgxpool.Pool) *Provider {
	return &Provider{pool: pool}
}

func (p *Provider) Begin(ctx context.Context) (storage.Session, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &Session{tx: tx}, nil
}

// Session wraps a single pgx transaction. Rollback after a successful commit
// is a no-op so callers can defer it unconditionally.
type Session struct {
	tx pgx.Tx
}

func (s *Session) Commit(ctx context.Context) error {
	return s.tx.Commit(ctx)
}

func (s *Session) Rollback(ctx context.Context) error {
	if err := s.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// Tx extracts the pgx transaction from a session handed out by this provider.
func Tx(sess storage.Session) (pgx.Tx, error) {
	s, ok := sess.(*Session)
	if !ok {
		return nil, fmt.Errorf("storage/postgres: session is %T, want *Session", sess)
	}
	return s.tx, nil
}
