package application

import (
	"context"

	"github.com/orderflow/fulfillment-service/internal/storage"
)

// StockRepository mutates the per-product counters inside the caller's
// session. Both operations must fail without effect when the reserved count
// would go negative.
type StockRepository interface {
	Finalize(ctx context.Context, sess storage.Session, productID string, qty int) error
	Release(ctx context.Context, sess storage.Session, productID string, qty int) error
}
