package application

import (
	"context"

	orderdom "github.com/orderflow/fulfillment-service/internal/order/domain"
	"github.com/orderflow/fulfillment-service/internal/storage"
)

type OrderRepository interface {
	Get(ctx context.Context, id string) (orderdom.Order, error)
	// SavePayment writes the order's payment fields inside the session with
	// an optimistic version check; storage.ErrConflict on a lost race.
	SavePayment(ctx context.Context, sess storage.Session, o orderdom.Order) error
	// AdvanceStatus moves the order status only if it currently equals from.
	// Runs outside any session; best-effort.
	AdvanceStatus(ctx context.Context, id string, from, to orderdom.Status) error
}

type InventoryService interface {
	FinalizeStock(ctx context.Context, sess storage.Session, productID string, qty int) error
	ReleaseReservedStock(ctx context.Context, sess storage.Session, productID string, qty int) error
}
