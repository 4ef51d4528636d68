package application

import (
	"context"

	deliverydom "github.com/orderflow/fulfillment-service/internal/delivery/domain"
	orderdom "github.com/orderflow/fulfillment-service/internal/order/domain"
)

type DeliveryRepository interface {
	GetByOrderID(ctx context.Context, orderID string) (*deliverydom.Delivery, error)
	Save(ctx context.Context, d *deliverydom.Delivery) error
}

type OrderStore interface {
	Get(ctx context.Context, id string) (orderdom.Order, error)
	UpdateDeliveryStatus(ctx context.Context, id, status string) error
}
