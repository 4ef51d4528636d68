package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	deliverydom "github.com/orderflow/fulfillment-service/internal/delivery/domain"
	"github.com/orderflow/fulfillment-service/internal/notification"
	orderdom "github.com/orderflow/fulfillment-service/internal/order/domain"
)

type Service struct {
	log      *slog.Logger
	repo     DeliveryRepository
	orders   OrderStore
	notifier notification.Notifier
}

func NewService(log *slog.Logger, repo DeliveryRepository, orders OrderStore, notifier notification.Notifier) *Service {
	return &Service{log: log, repo: repo, orders: orders, notifier: notifier}
}

// UpdateStatus applies a delivery-partner status update. The delivery
// aggregate is created lazily on the first update; the order keeps an
// eventually-consistent mirror of the latest status.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status deliverydom.Status) (*deliverydom.Delivery, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	created := false
	d, err := s.repo.GetByOrderID(ctx, orderID)
	if errors.Is(err, deliverydom.ErrNotFound) {
		d = deliverydom.New(orderID, uuid.NewString())
		created = true
	} else if err != nil {
		return nil, err
	}

	d.Transition(status)
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}

	// Mirror onto the order; losing this write is acceptable, the delivery
	// aggregate stays authoritative.
	if err := s.orders.UpdateDeliveryStatus(ctx, orderID, string(status)); err != nil {
		s.log.Error("order delivery-status mirror failed", "order_id", orderID, "err", err)
	}

	if created {
		s.notifier.Notify(ctx, orderID, notification.EventShipmentCreated)
	}
	switch status {
	case deliverydom.StatusOutForDelivery:
		s.notifier.Notify(ctx, orderID, notification.EventOutForDelivery)
	case deliverydom.StatusDelivered:
		s.notifier.Notify(ctx, orderID, notification.EventDelivered)
		if o.Payment.Method == orderdom.MethodCOD {
			s.notifier.Notify(ctx, orderID, notification.EventCODSettlement)
		}
	}

	s.log.Info("delivery status updated", "order_id", orderID, "status", status, "created", created)
	return d, nil
}
