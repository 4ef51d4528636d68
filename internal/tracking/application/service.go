// Package application implements the public tracking read path: a projection
// of delivery and order state into human-readable labels, no mutation.
package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	deliverydom "github.com/orderflow/fulfillment-service/internal/delivery/domain"
	orderdom "github.com/orderflow/fulfillment-service/internal/order/domain"
)

var ErrNotFound = errors.New("tracking: no order or delivery for identifier")

type DeliveryReader interface {
	GetByOrderID(ctx context.Context, orderID string) (*deliverydom.Delivery, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*deliverydom.Delivery, error)
}

type OrderReader interface {
	Get(ctx context.Context, id string) (orderdom.Order, error)
}

type Event struct {
	Status string    `json:"status"`
	Label  string    `json:"label"`
	At     time.Time `json:"at"`
}

type View struct {
	OrderID     string  `json:"orderId"`
	TrackingID  string  `json:"trackingId,omitempty"`
	Status      string  `json:"status"`
	StatusLabel string  `json:"statusLabel"`
	History     []Event `json:"history,omitempty"`
}

type Service struct {
	log        *slog.Logger
	deliveries DeliveryReader
	orders     OrderReader
}

func NewService(log *slog.Logger, deliveries DeliveryReader, orders OrderReader) *Service {
	return &Service{log: log, deliveries: deliveries, orders: orders}
}

// Track resolves id as a tracking id first, then as an order id. When no
// delivery exists yet, the projection falls back to the status fields stored
// on the order itself.
func (s *Service) Track(ctx context.Context, id string) (View, error) {
	d, err := s.deliveries.GetByTrackingID(ctx, id)
	if errors.Is(err, deliverydom.ErrNotFound) {
		d, err = s.deliveries.GetByOrderID(ctx, id)
	}
	if err != nil && !errors.Is(err, deliverydom.ErrNotFound) {
		return View{}, err
	}
	if d != nil {
		return viewFromDelivery(d), nil
	}

	o, err := s.orders.Get(ctx, id)
	if errors.Is(err, orderdom.ErrNotFound) {
		return View{}, ErrNotFound
	}
	if err != nil {
		return View{}, err
	}

	code := o.DeliveryStatus
	if code == "" {
		code = string(o.Status)
	}
	return View{
		OrderID:     o.ID,
		Status:      code,
		StatusLabel: StatusLabel(code),
	}, nil
}

func viewFromDelivery(d *deliverydom.Delivery) View {
	v := View{
		OrderID:     d.OrderID,
		TrackingID:  d.TrackingID,
		Status:      string(d.Status),
		StatusLabel: StatusLabel(string(d.Status)),
	}
	for _, change := range d.History {
		v.History = append(v.History, Event{
			Status: string(change.Status),
			Label:  StatusLabel(string(change.Status)),
			At:     change.At,
		})
	}
	return v
}

// StatusLabel maps internal status codes to the labels shown on the tracking
// page. Unrecognized codes read as Processing.
func StatusLabel(code string) string {
	switch code {
	case "delivered":
		return "Delivered"
	case "shipped":
		return "Shipped"
	case "in_transit":
		return "In Transit"
	case "out_for_delivery":
		return "Out for Delivery"
	case "cancelled":
		return "Cancelled"
	case "rto":
		return "RTO"
	default:
		return "Processing"
	}
}
