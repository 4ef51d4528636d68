// Package notification defines the fire-and-forget hook invoked on delivery
// status transitions. Implementations must never surface errors to callers.
package notification

import "context"

const (
	EventShipmentCreated = "shipment_created"
	EventOutForDelivery  = "out_for_delivery"
	EventDelivered       = "delivered"
	EventCODSettlement   = "cod_settlement"
)

type Notifier interface {
	Notify(ctx context.Context, orderID, eventType string)
}

// Nop discards every notification. Used by tests and wiring without a broker.
type Nop struct{}

func (Nop) Notify(ctx context.Context, orderID, eventType string) {}
