package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("delivery: not found")

type Status string

const (
	StatusPending        Status = "pending"
	StatusShipped        Status = "shipped"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusRTO            Status = "rto"
)

var validStatuses = map[Status]bool{
	StatusPending:        true,
	StatusShipped:        true,
	StatusInTransit:      true,
	StatusOutForDelivery: true,
	StatusDelivered:      true,
	StatusCancelled:      true,
	StatusRTO:            true,
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", fmt.Errorf("delivery: unknown status %q", s)
	}
	return st, nil
}

type StatusChange struct {
	Status Status
	At     time.Time
}

// Delivery is the shipment aggregate, linked to an order by id and created
// lazily on the first status update from the delivery partner.
type Delivery struct {
	OrderID    string
	TrackingID string
	Status     Status
	History    []StatusChange
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func New(orderID, trackingID string) *Delivery {
	now := time.Now().UTC()
	return &Delivery{
		OrderID:    orderID,
		TrackingID: trackingID,
		Status:     StatusPending,
		History:    []StatusChange{{Status: StatusPending, At: now}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (d *Delivery) Transition(to Status) {
	now := time.Now().UTC()
	d.Status = to
	d.History = append(d.History, StatusChange{Status: to, At: now})
	d.UpdatedAt = now
}
