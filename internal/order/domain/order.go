package domain

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("order: not found")

type Status string

const (
	StatusCreated    Status = "created"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodPrepaid PaymentMethod = "prepaid"
	MethodCOD     PaymentMethod = "cod"
)

type OrderItem struct {
	ProductID      string
	Quantity       int
	UnitPriceCents int64
}

type PaymentInfo struct {
	ExternalPaymentID string
	Method            PaymentMethod
	Status            PaymentStatus
}

// Order is the aggregate root. Items are fixed at checkout; Version backs the
// optimistic concurrency check on payment-state writes.
type Order struct {
	ID             string
	Items          []OrderItem
	Payment        PaymentInfo
	Status         Status
	DeliveryStatus string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewOrder(id string, items []OrderItem, method PaymentMethod) Order {
	now := time.Now().UTC()
	return Order{
		ID:        id,
		Items:     items,
		Payment:   PaymentInfo{Method: method, Status: PaymentPending},
		Status:    StatusCreated,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (o *Order) TotalCents() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Quantity) * item.UnitPriceCents
	}
	return total
}

// PaymentResolved reports whether the order reached a terminal payment state.
// Once resolved, no further payment transition is permitted.
func (o *Order) PaymentResolved() bool {
	return o.Payment.Status != PaymentPending
}

func (o *Order) MarkPaid(externalPaymentID string) {
	o.Payment.Status = PaymentPaid
	if externalPaymentID != "" {
		o.Payment.ExternalPaymentID = externalPaymentID
	}
	o.touch()
}

func (o *Order) MarkPaymentFailed(externalPaymentID string) {
	o.Payment.Status = PaymentFailed
	if externalPaymentID != "" {
		o.Payment.ExternalPaymentID = externalPaymentID
	}
	o.touch()
}

var statusRank = map[Status]int{
	StatusCreated:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// CanAdvance reports whether the order status may move to the target.
// Progression is monotonic; cancellation is allowed from any non-terminal state.
func (o *Order) CanAdvance(to Status) bool {
	if o.Status == StatusCancelled || o.Status == StatusDelivered {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	cur, ok := statusRank[o.Status]
	if !ok {
		return false
	}
	next, ok := statusRank[to]
	if !ok {
		return false
	}
	return next > cur
}

func (o *Order) Advance(to Status) bool {
	if !o.CanAdvance(to) {
		return false
	}
	o.Status = to
	o.touch()
	return true
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
