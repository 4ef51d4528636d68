package domain

import "testing"

func TestNewOrderStartsPending(t *testing.T) {
	o := NewOrder("ord-1", []OrderItem{{ProductID: "prod-a", Quantity: 2, UnitPriceCents: 250}}, MethodPrepaid)
	if o.Payment.Status != PaymentPending {
		t.Errorf("payment status = %s, want pending", o.Payment.Status)
	}
	if o.Status != StatusCreated {
		t.Errorf("status = %s, want created", o.Status)
	}
	if o.TotalCents() != 500 {
		t.Errorf("total = %d, want 500", o.TotalCents())
	}
	if o.PaymentResolved() {
		t.Errorf("fresh order must not be resolved")
	}
}

func TestMarkPaidIsTerminal(t *testing.T) {
	o := NewOrder("ord-1", nil, MethodPrepaid)
	o.MarkPaid("pay-1")
	if !o.PaymentResolved() {
		t.Fatalf("paid order must be resolved")
	}
	if o.Payment.ExternalPaymentID != "pay-1" {
		t.Errorf("external id = %q, want pay-1", o.Payment.ExternalPaymentID)
	}
}

func TestAdvanceIsMonotonic(t *testing.T) {
	o := NewOrder("ord-1", nil, MethodPrepaid)
	if !o.Advance(StatusProcessing) {
		t.Fatalf("created -> processing should advance")
	}
	if o.Advance(StatusCreated) {
		t.Fatalf("processing -> created must not advance")
	}
	if !o.Advance(StatusShipped) || !o.Advance(StatusDelivered) {
		t.Fatalf("forward progression should advance")
	}
	if o.Advance(StatusCancelled) {
		t.Fatalf("delivered order cannot be cancelled")
	}
}

func TestCancellationFromNonTerminal(t *testing.T) {
	o := NewOrder("ord-1", nil, MethodCOD)
	o.Advance(StatusProcessing)
	if !o.Advance(StatusCancelled) {
		t.Fatalf("processing order should be cancellable")
	}
	if o.Advance(StatusShipped) {
		t.Fatalf("cancelled order must not advance")
	}
}
