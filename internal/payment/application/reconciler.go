package application

import (
	"context"
	"errors"
	"log/slog"

	orderdom "github.com/orderflow/fulfillment-service/internal/order/domain"
	"github.com/orderflow/fulfillment-service/internal/payment/domain"
	"github.com/orderflow/fulfillment-service/internal/storage"
)

// Result is the canonical outcome of one webhook reconciliation.
type Result struct {
	OrderID string
	Outcome domain.Outcome
	// Applied is false when the event was acknowledged without mutating
	// anything: unknown status, duplicate delivery, or an event for an order
	// already in the opposite terminal state.
	Applied bool
	Message string
}

// Reconciler owns the transition of an order out of payment-pending. It is
// safe under duplicate and out-of-order webhook delivery: the terminal-state
// check plus the version-checked commit guarantee that inventory is finalized
// or released exactly once per order.
type Reconciler struct {
	log       *slog.Logger
	orders    OrderRepository
	inventory InventoryService
	sessions  storage.Provider
}

func NewReconciler(log *slog.Logger, orders OrderRepository, inventory InventoryService, sessions storage.Provider) *Reconciler {
	return &Reconciler{
		log:       log,
		orders:    orders,
		inventory: inventory,
		sessions:  sessions,
	}
}

// Reconcile applies a provider payment notification to the order identified
// by orderID. externalPaymentID is informational and may be empty.
func (r *Reconciler) Reconcile(ctx context.Context, orderID, providerStatus, externalPaymentID string) (Result, error) {
	// The order lookup comes first: an event for a nonexistent order is a
	// contract violation regardless of how its status reads.
	o, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return Result{}, err
	}

	outcome := domain.ClassifyStatus(providerStatus)
	if outcome == domain.OutcomeUnknown {
		// Acknowledge so the provider stops retrying, but touch nothing.
		r.log.Warn("unrecognized payment status", "order_id", orderID, "status", providerStatus)
		return Result{OrderID: orderID, Outcome: outcome, Message: "unrecognized payment status"}, nil
	}
	if o.PaymentResolved() {
		// Duplicate delivery, or the opposite outcome arriving after the
		// order already settled. Either way: acknowledge, do not re-mutate.
		r.log.Info("payment already resolved, acknowledging",
			"order_id", orderID, "payment_status", o.Payment.Status, "event_outcome", outcome)
		return Result{OrderID: orderID, Outcome: outcome}, nil
	}

	res, err := r.apply(ctx, o, outcome, externalPaymentID)
	if errors.Is(err, storage.ErrConflict) {
		// Lost the race. If the winner settled the order, this delivery is
		// effectively a duplicate; otherwise hand the retry decision back.
		cur, gerr := r.orders.Get(ctx, orderID)
		if gerr == nil && cur.PaymentResolved() {
			r.log.Info("concurrent reconcile settled order, acknowledging", "order_id", orderID)
			return Result{OrderID: orderID, Outcome: outcome}, nil
		}
		return Result{}, ErrConcurrentUpdate
	}
	if err != nil {
		return Result{}, err
	}

	if outcome == domain.OutcomeSuccess {
		// Best-effort follow-up outside the committed transaction. Losing it
		// on a crash is acceptable; the payment transition is not.
		if err := r.orders.AdvanceStatus(ctx, orderID, orderdom.StatusCreated, orderdom.StatusProcessing); err != nil {
			r.log.Error("order status advance failed", "order_id", orderID, "err", err)
		}
	}
	return res, nil
}

func (r *Reconciler) apply(ctx context.Context, o orderdom.Order, outcome domain.Outcome, externalPaymentID string) (Result, error) {
	sess, err := r.sessions.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if rbErr := sess.Rollback(ctx); rbErr != nil {
			r.log.Error("session rollback failed", "order_id", o.ID, "err", rbErr)
		}
	}()

	for _, item := range o.Items {
		if outcome == domain.OutcomeSuccess {
			if err := r.inventory.FinalizeStock(ctx, sess, item.ProductID, item.Quantity); err != nil {
				r.log.Error("stock finalize failed, aborting reconciliation",
					"order_id", o.ID, "product_id", item.ProductID, "qty", item.Quantity, "err", err)
				return Result{}, &StockFulfillmentError{ProductID: item.ProductID, Err: err}
			}
		} else {
			if err := r.inventory.ReleaseReservedStock(ctx, sess, item.ProductID, item.Quantity); err != nil {
				r.log.Error("stock release failed, aborting reconciliation",
					"order_id", o.ID, "product_id", item.ProductID, "qty", item.Quantity, "err", err)
				return Result{}, &StockReleaseError{ProductID: item.ProductID, Err: err}
			}
		}
	}

	if outcome == domain.OutcomeSuccess {
		o.MarkPaid(externalPaymentID)
	} else {
		o.MarkPaymentFailed(externalPaymentID)
	}
	if err := r.orders.SavePayment(ctx, sess, o); err != nil {
		return Result{}, err
	}
	if err := sess.Commit(ctx); err != nil {
		return Result{}, err
	}

	r.log.Info("payment reconciled",
		"order_id", o.ID, "outcome", outcome, "payment_status", o.Payment.Status)
	return Result{OrderID: o.ID, Outcome: outcome, Applied: true}, nil
}
