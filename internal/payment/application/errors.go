package application

import (
	"errors"
	"fmt"
)

// ErrConcurrentUpdate reports a lost race against another reconcile of the
// same order that did not itself reach a terminal state. Transient; the
// provider should redeliver the webhook.
var ErrConcurrentUpdate = errors.New("payment: concurrent update, retry")

// StockFulfillmentError aborts a success reconciliation: a line item could
// not be finalized. Indicates a bookkeeping inconsistency upstream of this
// core, never a normal condition.
type StockFulfillmentError struct {
	ProductID string
	Err       error
}

func (e *StockFulfillmentError) Error() string {
	return fmt.Sprintf("payment: stock fulfillment failed for product %s: %v", e.ProductID, e.Err)
}

func (e *StockFulfillmentError) Unwrap() error { return e.Err }

// StockReleaseError is the failure-path counterpart.
type StockReleaseError struct {
	ProductID string
	Err       error
}

func (e *StockReleaseError) Error() string {
	return fmt.Sprintf("payment: stock release failed for product %s: %v", e.ProductID, e.Err)
}

func (e *StockReleaseError) Unwrap() error { return e.Err }
