package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	inventoryapp "github.com/orderflow/fulfillment-service/internal/inventory/application"
	invdom "github.com/orderflow/fulfillment-service/internal/inventory/domain"
	orderdom "github.com/orderflow/fulfillment-service/internal/order/domain"
	"github.com/orderflow/fulfillment-service/internal/payment/application"
	"github.com/orderflow/fulfillment-service/internal/storage"
	"github.com/orderflow/fulfillment-service/internal/storage/memory"
	"github.com/orderflow/fulfillment-service/pkg/idempotency"
)

func newServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	inv := inventoryapp.NewService(log, store)
	reconciler := application.NewReconciler(log, store, inv, store)
	h := NewHandler(log, reconciler, nil)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func postWebhook(t *testing.T, srv *httptest.Server, body string) (*http.Response, ackResponse) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/payment", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post webhook: %v", err)
	}
	defer resp.Body.Close()
	var ack ackResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	return resp, ack
}

func TestWebhookSuccessAck(t *testing.T) {
	srv, store := newServer(t)
	store.PutOrder(orderdom.NewOrder("ord-1",
		[]orderdom.OrderItem{{ProductID: "prod-a", Quantity: 2}}, orderdom.MethodPrepaid))
	store.PutStock(invdom.Stock{ProductID: "prod-a", Available: 1, Reserved: 5})

	resp, ack := postWebhook(t, srv, `{"orderId":"ord-1","paymentId":"pay-9","status":"TXN_SUCCESS"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !ack.Success || ack.OrderID != "ord-1" {
		t.Fatalf("ack = %+v, want success for ord-1", ack)
	}
	if _, reserved := store.StockCounts("prod-a"); reserved != 3 {
		t.Errorf("reserved = %d, want 3", reserved)
	}
}

func TestWebhookUnknownStatusStillAcks(t *testing.T) {
	srv, store := newServer(t)
	store.PutOrder(orderdom.NewOrder("ord-1",
		[]orderdom.OrderItem{{ProductID: "prod-a", Quantity: 2}}, orderdom.MethodPrepaid))
	store.PutStock(invdom.Stock{ProductID: "prod-a", Available: 1, Reserved: 5})

	resp, ack := postWebhook(t, srv, `{"orderId":"ord-1","status":"refund_pending"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 so the provider stops retrying", resp.StatusCode)
	}
	if !ack.Success || ack.Message == "" {
		t.Fatalf("ack = %+v, want success with explanatory message", ack)
	}
	if _, reserved := store.StockCounts("prod-a"); reserved != 5 {
		t.Errorf("reserved = %d, want 5 untouched", reserved)
	}
}

func TestWebhookValidation(t *testing.T) {
	srv, _ := newServer(t)
	for _, body := range []string{
		`not json`,
		`{"status":"paid"}`,
		`{"orderId":"ord-1"}`,
	} {
		resp, ack := postWebhook(t, srv, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, resp.StatusCode)
		}
		if ack.Success {
			t.Errorf("body %q: expected success=false", body)
		}
	}
}

func TestWebhookUnknownOrder(t *testing.T) {
	srv, _ := newServer(t)
	resp, ack := postWebhook(t, srv, `{"orderId":"nope","status":"paid"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if ack.Success {
		t.Fatalf("expected success=false")
	}
}

func TestWebhookStockFailureNamesProduct(t *testing.T) {
	srv, store := newServer(t)
	store.PutOrder(orderdom.NewOrder("ord-1",
		[]orderdom.OrderItem{{ProductID: "prod-a", Quantity: 5}}, orderdom.MethodPrepaid))
	store.PutStock(invdom.Stock{ProductID: "prod-a", Available: 0, Reserved: 1})

	resp, ack := postWebhook(t, srv, `{"orderId":"ord-1","status":"TXN_SUCCESS"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if ack.Success || !strings.Contains(ack.Message, "prod-a") {
		t.Fatalf("ack = %+v, want failure naming prod-a", ack)
	}
	if _, reserved := store.StockCounts("prod-a"); reserved != 1 {
		t.Errorf("reserved = %d, want 1 (rolled back)", reserved)
	}
}

// fakeDedupe is an in-memory stand-in for the redis-backed store.
type fakeDedupe struct {
	keys map[string]bool
}

func newFakeDedupe() *fakeDedupe { return &fakeDedupe{keys: map[string]bool{}} }

func (f *fakeDedupe) Seen(_ context.Context, key string) (bool, error) { return f.keys[key], nil }

func (f *fakeDedupe) Mark(_ context.Context, key string) error {
	f.keys[key] = true
	return nil
}

// conflictOnceInventory bumps the live order version the first time stock is
// finalized, so the surrounding session loses its version check exactly once.
type conflictOnceInventory struct {
	inner   application.InventoryService
	store   *memory.Store
	orderID string
	fired   bool
}

func (c *conflictOnceInventory) FinalizeStock(ctx context.Context, sess storage.Session, productID string, qty int) error {
	if !c.fired {
		c.fired = true
		if err := c.store.UpdateDeliveryStatus(ctx, c.orderID, "pending"); err != nil {
			return err
		}
	}
	return c.inner.FinalizeStock(ctx, sess, productID, qty)
}

func (c *conflictOnceInventory) ReleaseReservedStock(ctx context.Context, sess storage.Session, productID string, qty int) error {
	return c.inner.ReleaseReservedStock(ctx, sess, productID, qty)
}

func TestWebhookDedupeSkipsProcessedDelivery(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	inv := inventoryapp.NewService(log, store)
	reconciler := application.NewReconciler(log, store, inv, store)
	dedupe := newFakeDedupe()
	dedupe.keys[idempotency.WebhookKey("paytm", "ord-1", "", "paid")] = true
	srv := httptest.NewServer(NewHandler(log, reconciler, dedupe).Routes())
	t.Cleanup(srv.Close)

	store.PutOrder(orderdom.NewOrder("ord-1",
		[]orderdom.OrderItem{{ProductID: "prod-a", Quantity: 2}}, orderdom.MethodPrepaid))
	store.PutStock(invdom.Stock{ProductID: "prod-a", Available: 1, Reserved: 5})

	resp, ack := postWebhook(t, srv, `{"orderId":"ord-1","status":"paid","provider":"paytm"}`)
	if resp.StatusCode != http.StatusOK || !ack.Success {
		t.Fatalf("status=%d ack=%+v, want 200 ack", resp.StatusCode, ack)
	}
	if _, reserved := store.StockCounts("prod-a"); reserved != 5 {
		t.Errorf("reserved = %d, want 5 (filtered delivery must not mutate)", reserved)
	}
}

func TestWebhookRetryAfterTransientFailureIsProcessed(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	inv := &conflictOnceInventory{
		inner:   inventoryapp.NewService(log, store),
		store:   store,
		orderID: "ord-1",
	}
	reconciler := application.NewReconciler(log, store, inv, store)
	dedupe := newFakeDedupe()
	srv := httptest.NewServer(NewHandler(log, reconciler, dedupe).Routes())
	t.Cleanup(srv.Close)

	store.PutOrder(orderdom.NewOrder("ord-1",
		[]orderdom.OrderItem{{ProductID: "prod-a", Quantity: 2}}, orderdom.MethodPrepaid))
	store.PutStock(invdom.Stock{ProductID: "prod-a", Available: 1, Reserved: 5})

	body := `{"orderId":"ord-1","paymentId":"pay-1","status":"TXN_SUCCESS","provider":"paytm"}`
	key := idempotency.WebhookKey("paytm", "ord-1", "pay-1", "TXN_SUCCESS")

	resp, _ := postWebhook(t, srv, body)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("first attempt: status = %d, want 503", resp.StatusCode)
	}
	if dedupe.keys[key] {
		t.Fatalf("failed attempt must not record the delivery key")
	}

	resp, ack := postWebhook(t, srv, body)
	if resp.StatusCode != http.StatusOK || !ack.Success {
		t.Fatalf("retry: status=%d ack=%+v, want 200 ack", resp.StatusCode, ack)
	}
	if _, reserved := store.StockCounts("prod-a"); reserved != 3 {
		t.Errorf("reserved = %d, want 3 after the retry was processed", reserved)
	}
	if !dedupe.keys[key] {
		t.Errorf("processed delivery must be recorded")
	}
	o, _ := store.Get(context.Background(), "ord-1")
	if o.Payment.Status != orderdom.PaymentPaid {
		t.Errorf("payment status = %s, want paid", o.Payment.Status)
	}
}

func TestWebhookDuplicateDeliveryAcks(t *testing.T) {
	srv, store := newServer(t)
	store.PutOrder(orderdom.NewOrder("ord-1",
		[]orderdom.OrderItem{{ProductID: "prod-a", Quantity: 2}}, orderdom.MethodPrepaid))
	store.PutStock(invdom.Stock{ProductID: "prod-a", Available: 1, Reserved: 5})

	for i := 0; i < 2; i++ {
		resp, ack := postWebhook(t, srv, `{"orderId":"ord-1","status":"paid","provider":"paytm"}`)
		if resp.StatusCode != http.StatusOK || !ack.Success {
			t.Fatalf("delivery #%d: status=%d ack=%+v", i+1, resp.StatusCode, ack)
		}
	}
	if _, reserved := store.StockCounts("prod-a"); reserved != 3 {
		t.Errorf("reserved = %d, want 3 after duplicate deliveries", reserved)
	}
}
