package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	orderdom "github.com/orderflow/fulfillment-service/internal/order/domain"
	"github.com/orderflow/fulfillment-service/internal/payment/application"
	"github.com/orderflow/fulfillment-service/pkg/idempotency"
)

// Dedupe filters repeat webhook deliveries. Implementations are best-effort;
// the reconciler stays idempotent without them.
type Dedupe interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

type Handler struct {
	log    *slog.Logger
	svc    *application.Reconciler
	dedupe Dedupe
	tracer trace.Tracer
}

// NewHandler builds the webhook handler. dedupe may be nil.
func NewHandler(log *slog.Logger, svc *application.Reconciler, dedupe Dedupe) *Handler {
	return &Handler{
		log:    log,
		svc:    svc,
		dedupe: dedupe,
		tracer: otel.Tracer("payment-webhook"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/payment", h.paymentWebhook)
	return r
}

type webhookRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
	Provider  string `json:"provider"`
}

type ackResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PaymentWebhook")
	defer span.End()

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ackResponse{Success: false, Message: "invalid body"})
		return
	}
	if req.OrderID == "" || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, ackResponse{Success: false, Message: "orderId and status are required"})
		return
	}

	key := idempotency.WebhookKey(req.Provider, req.OrderID, req.PaymentID, req.Status)
	if h.dedupe != nil {
		seen, err := h.dedupe.Seen(ctx, key)
		if err != nil {
			// Dedupe is an optimization; the reconciler is idempotent anyway.
			h.log.Warn("webhook dedupe check failed", "key", key, "err", err)
		} else if seen {
			h.log.Info("duplicate webhook delivery skipped", "order_id", req.OrderID, "status", req.Status)
			writeJSON(w, http.StatusOK, ackResponse{Success: true, OrderID: req.OrderID})
			return
		}
	}

	res, err := h.svc.Reconcile(ctx, req.OrderID, req.Status, req.PaymentID)
	if err != nil {
		h.writeError(w, req.OrderID, err)
		return
	}
	if h.dedupe != nil {
		// Recorded only after the delivery is processed, so a retry of a
		// failed attempt still reaches the reconciler.
		if err := h.dedupe.Mark(ctx, key); err != nil {
			h.log.Warn("webhook dedupe mark failed", "key", key, "err", err)
		}
	}
	writeJSON(w, http.StatusOK, ackResponse{Success: true, OrderID: res.OrderID, Message: res.Message})
}

func (h *Handler) writeError(w http.ResponseWriter, orderID string, err error) {
	var fulfillErr *application.StockFulfillmentError
	var releaseErr *application.StockReleaseError

	switch {
	case errors.Is(err, orderdom.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ackResponse{Success: false, Message: "order not found"})
	case errors.As(err, &fulfillErr):
		writeJSON(w, http.StatusConflict, ackResponse{Success: false,
			Message: "stock fulfillment failed for product " + fulfillErr.ProductID})
	case errors.As(err, &releaseErr):
		writeJSON(w, http.StatusConflict, ackResponse{Success: false,
			Message: "stock release failed for product " + releaseErr.ProductID})
	case errors.Is(err, application.ErrConcurrentUpdate):
		// Transient; a 503 makes the provider redeliver.
		writeJSON(w, http.StatusServiceUnavailable, ackResponse{Success: false, Message: "conflicting update, retry"})
	default:
		h.log.Error("webhook processing failed", "order_id", orderID, "err", err)
		writeJSON(w, http.StatusInternalServerError, ackResponse{Success: false, Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
