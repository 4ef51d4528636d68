package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/orderflow/fulfillment-service/internal/delivery/application"
	"github.com/orderflow/fulfillment-service/internal/delivery/domain"
	orderdom "github.com/orderflow/fulfillment-service/internal/order/domain"
)

type Handler struct {
	log    *slog.Logger
	svc    *application.Service
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, svc *application.Service) *Handler {
	return &Handler{
		log:    log,
		svc:    svc,
		tracer: otel.Tracer("delivery-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/{orderID}/status", h.updateStatus)
	return r
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateStatusResponse struct {
	OrderID    string    `json:"orderId"`
	TrackingID string    `json:"trackingId"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateDeliveryStatus")
	defer span.End()

	orderID := chi.URLParam(r, "orderID")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := h.svc.UpdateStatus(ctx, orderID, status)
	if errors.Is(err, orderdom.ErrNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("delivery status update failed", "order_id", orderID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updateStatusResponse{
		OrderID:    d.OrderID,
		TrackingID: d.TrackingID,
		Status:     string(d.Status),
		UpdatedAt:  d.UpdatedAt,
	})
}
