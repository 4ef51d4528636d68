package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/orderflow/fulfillment-service/internal/order/domain"
)

type OrderGetter interface {
	Get(ctx context.Context, id string) (domain.Order, error)
}

type Handler struct {
	log    *slog.Logger
	orders OrderGetter
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, orders OrderGetter) *Handler {
	return &Handler{
		log:    log,
		orders: orders,
		tracer: otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/{id}", h.getOrder)
	return r
}

type orderItemView struct {
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type orderView struct {
	ID             string          `json:"id"`
	Items          []orderItemView `json:"items"`
	PaymentStatus  string          `json:"paymentStatus"`
	PaymentMethod  string          `json:"paymentMethod"`
	Status         string          `json:"status"`
	DeliveryStatus string          `json:"deliveryStatus,omitempty"`
	TotalCents     int64           `json:"totalCents"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	id := chi.URLParam(r, "id")
	o, err := h.orders.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("order lookup failed", "order_id", id, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	view := orderView{
		ID:             o.ID,
		PaymentStatus:  string(o.Payment.Status),
		PaymentMethod:  string(o.Payment.Method),
		Status:         string(o.Status),
		DeliveryStatus: o.DeliveryStatus,
		TotalCents:     o.TotalCents(),
		CreatedAt:      o.CreatedAt,
	}
	for _, item := range o.Items {
		view.Items = append(view.Items, orderItemView{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}
