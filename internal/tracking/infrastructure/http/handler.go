package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/orderflow/fulfillment-service/internal/tracking/application"
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
		tracer: otel.Tracer("tracking-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/{id}", h.track)
	return r
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Track")
	defer span.End()

	id := chi.URLParam(r, "id")
	view, err := h.svc.Track(ctx, id)
	if errors.Is(err, application.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("tracking lookup failed", "id", id, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}
