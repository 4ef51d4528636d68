package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/orderflow/fulfillment-service/internal/inventory/domain"
	"github.com/orderflow/fulfillment-service/internal/storage"
)

type Service struct {
	log  *slog.Logger
	repo StockRepository
}

func NewService(log *slog.Logger, repo StockRepository) *Service {
	return &Service{log: log, repo: repo}
}

// FinalizeStock consumes qty from the product's reservation within the
// caller's session. A shortfall means the reservation bookkeeping drifted
// upstream of this service, so it is logged as an operational signal rather
// than treated as a retryable condition.
func (s *Service) FinalizeStock(ctx context.Context, sess storage.Session, productID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	if err := s.repo.Finalize(ctx, sess, productID, qty); err != nil {
		if errors.Is(err, domain.ErrInsufficientReserved) {
			s.log.Error("reservation shortfall on finalize", "product_id", productID, "qty", qty)
		}
		return err
	}
	return nil
}

// ReleaseReservedStock returns qty from the product's reservation to
// available stock within the caller's session.
func (s *Service) ReleaseReservedStock(ctx context.Context, sess storage.Session, productID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	if err := s.repo.Release(ctx, sess, productID, qty); err != nil {
		if errors.Is(err, domain.ErrInsufficientReserved) {
			s.log.Error("reservation shortfall on release", "product_id", productID, "qty", qty)
		}
		return err
	}
	return nil
}
