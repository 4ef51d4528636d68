package memory

import (
	"context"

	deliverydom "github.com/orderflow/fulfillment-service/internal/delivery/domain"
	invdom "github.com/orderflow/fulfillment-service/internal/inventory/domain"
	orderdom "github.com/orderflow/fulfillment-service/internal/order/domain"
	"github.com/orderflow/fulfillment-service/internal/storage"
)

// Order store.

func (s *Store) Get(ctx context.Context, id string) (orderdom.Order, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return *cloneOrder(o), nil
}

// SavePayment stages a version-checked write of the order's payment fields.
// The version travels on the aggregate; a mismatch against the live record
// surfaces as storage.ErrConflict either here or at Commit.
func (s *Store) SavePayment(ctx context.Context, sess storage.Session, o orderdom.Order) error {
	_ = ctx
	ms, err := ownSession(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[o.ID]
	if !ok {
		return orderdom.ErrNotFound
	}
	if cur.Version != o.Version {
		return storage.ErrConflict
	}
	ms.orders[o.ID] = stagedOrder{order: o, expect: o.Version}
	return nil
}

func (s *Store) AdvanceStatus(ctx context.Context, id string, from, to orderdom.Status) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orderdom.ErrNotFound
	}
	if o.Status != from {
		return nil
	}
	if o.Advance(to) {
		o.Version++
	}
	return nil
}

func (s *Store) UpdateDeliveryStatus(ctx context.Context, id, status string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orderdom.ErrNotFound
	}
	o.DeliveryStatus = status
	o.Version++
	return nil
}

// Stock store.

func (s *Store) Finalize(ctx context.Context, sess storage.Session, productID string, qty int) error {
	return s.stage(ctx, sess, productID, qty, false)
}

func (s *Store) Release(ctx context.Context, sess storage.Session, productID string, qty int) error {
	return s.stage(ctx, sess, productID, qty, true)
}

func (s *Store) stage(ctx context.Context, sess storage.Session, productID string, qty int, release bool) error {
	_ = ctx
	if qty <= 0 {
		return invdom.ErrInvalidQuantity
	}
	ms, err := ownSession(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.stock[productID]
	delta := ms.stock[productID]
	if !ok || cur.Reserved+delta.reserved < qty {
		return invdom.ErrInsufficientReserved
	}
	delta.reserved -= qty
	if release {
		delta.available += qty
	}
	ms.stock[productID] = delta
	return nil
}

// Delivery store.

func (s *Store) GetByOrderID(ctx context.Context, orderID string) (*deliverydom.Delivery, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[orderID]
	if !ok {
		return nil, deliverydom.ErrNotFound
	}
	return cloneDelivery(d), nil
}

func (s *Store) GetByTrackingID(ctx context.Context, trackingID string) (*deliverydom.Delivery, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	orderID, ok := s.byTracking[trackingID]
	if !ok {
		return nil, deliverydom.ErrNotFound
	}
	d, ok := s.deliveries[orderID]
	if !ok {
		return nil, deliverydom.ErrNotFound
	}
	return cloneDelivery(d), nil
}

func (s *Store) Save(ctx context.Context, d *deliverydom.Delivery) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[d.OrderID] = cloneDelivery(d)
	s.byTracking[d.TrackingID] = d.OrderID
	return nil
}
