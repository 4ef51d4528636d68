// Package memory is a mutex-guarded in-memory implementation of the order,
// stock and delivery stores with a staged transactional session. It backs the
// unit tests and local wiring without Postgres.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	deliverydom "github.com/orderflow/fulfillment-service/internal/delivery/domain"
	invdom "github.com/orderflow/fulfillment-service/internal/inventory/domain"
	orderdom "github.com/orderflow/fulfillment-service/internal/order/domain"
	"github.com/orderflow/fulfillment-service/internal/storage"
)

type Store struct {
	mu         sync.Mutex
	orders     map[string]*orderdom.Order
	stock      map[string]*invdom.Stock
	deliveries map[string]*deliverydom.Delivery
	byTracking map[string]string
}

func NewStore() *Store {
	return &Store{
		orders:     make(map[string]*orderdom.Order),
		stock:      make(map[string]*invdom.Stock),
		deliveries: make(map[string]*deliverydom.Delivery),
		byTracking: make(map[string]string),
	}
}

func (s *Store) PutOrder(o orderdom.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(&o)
}

func (s *Store) PutStock(st invdom.Stock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := st
	s.stock[st.ProductID] = &cp
}

// StockCounts returns the committed counters for a product.
func (s *Store) StockCounts(productID string) (available, reserved int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stock[productID]
	if !ok {
		return 0, 0
	}
	return st.Available, st.Reserved
}

func (s *Store) Begin(ctx context.Context) (storage.Session, error) {
	_ = ctx
	return &Session{
		store:  s,
		orders: make(map[string]stagedOrder),
		stock:  make(map[string]stockDelta),
	}, nil
}

type stagedOrder struct {
	order  orderdom.Order
	expect int64
}

type stockDelta struct {
	available int
	reserved  int
}

// Session stages writes and applies them atomically on Commit under the
// store lock, re-checking order versions and stock counters first.
type Session struct {
	store  *Store
	done   bool
	orders map[string]stagedOrder
	stock  map[string]stockDelta
}

func (s *Session) Commit(ctx context.Context) error {
	_ = ctx
	if s.done {
		return fmt.Errorf("memory: session already closed")
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for id, staged := range s.orders {
		cur, ok := s.store.orders[id]
		if !ok {
			return orderdom.ErrNotFound
		}
		if cur.Version != staged.expect {
			return storage.ErrConflict
		}
	}
	for productID, delta := range s.stock {
		cur, ok := s.store.stock[productID]
		if !ok || cur.Reserved+delta.reserved < 0 || cur.Available+delta.available < 0 {
			return invdom.ErrInsufficientReserved
		}
	}

	now := time.Now().UTC()
	for id, staged := range s.orders {
		next := staged.order
		next.Version = staged.expect + 1
		s.store.orders[id] = cloneOrder(&next)
	}
	for productID, delta := range s.stock {
		cur := s.store.stock[productID]
		cur.Available += delta.available
		cur.Reserved += delta.reserved
		cur.UpdatedAt = now
	}
	s.done = true
	return nil
}

func (s *Session) Rollback(ctx context.Context) error {
	_ = ctx
	s.done = true
	return nil
}

func ownSession(sess storage.Session) (*Session, error) {
	ms, ok := sess.(*Session)
	if !ok {
		return nil, fmt.Errorf("memory: session is %T, want *Session", sess)
	}
	if ms.done {
		return nil, fmt.Errorf("memory: session already closed")
	}
	return ms, nil
}

func cloneOrder(o *orderdom.Order) *orderdom.Order {
	cp := *o
	cp.Items = append([]orderdom.OrderItem(nil), o.Items...)
	return &cp
}

func cloneDelivery(d *deliverydom.Delivery) *deliverydom.Delivery {
	cp := *d
	cp.History = append([]deliverydom.StatusChange(nil), d.History...)
	return &cp
}
