package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidQuantity      = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientReserved = errors.New("inventory: reserved stock below requested quantity")
)

// Stock holds the two counters for one product. Available is free stock;
// Reserved is earmarked for orders between checkout and payment resolution.
type Stock struct {
	ProductID string
	Available int
	Reserved  int
	UpdatedAt time.Time
}

// Finalize consumes a reservation permanently: payment succeeded and the
// stock is committed to the sale. Available is untouched, it was already
// decremented when the reservation was made.
func (s *Stock) Finalize(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if s.Reserved < qty {
		return ErrInsufficientReserved
	}
	s.Reserved -= qty
	s.touch()
	return nil
}

// Release returns a reservation to available stock after a failed or
// cancelled payment.
func (s *Stock) Release(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if s.Reserved < qty {
		return ErrInsufficientReserved
	}
	s.Reserved -= qty
	s.Available += qty
	s.touch()
	return nil
}

func (s *Stock) touch() {
	s.UpdatedAt = time.Now().UTC()
}
