package domain

import (
	"errors"
	"testing"
)

func TestFinalizeConsumesReservedOnly(t *testing.T) {
	s := Stock{ProductID: "prod-a", Available: 7, Reserved: 5}
	if err := s.Finalize(2); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if s.Reserved != 3 || s.Available != 7 {
		t.Fatalf("counts = (%d,%d), want (7,3)", s.Available, s.Reserved)
	}
}

func TestReleaseReturnsToAvailable(t *testing.T) {
	s := Stock{ProductID: "prod-a", Available: 7, Reserved: 5}
	if err := s.Release(5); err != nil {
		t.Fatalf("release: %v", err)
	}
	if s.Available != 12 || s.Reserved != 0 {
		t.Fatalf("counts = (%d,%d), want (12,0)", s.Available, s.Reserved)
	}
}

func TestGuardsAgainstNegativeReserved(t *testing.T) {
	s := Stock{ProductID: "prod-a", Available: 0, Reserved: 1}
	if err := s.Finalize(5); !errors.Is(err, ErrInsufficientReserved) {
		t.Fatalf("finalize err = %v, want ErrInsufficientReserved", err)
	}
	if err := s.Release(2); !errors.Is(err, ErrInsufficientReserved) {
		t.Fatalf("release err = %v, want ErrInsufficientReserved", err)
	}
	if s.Available != 0 || s.Reserved != 1 {
		t.Fatalf("failed ops must not mutate, got (%d,%d)", s.Available, s.Reserved)
	}
}

func TestRejectsNonPositiveQuantity(t *testing.T) {
	s := Stock{ProductID: "prod-a", Reserved: 5}
	for _, qty := range []int{0, -1} {
		if err := s.Finalize(qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("Finalize(%d) err = %v, want ErrInvalidQuantity", qty, err)
		}
		if err := s.Release(qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("Release(%d) err = %v, want ErrInvalidQuantity", qty, err)
		}
	}
}
