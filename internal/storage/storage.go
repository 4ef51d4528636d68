// Package storage defines the transactional session shared by the order and
// inventory stores. A session is the atomic scope of the reconciliation core:
// everything staged on it commits together or not at all.
package storage

import (
	"context"
	"errors"
)

// ErrConflict is returned when a version-checked write loses to a concurrent
// update of the same record. Callers may re-read and retry.
var ErrConflict = errors.New("storage: concurrent update conflict")

type Session interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Provider interface {
	Begin(ctx context.Context) (Session, error)
}
