package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// WebhookKey identifies one logical webhook delivery. paymentID may be empty
// for providers that only send the order reference.
func WebhookKey(provider, orderID, paymentID, status string) string {
	if provider == "" {
		provider = "generic"
	}
	return fmt.Sprintf("webhook:%s:%s:%s:%s", provider, orderID, paymentID, status)
}

// Store is a best-effort duplicate-delivery filter backed by redis.
// It only saves work: the reconciler's terminal-state check is what actually
// guarantees exactly-once effects, so callers should proceed on redis errors.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Seen reports whether the key was recorded by an earlier processed delivery.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records the key. Call it only once the delivery has been fully
// processed: a key set before processing would swallow the provider's retry
// after a transient failure.
func (s *Store) Mark(ctx context.Context, key string) error {
	return s.rdb.Set(ctx, key, "1", s.ttl).Err()
}
