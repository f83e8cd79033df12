package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultDedupTTL is how long a provider notification id is remembered.
	DefaultDedupTTL = 24 * time.Hour

	dedupKeyPrefix = "intake:seen:"
)

// Filter drops repeated provider push notifications before they reach the
// database.
type Filter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewFilter(rdb *redis.Client, ttl time.Duration) *Filter {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &Filter{rdb: rdb, ttl: ttl}
}

// IsNew returns true the first time key is seen within the TTL. The key is
// marked as seen atomically (SETNX).
func (f *Filter) IsNew(ctx context.Context, key string) (bool, error) {
	set, err := f.rdb.SetNX(ctx, DedupKey(key), 1, f.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup SETNX: %w", err)
	}
	return set, nil
}

func DedupKey(key string) string {
	return dedupKeyPrefix + key
}

// Forget clears key so a notification whose handling failed is accepted
// again on redelivery.
func (f *Filter) Forget(ctx context.Context, key string) error {
	if err := f.rdb.Del(ctx, DedupKey(key)).Err(); err != nil {
		return fmt.Errorf("dedup DEL: %w", err)
	}
	return nil
}
