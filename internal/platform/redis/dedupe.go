package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduplicator remembers processed message keys for a bounded time so a
// redelivered broker message is handled once.
type Deduplicator struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewDeduplicator(client redis.Cmdable, prefix string, ttl time.Duration) *Deduplicator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduplicator{client: client, prefix: prefix, ttl: ttl}
}

// FirstSeen claims key and reports whether this caller was first.
func (d *Deduplicator) FirstSeen(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim dedupe key: %w", err)
	}
	return ok, nil
}

// Forget releases key so a failed message can be processed again.
func (d *Deduplicator) Forget(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, d.prefix+key).Err(); err != nil {
		return fmt.Errorf("release dedupe key: %w", err)
	}
	return nil
}
