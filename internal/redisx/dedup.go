package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Dedup remembers processed event ids per consumer service.
type Dedup struct {
	R       *redis.Client
	Service string
}

// First reports whether id is seen for the first time and marks it seen.
func (d *Dedup) First(ctx context.Context, id string) (bool, error) {
	return d.R.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, id), "1", TTLDedup).Result()
}

// Forget drops the mark so a failed message can be processed again.
func (d *Dedup) Forget(ctx context.Context, id string) error {
	return d.R.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, id)).Err()
}
