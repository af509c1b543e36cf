package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Flashes stores one-shot messages per visitor. Pop returns them in the
// order they were added and clears the list.
type Flashes struct{ R *redis.Client }

func (f *Flashes) Add(ctx context.Context, sid, msg string) error {
	key := fmt.Sprintf(KeyFlash, sid)
	pipe := f.R.TxPipeline()
	pipe.RPush(ctx, key, msg)
	pipe.Expire(ctx, key, TTLFlash)
	_, err := pipe.Exec(ctx)
	return err
}

func (f *Flashes) Pop(ctx context.Context, sid string) ([]string, error) {
	key := fmt.Sprintf(KeyFlash, sid)
	var msgs *redis.StringSliceCmd
	_, err := f.R.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		msgs = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msgs.Val(), nil
}
