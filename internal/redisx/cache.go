package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/ariefcatur/go-bookshop/internal/orders"
	"github.com/redis/go-redis/v9"
)

// CartSummaries caches the cart badge per customer.
type CartSummaries struct{ R *redis.Client }

var _ cart.SummaryCache = (*CartSummaries)(nil)

func (c *CartSummaries) Get(ctx context.Context, customerID int64) (cart.Summary, bool, error) {
	var s cart.Summary
	ok, err := getJSON(ctx, c.R, fmt.Sprintf(KeyCartSummary, customerID), &s)
	return s, ok, err
}

func (c *CartSummaries) Put(ctx context.Context, customerID int64, s cart.Summary) error {
	return setJSON(ctx, c.R, fmt.Sprintf(KeyCartSummary, customerID), s, TTLCartSummary)
}

func (c *CartSummaries) Drop(ctx context.Context, customerID int64) error {
	return c.R.Del(ctx, fmt.Sprintf(KeyCartSummary, customerID)).Err()
}

type statusEntry struct {
	Status    orders.Status `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// OrderStatuses caches the last known status of an order.
type OrderStatuses struct{ R *redis.Client }

var _ orders.StatusCache = (*OrderStatuses)(nil)

func (c *OrderStatuses) Get(ctx context.Context, orderID int64) (orders.Status, bool, error) {
	var e statusEntry
	ok, err := getJSON(ctx, c.R, fmt.Sprintf(KeyOrderStatus, orderID), &e)
	return e.Status, ok, err
}

func (c *OrderStatuses) Put(ctx context.Context, orderID int64, s orders.Status) error {
	e := statusEntry{Status: s, UpdatedAt: time.Now().UTC()}
	return setJSON(ctx, c.R, fmt.Sprintf(KeyOrderStatus, orderID), e, TTLStatusCache)
}

func getJSON(ctx context.Context, rdb *redis.Client, key string, v any) (bool, error) {
	b, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}
