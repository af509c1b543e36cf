package redisx

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/ariefcatur/go-bookshop/internal/orders"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := New(mr.Addr())
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCartSummaries(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	c := &CartSummaries{R: rdb}

	_, ok, err := c.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	want := cart.Summary{TotalProducts: 2, FinalPrice: decimal.RequireFromString("27.50")}
	require.NoError(t, c.Put(ctx, 7, want))
	assert.Equal(t, TTLCartSummary, mr.TTL("cart_summary:7"))

	got, ok, err := c.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, got.TotalProducts)
	assert.True(t, want.FinalPrice.Equal(got.FinalPrice))

	require.NoError(t, c.Drop(ctx, 7))
	_, ok, err = c.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptCacheEntry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	require.NoError(t, mr.Set("cart_summary:1", "{not json"))

	_, ok, err := (&CartSummaries{R: rdb}).Get(ctx, 1)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestOrderStatuses(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	c := &OrderStatuses{R: rdb}

	require.NoError(t, c.Put(ctx, 3, orders.StatusReady))
	raw, err := mr.Get("order_status:3")
	require.NoError(t, err)
	assert.Contains(t, raw, `"status":"is_ready"`)
	assert.Contains(t, raw, `"updated_at"`)

	st, ok, err := c.Get(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, orders.StatusReady, st)

	mr.FastForward(TTLStatusCache)
	_, ok, err = c.Get(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlashes(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	f := &Flashes{R: rdb}

	require.NoError(t, f.Add(ctx, "sid-1", "first"))
	require.NoError(t, f.Add(ctx, "sid-1", "second"))
	require.NoError(t, f.Add(ctx, "sid-2", "other"))

	msgs, err := f.Pop(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, msgs)

	msgs, err = f.Pop(ctx, "sid-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = f.Pop(ctx, "sid-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, msgs)
}

func TestDedup(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	d := &Dedup{R: rdb, Service: "mailer"}

	first, err := d.First(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, TTLDedup, mr.TTL("dedup:mailer:evt-1"))

	first, err = d.First(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, first)

	require.NoError(t, d.Forget(ctx, "evt-1"))
	first, err = d.First(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)

	other := &Dedup{R: rdb, Service: "audit"}
	first, err = other.First(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)
}
