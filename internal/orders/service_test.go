package orders_test

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-bookshop/internal/orders"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T) (*fixture, *orders.Order) {
	t.Helper()
	f := newFixture(t, bookA())
	f.put(t, "book-a", 1)
	o, err := f.flow.Checkout(context.Background(), buyer, validForm)
	require.NoError(t, err)
	return f, o
}

func TestAdvanceStatus(t *testing.T) {
	ctx := context.Background()
	f, o := placeOrder(t)
	svc := orders.NewService(f.st, f.status, zerolog.Nop())

	got, err := svc.AdvanceStatus(ctx, o.ID, orders.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusInProgress, got.Status)
	assert.Equal(t, orders.StatusInProgress, f.status[o.ID])

	_, err = svc.AdvanceStatus(ctx, o.ID, orders.StatusNew)
	assert.ErrorIs(t, err, orders.ErrInvalidTransition)

	_, err = svc.AdvanceStatus(ctx, o.ID, orders.StatusCompleted)
	require.NoError(t, err)
	_, err = svc.AdvanceStatus(ctx, o.ID, orders.StatusCompleted)
	assert.ErrorIs(t, err, orders.ErrInvalidTransition)

	_, err = svc.AdvanceStatus(ctx, o.ID+100, orders.StatusCompleted)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestStatusReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	f, o := placeOrder(t)
	svc := orders.NewService(f.st, f.status, zerolog.Nop())

	f.status[o.ID] = orders.StatusReady
	st, err := svc.Status(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusReady, st)

	delete(f.status, o.ID)
	st, err = svc.Status(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusNew, st)
	assert.Equal(t, orders.StatusNew, f.status[o.ID])

	noCache := orders.NewService(f.st, nil, zerolog.Nop())
	st, err = noCache.Status(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusNew, st)
}
