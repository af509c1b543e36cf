package orders_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/ariefcatur/go-bookshop/internal/catalog"
	"github.com/ariefcatur/go-bookshop/internal/events"
	"github.com/ariefcatur/go-bookshop/internal/forms"
	kafkax "github.com/ariefcatur/go-bookshop/internal/kafka"
	"github.com/ariefcatur/go-bookshop/internal/memstore"
	"github.com/ariefcatur/go-bookshop/internal/orders"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customer = int64(1)

var buyer = orders.Buyer{CustomerID: customer, Email: "ann@example.com"}

var validForm = orders.Form{
	FirstName:  "Ann",
	LastName:   "Lee",
	Phone:      "+100200300",
	Address:    "1 Main St",
	BuyingType: "delivery",
}

type published struct{ msgs []kafkago.Message }

func (p *published) Publish(key, value []byte, headers ...kafkago.Header) {
	p.msgs = append(p.msgs, kafkago.Message{Key: key, Value: value, Headers: headers})
}

type fixture struct {
	st     *memstore.Store
	carts  *cart.Engine
	flow   *orders.Workflow
	pub    *published
	status statusMap
}

type statusMap map[int64]orders.Status

func (m statusMap) Get(_ context.Context, id int64) (orders.Status, bool, error) {
	s, ok := m[id]
	return s, ok, nil
}

func (m statusMap) Put(_ context.Context, id int64, s orders.Status) error {
	m[id] = s
	return nil
}

func newFixture(t *testing.T, books ...catalog.Book) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	g := &catalog.Genre{Name: "Novels", Slug: "novels"}
	require.NoError(t, st.CreateGenre(ctx, g))
	for _, b := range books {
		b.GenreID = g.ID
		b.SetStock(b.Stock)
		require.NoError(t, st.SaveBook(ctx, &b))
	}
	tx := memstore.NewTx(st)
	pub := &published{}
	statuses := statusMap{}
	return &fixture{
		st:    st,
		carts: cart.NewEngine(st, st, tx, nil, zerolog.Nop()),
		flow: &orders.Workflow{
			Orders:    st,
			Stock:     st,
			Carts:     st,
			Tx:        tx,
			Publisher: pub,
			Statuses:  statuses,
			Service:   "bookshop",
			Log:       zerolog.Nop(),
		},
		pub:    pub,
		status: statuses,
	}
}

func (f *fixture) put(t *testing.T, slug string, qty int) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddToCart(ctx, customer, slug)
	require.NoError(t, err)
	for i := 1; i < qty; i++ {
		_, err := f.carts.ChangeQuantity(ctx, customer, slug, 1)
		require.NoError(t, err)
	}
}

func (f *fixture) setStock(t *testing.T, slug string, n int) {
	t.Helper()
	ctx := context.Background()
	b, err := f.st.BookBySlug(ctx, slug)
	require.NoError(t, err)
	b.SetStock(n)
	require.NoError(t, f.st.SaveBook(ctx, b))
}

func (f *fixture) stock(t *testing.T, slug string) int {
	t.Helper()
	b, err := f.st.BookBySlug(context.Background(), slug)
	require.NoError(t, err)
	return b.Stock
}

func bookA() catalog.Book {
	return catalog.Book{Name: "Book A", Slug: "book-a", Price: decimal.RequireFromString("10.00"), Stock: 5}
}

func bookB() catalog.Book {
	return catalog.Book{Name: "Book B", Slug: "book-b", Price: decimal.RequireFromString("4.00"), Stock: 1}
}

func TestCheckoutSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookA())
	f.put(t, "book-a", 2)

	o, err := f.flow.Checkout(ctx, buyer, validForm)
	require.NoError(t, err)

	assert.Equal(t, orders.StatusNew, o.Status)
	assert.Equal(t, customer, o.CustomerID)
	assert.Equal(t, orders.BuyingDelivery, o.BuyingType)
	assert.Equal(t, 3, f.stock(t, "book-a"))

	c, err := f.st.CartByID(ctx, o.CartID)
	require.NoError(t, err)
	assert.True(t, c.InOrder)
	assert.Equal(t, "20.00", c.FinalPrice.StringFixed(2))

	list, err := f.st.CustomerOrders(ctx, customer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, o.ID, list[0].ID)
	assert.Equal(t, orders.StatusNew, f.status[o.ID])

	require.Len(t, f.pub.msgs, 1)
	var env events.Envelope
	require.NoError(t, json.Unmarshal(f.pub.msgs[0].Value, &env))
	assert.Equal(t, events.EventOrderPlaced, env.EventType)
	p, err := kafkax.UnwrapPayload[events.OrderPlacedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, o.ID, p.OrderID)
	assert.Equal(t, "ann@example.com", p.Email)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, 2, p.Lines[0].Qty)
	assert.Equal(t, "20.00", p.FinalPrice.StringFixed(2))
}

func TestCheckoutRejectsOutOfStockLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookA(), bookB())
	f.put(t, "book-a", 2)
	f.put(t, "book-b", 1)
	f.setStock(t, "book-b", 0)

	_, err := f.flow.Checkout(ctx, buyer, validForm)
	var serr *orders.StockError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []string{"Book B"}, serr.OutOfStock)
	assert.Empty(t, serr.Short)

	assert.Equal(t, 5, f.stock(t, "book-a"))
	assert.Equal(t, 0, f.stock(t, "book-b"))
	list, err := f.st.CustomerOrders(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, list)

	open, err := f.st.OpenCart(ctx, customer)
	require.NoError(t, err)
	assert.False(t, open.InOrder)
	assert.Empty(t, f.pub.msgs)
}

func TestCheckoutReportsEveryConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookA(), bookB())
	f.put(t, "book-a", 4)
	f.put(t, "book-b", 1)
	f.setStock(t, "book-a", 3)
	f.setStock(t, "book-b", 0)

	_, err := f.flow.Checkout(ctx, buyer, validForm)
	var serr *orders.StockError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []orders.Shortage{{Book: "Book A", Available: 3, Requested: 4}}, serr.Short)
	assert.Equal(t, "No longer in stock: Book B.\nBook: Book A. In stock: 3. Ordered: 4", serr.Error())
	assert.Equal(t, 3, f.stock(t, "book-a"))
}

func TestCheckoutFinalizesCartOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookA())
	f.put(t, "book-a", 1)

	_, err := f.flow.Checkout(ctx, buyer, validForm)
	require.NoError(t, err)

	_, err = f.flow.Checkout(ctx, buyer, validForm)
	assert.ErrorIs(t, err, orders.ErrEmptyCart)
	assert.Equal(t, 4, f.stock(t, "book-a"))

	// the next mutation opens a fresh cart
	c, err := f.carts.AddToCart(ctx, customer, "book-a")
	require.NoError(t, err)
	list, err := f.st.CustomerOrders(ctx, customer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEqual(t, list[0].CartID, c.ID)
}

func TestCheckoutEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookA())

	_, err := f.flow.Checkout(ctx, buyer, validForm)
	assert.ErrorIs(t, err, orders.ErrEmptyCart)

	f.put(t, "book-a", 1)
	_, err = f.carts.RemoveFromCart(ctx, customer, "book-a")
	require.NoError(t, err)
	_, err = f.flow.Checkout(ctx, buyer, validForm)
	assert.ErrorIs(t, err, orders.ErrEmptyCart)
}

func TestCheckoutValidatesForm(t *testing.T) {
	f := newFixture(t, bookA())
	f.put(t, "book-a", 1)

	bad := validForm
	bad.Address = "   "
	bad.BuyingType = "drone"
	_, err := f.flow.Checkout(context.Background(), buyer, bad)
	var verr *forms.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "address")
	assert.Contains(t, verr.Fields, "buying_type")
	assert.Equal(t, 5, f.stock(t, "book-a"))
}

func TestCheckoutRollsBackOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookA(), bookB())
	f.put(t, "book-a", 2)
	f.put(t, "book-b", 1)

	boom := errors.New("disk full")
	f.st.FailOn("DecrementStock", boom)
	_, err := f.flow.Checkout(ctx, buyer, validForm)
	require.ErrorIs(t, err, boom)
	f.st.FailOn("DecrementStock", nil)

	assert.Equal(t, 5, f.stock(t, "book-a"))
	assert.Equal(t, 1, f.stock(t, "book-b"))
	list, err := f.st.CustomerOrders(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, list)
	open, err := f.st.OpenCart(ctx, customer)
	require.NoError(t, err)
	assert.False(t, open.InOrder)
	assert.Empty(t, f.pub.msgs)
}

func TestCheckoutSetsOutOfStockFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookB())
	f.put(t, "book-b", 1)

	_, err := f.flow.Checkout(ctx, buyer, validForm)
	require.NoError(t, err)
	b, err := f.st.BookBySlug(ctx, "book-b")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Stock)
	assert.True(t, b.OutOfStock)
}

// claimedElsewhere behaves as if a concurrent checkout finalized the cart
// between reading it and claiming it.
type claimedElsewhere struct{ *memstore.Store }

func (claimedElsewhere) MarkInOrder(context.Context, int64) error { return cart.ErrCartFinalized }

func TestCheckoutDoubleSubmitFindsEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookA())
	f.put(t, "book-a", 2)
	f.flow.Carts = claimedElsewhere{f.st}

	_, err := f.flow.Checkout(ctx, buyer, validForm)
	assert.ErrorIs(t, err, orders.ErrEmptyCart)
	assert.Equal(t, 5, f.stock(t, "book-a"))
	list, err := f.st.CustomerOrders(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.pub.msgs)
}

func TestCheckoutStockConflictKeepsCartOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookA())
	f.put(t, "book-a", 2)
	f.setStock(t, "book-a", 1)

	_, err := f.flow.Checkout(ctx, buyer, validForm)
	var serr *orders.StockError
	require.ErrorAs(t, err, &serr)
	open, err := f.st.OpenCart(ctx, customer)
	require.NoError(t, err)
	assert.False(t, open.InOrder)
}
