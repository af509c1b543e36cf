package orders

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/ariefcatur/go-bookshop/internal/events"
	"github.com/ariefcatur/go-bookshop/internal/forms"
	"github.com/rs/zerolog"
)

type Store interface {
	CreateOrder(ctx context.Context, o *Order) error
	Order(ctx context.Context, id int64) (*Order, error)
	CustomerOrders(ctx context.Context, customerID int64) ([]Order, error)
	// UpdateStatus moves the order from `from` to `to` and fails with
	// ErrInvalidTransition when the stored status is no longer `from`.
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
}

type Inventory interface {
	// LockStock locks the given book rows until the transaction ends and
	// returns their stock by book id.
	LockStock(ctx context.Context, bookIDs []int64) (map[int64]int, error)
	// DecrementStock fails with ErrInsufficientStock instead of going negative.
	DecrementStock(ctx context.Context, bookID int64, qty int) error
}

type Carts interface {
	OpenCart(ctx context.Context, customerID int64) (*cart.Cart, error)
	Lines(ctx context.Context, cartID int64) ([]cart.CartProduct, error)
	MarkInOrder(ctx context.Context, cartID int64) error
}

type StatusCache interface {
	Get(ctx context.Context, orderID int64) (Status, bool, error)
	Put(ctx context.Context, orderID int64, s Status) error
}

// Workflow turns the customer's open cart into an order.
type Workflow struct {
	Orders    Store
	Stock     Inventory
	Carts     Carts
	Tx        cart.Transactor
	Publisher events.Publisher
	Summaries cart.SummaryCache // optional
	Statuses  StatusCache       // optional
	Service   string
	Log       zerolog.Logger
}

// Checkout validates the form and, in one transaction, finalizes the cart,
// checks every line against locked stock, creates the order and takes the
// ordered copies out of stock. A *StockError or *forms.ValidationError means
// nothing was written.
func (w *Workflow) Checkout(ctx context.Context, b Buyer, f Form) (*Order, error) {
	f = f.trimmed()
	if err := forms.Validate(f); err != nil {
		return nil, err
	}

	var (
		order  *Order
		placed *cart.Cart
	)
	err := w.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := w.Carts.OpenCart(ctx, b.CustomerID)
		if errors.Is(err, cart.ErrCartNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if c.Lines, err = w.Carts.Lines(ctx, c.ID); err != nil {
			return err
		}
		if len(c.Lines) == 0 {
			return ErrEmptyCart
		}
		cart.Recalculate(c)

		// Claiming the cart first serializes a double submit on the cart row;
		// the loser finds nothing left to order.
		if err := w.Carts.MarkInOrder(ctx, c.ID); err != nil {
			if errors.Is(err, cart.ErrCartFinalized) {
				return ErrEmptyCart
			}
			return err
		}
		c.InOrder = true

		stock, err := w.Stock.LockStock(ctx, bookIDs(c.Lines))
		if err != nil {
			return err
		}
		if serr := checkStock(c.Lines, stock); serr != nil {
			return serr
		}

		order = &Order{
			CustomerID: b.CustomerID,
			CartID:     c.ID,
			FirstName:  f.FirstName,
			LastName:   f.LastName,
			Phone:      f.Phone,
			Address:    f.Address,
			BuyingType: BuyingType(f.BuyingType),
			Status:     StatusNew,
		}
		if err := w.Orders.CreateOrder(ctx, order); err != nil {
			if errors.Is(err, cart.ErrCartFinalized) {
				return ErrEmptyCart
			}
			return err
		}
		for _, l := range c.Lines {
			if err := w.Stock.DecrementStock(ctx, l.Book.ID, l.Qty); err != nil {
				return err
			}
		}
		placed = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.afterCommit(ctx, b, order, placed)
	return order, nil
}

func (w *Workflow) afterCommit(ctx context.Context, b Buyer, o *Order, c *cart.Cart) {
	log := w.Log.With().Int64("order_id", o.ID).Int64("customer_id", b.CustomerID).Logger()
	log.Info().Int64("cart_id", c.ID).Str("final_price", c.FinalPrice.StringFixed(2)).Msg("order placed")

	if w.Summaries != nil {
		if err := w.Summaries.Drop(ctx, b.CustomerID); err != nil {
			log.Warn().Err(err).Msg("drop cart summary")
		}
	}
	if w.Statuses != nil {
		if err := w.Statuses.Put(ctx, o.ID, o.Status); err != nil {
			log.Warn().Err(err).Msg("cache order status")
		}
	}

	lines := make([]events.OrderLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, events.OrderLine{BookID: l.Book.ID, Title: l.Book.Name, Qty: l.Qty, FinalPrice: l.FinalPrice})
	}
	env := events.New(events.EventOrderPlaced, w.Service, strconv.FormatInt(o.ID, 10), events.TraceID(ctx), events.OrderPlacedPayload{
		OrderID:    o.ID,
		CustomerID: b.CustomerID,
		CartID:     c.ID,
		Email:      b.Email,
		FirstName:  o.FirstName,
		BuyingType: string(o.BuyingType),
		Lines:      lines,
		FinalPrice: c.FinalPrice,
	})
	events.Emit(w.Publisher, events.PartitionKey(o.ID), env)
}

// checkStock returns nil when every line can be served from stock.
func checkStock(lines []cart.CartProduct, stock map[int64]int) *StockError {
	serr := &StockError{}
	for _, l := range lines {
		avail := stock[l.Book.ID]
		switch {
		case avail <= 0:
			serr.OutOfStock = append(serr.OutOfStock, l.Book.Name)
		case avail < l.Qty:
			serr.Short = append(serr.Short, Shortage{Book: l.Book.Name, Available: avail, Requested: l.Qty})
		}
	}
	if serr.empty() {
		return nil
	}
	return serr
}

// bookIDs returns the distinct book ids in ascending order so concurrent
// checkouts take row locks in the same order.
func bookIDs(lines []cart.CartProduct) []int64 {
	seen := make(map[int64]bool, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if !seen[l.Book.ID] {
			seen[l.Book.ID] = true
			ids = append(ids, l.Book.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f Form) trimmed() Form {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.BuyingType = strings.TrimSpace(f.BuyingType)
	return f
}
