package cart

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-bookshop/internal/catalog"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrCartNotFound  = errors.New("cart not found")
	ErrLineNotFound  = errors.New("cart line not found")
	ErrCartFinalized = errors.New("cart already in order")
	ErrInvalidDelta  = errors.New("quantity change must be +1 or -1")
)

type Store interface {
	// OpenCart returns the customer's cart with in_order=false, without lines.
	OpenCart(ctx context.Context, customerID int64) (*Cart, error)
	// CreateCart inserts c as the customer's open cart. When one already
	// exists it is loaded into c instead.
	CreateCart(ctx context.Context, c *Cart) error
	// Lines returns the cart lines with their books, ordered by line id.
	Lines(ctx context.Context, cartID int64) ([]CartProduct, error)
	Line(ctx context.Context, cartID, bookID int64) (*CartProduct, error)
	// FindOrCreateLine looks the line up by (customer, cart, book) and inserts
	// l when it does not exist. l is overwritten with the stored line.
	FindOrCreateLine(ctx context.Context, l *CartProduct) (created bool, err error)
	SaveLine(ctx context.Context, l *CartProduct) error
	DeleteLine(ctx context.Context, lineID int64) error
	// SaveTotals persists total_products and final_price of an open cart.
	SaveTotals(ctx context.Context, c *Cart) error
	// MarkInOrder flips in_order to true, or fails with ErrCartFinalized.
	MarkInOrder(ctx context.Context, cartID int64) error
}

type Books interface {
	BookBySlug(ctx context.Context, slug string) (*catalog.Book, error)
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type SummaryCache interface {
	Get(ctx context.Context, customerID int64) (Summary, bool, error)
	Put(ctx context.Context, customerID int64, s Summary) error
	Drop(ctx context.Context, customerID int64) error
}

type Engine struct {
	store Store
	books Books
	tx    Transactor
	cache SummaryCache
	log   zerolog.Logger
}

// NewEngine wires the cart engine. cache may be nil.
func NewEngine(store Store, books Books, tx Transactor, cache SummaryCache, log zerolog.Logger) *Engine {
	return &Engine{store: store, books: books, tx: tx, cache: cache, log: log}
}

// Current returns the open cart with lines, or an empty unsaved cart.
func (e *Engine) Current(ctx context.Context, customerID int64) (*Cart, error) {
	c, err := e.store.OpenCart(ctx, customerID)
	if errors.Is(err, ErrCartNotFound) {
		return &Cart{OwnerID: customerID, Lines: []CartProduct{}, FinalPrice: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Lines, err = e.store.Lines(ctx, c.ID); err != nil {
		return nil, err
	}
	Recalculate(c)
	return c, nil
}

func (e *Engine) Summary(ctx context.Context, customerID int64) (Summary, error) {
	if e.cache != nil {
		s, ok, err := e.cache.Get(ctx, customerID)
		if err != nil {
			e.log.Warn().Err(err).Int64("customer_id", customerID).Msg("cart summary cache read")
		} else if ok {
			return s, nil
		}
	}
	c, err := e.Current(ctx, customerID)
	if err != nil {
		return Summary{}, err
	}
	e.remember(ctx, c)
	return c.Summary(), nil
}

// AddToCart puts one copy of the book into the open cart, creating the cart
// on first use. Adding a book that is already in the cart changes nothing.
func (e *Engine) AddToCart(ctx context.Context, customerID int64, bookSlug string) (*Cart, error) {
	var out *Cart
	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		book, err := e.books.BookBySlug(ctx, bookSlug)
		if err != nil {
			return err
		}
		c, err := e.openOrCreate(ctx, customerID)
		if err != nil {
			return err
		}
		line := &CartProduct{CustomerID: customerID, CartID: c.ID, Book: *book, Qty: 1}
		line.Reprice()
		created, err := e.store.FindOrCreateLine(ctx, line)
		if err != nil {
			return err
		}
		e.log.Debug().Int64("cart_id", c.ID).Str("book", bookSlug).Bool("created", created).Msg("add to cart")
		out = c
		return e.Recalculate(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	e.remember(ctx, out)
	return out, nil
}

func (e *Engine) RemoveFromCart(ctx context.Context, customerID int64, bookSlug string) (*Cart, error) {
	var out *Cart
	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, line, err := e.findLine(ctx, customerID, bookSlug)
		if err != nil {
			return err
		}
		if err := e.store.DeleteLine(ctx, line.ID); err != nil {
			return err
		}
		out = c
		return e.Recalculate(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	e.remember(ctx, out)
	return out, nil
}

// ChangeQuantity moves a line's qty by delta (+1 or -1). Going below one
// removes the line.
func (e *Engine) ChangeQuantity(ctx context.Context, customerID int64, bookSlug string, delta int) (*Cart, error) {
	if delta != 1 && delta != -1 {
		return nil, ErrInvalidDelta
	}
	var out *Cart
	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, line, err := e.findLine(ctx, customerID, bookSlug)
		if err != nil {
			return err
		}
		line.Qty += delta
		if line.Qty < 1 {
			err = e.store.DeleteLine(ctx, line.ID)
		} else {
			line.Reprice()
			err = e.store.SaveLine(ctx, line)
		}
		if err != nil {
			return err
		}
		out = c
		return e.Recalculate(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	e.remember(ctx, out)
	return out, nil
}

// Recalculate reloads the lines of c, recomputes every total and persists
// the lines whose price moved together with the cart totals.
func (e *Engine) Recalculate(ctx context.Context, c *Cart) error {
	lines, err := e.store.Lines(ctx, c.ID)
	if err != nil {
		return err
	}
	stored := make([]decimal.Decimal, len(lines))
	for i := range lines {
		stored[i] = lines[i].FinalPrice
	}
	c.Lines = lines
	Recalculate(c)
	for i := range c.Lines {
		if !c.Lines[i].FinalPrice.Equal(stored[i]) {
			if err := e.store.SaveLine(ctx, &c.Lines[i]); err != nil {
				return err
			}
		}
	}
	return e.store.SaveTotals(ctx, c)
}

func (e *Engine) openOrCreate(ctx context.Context, customerID int64) (*Cart, error) {
	c, err := e.store.OpenCart(ctx, customerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}
	c = &Cart{OwnerID: customerID, FinalPrice: decimal.Zero}
	if err := e.store.CreateCart(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) findLine(ctx context.Context, customerID int64, bookSlug string) (*Cart, *CartProduct, error) {
	book, err := e.books.BookBySlug(ctx, bookSlug)
	if err != nil {
		return nil, nil, err
	}
	c, err := e.store.OpenCart(ctx, customerID)
	if errors.Is(err, ErrCartNotFound) {
		return nil, nil, ErrLineNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	line, err := e.store.Line(ctx, c.ID, book.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, line, nil
}

func (e *Engine) remember(ctx context.Context, c *Cart) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Put(ctx, c.OwnerID, c.Summary()); err != nil {
		e.log.Warn().Err(err).Int64("customer_id", c.OwnerID).Msg("cart summary cache write")
	}
}
