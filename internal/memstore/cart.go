package memstore

import (
	"context"
	"sort"

	"github.com/ariefcatur/go-bookshop/internal/cart"
)

func (s *Store) OpenCart(ctx context.Context, customerID int64) (*cart.Cart, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	if err := s.fail("OpenCart"); err != nil {
		return nil, err
	}
	for _, c := range s.t.carts {
		if c.OwnerID == customerID && !c.InOrder {
			c.Lines = nil
			return &c, nil
		}
	}
	return nil, cart.ErrCartNotFound
}

func (s *Store) CreateCart(ctx context.Context, c *cart.Cart) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("CreateCart"); err != nil {
		return err
	}
	for _, open := range s.t.carts {
		if open.OwnerID == c.OwnerID && !open.InOrder {
			*c = open
			return nil
		}
	}
	c.ID = s.t.next("carts")
	stored := *c
	stored.Lines = nil
	s.t.carts[c.ID] = stored
	return nil
}

// CartByID returns any cart, open or finalized, with its lines.
func (s *Store) CartByID(ctx context.Context, id int64) (*cart.Cart, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	c, ok := s.t.carts[id]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	c.Lines = s.linesOf(id)
	return &c, nil
}

func (s *Store) Lines(ctx context.Context, cartID int64) ([]cart.CartProduct, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	if err := s.fail("Lines"); err != nil {
		return nil, err
	}
	return s.linesOf(cartID), nil
}

func (s *Store) Line(ctx context.Context, cartID, bookID int64) (*cart.CartProduct, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	for _, l := range s.t.lines {
		if l.CartID == cartID && l.bookID == bookID {
			out := s.withBook(l)
			return &out, nil
		}
	}
	return nil, cart.ErrLineNotFound
}

func (s *Store) FindOrCreateLine(ctx context.Context, l *cart.CartProduct) (bool, error) {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("FindOrCreateLine"); err != nil {
		return false, err
	}
	for _, existing := range s.t.lines {
		if existing.CustomerID == l.CustomerID && existing.CartID == l.CartID && existing.bookID == l.Book.ID {
			*l = s.withBook(existing)
			return false, nil
		}
	}
	l.ID = s.t.next("lines")
	s.t.lines[l.ID] = line{CartProduct: *l, bookID: l.Book.ID}
	return true, nil
}

func (s *Store) SaveLine(ctx context.Context, l *cart.CartProduct) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("SaveLine"); err != nil {
		return err
	}
	stored, ok := s.t.lines[l.ID]
	if !ok {
		return cart.ErrLineNotFound
	}
	stored.Qty = l.Qty
	stored.FinalPrice = l.FinalPrice
	s.t.lines[l.ID] = stored
	return nil
}

func (s *Store) DeleteLine(ctx context.Context, lineID int64) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("DeleteLine"); err != nil {
		return err
	}
	if _, ok := s.t.lines[lineID]; !ok {
		return cart.ErrLineNotFound
	}
	delete(s.t.lines, lineID)
	return nil
}

func (s *Store) SaveTotals(ctx context.Context, c *cart.Cart) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("SaveTotals"); err != nil {
		return err
	}
	stored, ok := s.t.carts[c.ID]
	if !ok {
		return cart.ErrCartNotFound
	}
	if stored.InOrder {
		return cart.ErrCartFinalized
	}
	stored.TotalProducts = c.TotalProducts
	stored.FinalPrice = c.FinalPrice
	s.t.carts[c.ID] = stored
	return nil
}

func (s *Store) MarkInOrder(ctx context.Context, cartID int64) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("MarkInOrder"); err != nil {
		return err
	}
	stored, ok := s.t.carts[cartID]
	if !ok {
		return cart.ErrCartNotFound
	}
	if stored.InOrder {
		return cart.ErrCartFinalized
	}
	stored.InOrder = true
	s.t.carts[cartID] = stored
	return nil
}

func (s *Store) linesOf(cartID int64) []cart.CartProduct {
	out := []cart.CartProduct{}
	for _, l := range s.t.lines {
		if l.CartID == cartID {
			out = append(out, s.withBook(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// withBook joins the line with the book as it is now, so price and stock
// changes show up in the cart.
func (s *Store) withBook(l line) cart.CartProduct {
	out := l.CartProduct
	if b, ok := s.t.books[l.bookID]; ok {
		out.Book = b
	}
	return out
}
