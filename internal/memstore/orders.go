package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/ariefcatur/go-bookshop/internal/orders"
)

func (s *Store) CreateOrder(ctx context.Context, o *orders.Order) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("CreateOrder"); err != nil {
		return err
	}
	o.ID = s.t.next("orders")
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	s.t.orders[o.ID] = *o
	return nil
}

func (s *Store) Order(ctx context.Context, id int64) (*orders.Order, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	o, ok := s.t.orders[id]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return &o, nil
}

// CustomerOrders lists the newest order first.
func (s *Store) CustomerOrders(ctx context.Context, customerID int64) ([]orders.Order, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	out := []orders.Order{}
	for _, o := range s.t.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, from, to orders.Status) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("UpdateStatus"); err != nil {
		return err
	}
	o, ok := s.t.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	if o.Status != from {
		return orders.ErrInvalidTransition
	}
	o.Status = to
	s.t.orders[id] = o
	return nil
}

// LockStock reads stock under the caller's transaction. Books that do not
// exist are reported with zero copies.
func (s *Store) LockStock(ctx context.Context, bookIDs []int64) (map[int64]int, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	if err := s.fail("LockStock"); err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(bookIDs))
	for _, id := range bookIDs {
		out[id] = s.t.books[id].Stock
	}
	return out, nil
}

func (s *Store) DecrementStock(ctx context.Context, bookID int64, qty int) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("DecrementStock"); err != nil {
		return err
	}
	b, ok := s.t.books[bookID]
	if !ok || b.Stock < qty {
		return orders.ErrInsufficientStock
	}
	b.SetStock(b.Stock - qty)
	s.t.books[bookID] = b
	return nil
}
