// Package memstore keeps every bookshop table in memory behind one lock. The
// service and handler tests run on it.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/ariefcatur/go-bookshop/internal/catalog"
	"github.com/ariefcatur/go-bookshop/internal/identity"
	"github.com/ariefcatur/go-bookshop/internal/orders"
)

type line struct {
	cart.CartProduct
	bookID int64
}

type tables struct {
	seq       map[string]int64
	genres    map[int64]catalog.Genre
	books     map[int64]catalog.Book
	carts     map[int64]cart.Cart
	lines     map[int64]line
	orders    map[int64]orders.Order
	users     map[int64]identity.User
	customers map[int64]identity.Customer
}

func newTables() tables {
	return tables{
		seq:       map[string]int64{},
		genres:    map[int64]catalog.Genre{},
		books:     map[int64]catalog.Book{},
		carts:     map[int64]cart.Cart{},
		lines:     map[int64]line{},
		orders:    map[int64]orders.Order{},
		users:     map[int64]identity.User{},
		customers: map[int64]identity.Customer{},
	}
}

func (t tables) clone() tables {
	return tables{
		seq:       cloneMap(t.seq),
		genres:    cloneMap(t.genres),
		books:     cloneMap(t.books),
		carts:     cloneMap(t.carts),
		lines:     cloneMap(t.lines),
		orders:    cloneMap(t.orders),
		users:     cloneMap(t.users),
		customers: cloneMap(t.customers),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t tables) next(table string) int64 {
	t.seq[table]++
	return t.seq[table]
}

// Store implements the catalog, cart, orders and identity stores.
type Store struct {
	mu       sync.RWMutex
	t        tables
	failures map[string]error
}

func New() *Store {
	return &Store{t: newTables(), failures: map[string]error{}}
}

var (
	_ catalog.Repository = (*Store)(nil)
	_ cart.Store         = (*Store)(nil)
	_ orders.Store       = (*Store)(nil)
	_ orders.Inventory   = (*Store)(nil)
	_ identity.Store     = (*Store)(nil)
)

// FailOn makes the named method return err until cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) fail(method string) error {
	if err := s.failures[method]; err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	b, _ := ctx.Value(txKey{}).(bool)
	return b
}

func (s *Store) rlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.RLock()
	}
}

func (s *Store) runlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.RUnlock()
	}
}

func (s *Store) wlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.Lock()
	}
}

func (s *Store) wunlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.Unlock()
	}
}

// Tx runs functions under the store's write lock and restores the tables
// when the function fails.
type Tx struct{ store *Store }

func NewTx(store *Store) *Tx { return &Tx{store: store} }

func (tx *Tx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.t.clone()
	defer func() {
		if p := recover(); p != nil {
			s.t = snapshot
			panic(p)
		}
		if err != nil {
			s.t = snapshot
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, true))
}
