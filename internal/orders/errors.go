package orders

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Shortage is a cart line asking for more copies than are in stock.
type Shortage struct {
	Book      string `json:"book"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// StockError lists every line that blocks a checkout.
type StockError struct {
	OutOfStock []string   `json:"out_of_stock,omitempty"`
	Short      []Shortage `json:"short,omitempty"`
}

func (e *StockError) empty() bool { return len(e.OutOfStock) == 0 && len(e.Short) == 0 }

// Error is the message shown to the customer.
func (e *StockError) Error() string {
	var b strings.Builder
	if len(e.OutOfStock) > 0 {
		fmt.Fprintf(&b, "No longer in stock: %s.\n", strings.Join(e.OutOfStock, ", "))
	}
	for _, s := range e.Short {
		fmt.Fprintf(&b, "Book: %s. In stock: %d. Ordered: %d\n", s.Book, s.Available, s.Requested)
	}
	return strings.TrimRight(b.String(), "\n")
}
