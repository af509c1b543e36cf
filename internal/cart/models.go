package cart

import (
	"github.com/ariefcatur/go-bookshop/internal/catalog"
	"github.com/shopspring/decimal"
)

// Cart is a customer's basket. A customer has at most one open cart
// (InOrder false); checkout finalizes it and it is never mutated again.
type Cart struct {
	ID            int64           `json:"id"`
	OwnerID       int64           `json:"owner_id"`
	Lines         []CartProduct   `json:"lines"`
	TotalProducts int             `json:"total_products"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	InOrder       bool            `json:"in_order"`
}

// CartProduct is one cart line, unique per (customer, cart, book).
type CartProduct struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	CartID     int64           `json:"cart_id"`
	Book       catalog.Book    `json:"book"`
	Qty        int             `json:"qty"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

// Reprice sets FinalPrice to Qty * Book.Price. Call before every save.
func (l *CartProduct) Reprice() {
	l.FinalPrice = l.Book.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Recalculate reprices every line and recomputes the cart totals from
// scratch. Totals are never updated incrementally.
func Recalculate(c *Cart) {
	total := decimal.Zero
	for i := range c.Lines {
		c.Lines[i].Reprice()
		total = total.Add(c.Lines[i].FinalPrice)
	}
	c.TotalProducts = len(c.Lines)
	c.FinalPrice = total
}

// Summary is the cart badge shown on every page.
type Summary struct {
	TotalProducts int             `json:"total_products"`
	FinalPrice    decimal.Decimal `json:"final_price"`
}

func (c *Cart) Summary() Summary {
	return Summary{TotalProducts: c.TotalProducts, FinalPrice: c.FinalPrice}
}
