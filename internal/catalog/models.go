package catalog

import "github.com/shopspring/decimal"

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Book struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	ImageURL   string          `json:"image_url,omitempty"`
	GenreID    int64           `json:"genre_id"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	OutOfStock bool            `json:"out_of_stock"`
}

// SetStock is the only way to change stock in memory; it keeps OutOfStock in
// step with Stock.
func (b *Book) SetStock(n int) {
	b.Stock = n
	b.OutOfStock = n <= 0
}
