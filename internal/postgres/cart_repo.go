package postgres

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepo struct{ DB *pgxpool.Pool }

var _ cart.Store = (*CartRepo)(nil)

func (r *CartRepo) OpenCart(ctx context.Context, customerID int64) (*cart.Cart, error) {
	var c cart.Cart
	err := conn(ctx, r.DB).QueryRow(ctx, `
		SELECT id, owner_id, total_products, final_price, in_order
		FROM carts WHERE owner_id=$1 AND NOT in_order`, customerID).
		Scan(&c.ID, &c.OwnerID, &c.TotalProducts, &c.FinalPrice, &c.InOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCart relies on carts_open_owner_idx: when a concurrent request opened
// the customer's cart first, that cart is loaded into c instead.
func (r *CartRepo) CreateCart(ctx context.Context, c *cart.Cart) error {
	err := conn(ctx, r.DB).QueryRow(ctx, `
		INSERT INTO carts(owner_id, total_products, final_price) VALUES ($1,$2,$3)
		ON CONFLICT (owner_id) WHERE NOT in_order DO NOTHING
		RETURNING id`,
		c.OwnerID, c.TotalProducts, c.FinalPrice).Scan(&c.ID)
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	open, err := r.OpenCart(ctx, c.OwnerID)
	if err != nil {
		return err
	}
	*c = *open
	return nil
}

const lineSelect = `
	SELECT l.id, l.customer_id, l.cart_id, l.qty, l.final_price, ` + bookColumns + `
	FROM cart_products l JOIN books b ON b.id = l.book_id`

func scanLine(row pgx.Row, l *cart.CartProduct) error {
	b := &l.Book
	return row.Scan(&l.ID, &l.CustomerID, &l.CartID, &l.Qty, &l.FinalPrice,
		&b.ID, &b.Name, &b.Slug, &b.ImageURL, &b.GenreID, &b.Price, &b.Stock, &b.OutOfStock)
}

func (r *CartRepo) Lines(ctx context.Context, cartID int64) ([]cart.CartProduct, error) {
	rows, err := conn(ctx, r.DB).Query(ctx, lineSelect+` WHERE l.cart_id=$1 ORDER BY l.id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []cart.CartProduct{}
	for rows.Next() {
		var l cart.CartProduct
		if err := scanLine(rows, &l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *CartRepo) Line(ctx context.Context, cartID, bookID int64) (*cart.CartProduct, error) {
	var l cart.CartProduct
	err := scanLine(conn(ctx, r.DB).QueryRow(ctx, lineSelect+` WHERE l.cart_id=$1 AND l.book_id=$2`, cartID, bookID), &l)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cart.ErrLineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindOrCreateLine relies on cart_products_line_key: a concurrent insert of
// the same line turns into a no-op and the existing row is read back.
func (r *CartRepo) FindOrCreateLine(ctx context.Context, l *cart.CartProduct) (bool, error) {
	db := conn(ctx, r.DB)
	var id int64
	err := db.QueryRow(ctx, `
		INSERT INTO cart_products(customer_id, cart_id, book_id, qty, final_price)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (customer_id, cart_id, book_id) DO NOTHING
		RETURNING id`,
		l.CustomerID, l.CartID, l.Book.ID, l.Qty, l.FinalPrice).Scan(&id)
	created := true
	if errors.Is(err, pgx.ErrNoRows) {
		created = false
	} else if err != nil {
		return false, err
	}
	stored, err := r.Line(ctx, l.CartID, l.Book.ID)
	if err != nil {
		return false, err
	}
	*l = *stored
	return created, nil
}

func (r *CartRepo) SaveLine(ctx context.Context, l *cart.CartProduct) error {
	ct, err := conn(ctx, r.DB).Exec(ctx,
		`UPDATE cart_products SET qty=$2, final_price=$3 WHERE id=$1`, l.ID, l.Qty, l.FinalPrice)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (r *CartRepo) DeleteLine(ctx context.Context, lineID int64) error {
	ct, err := conn(ctx, r.DB).Exec(ctx, `DELETE FROM cart_products WHERE id=$1`, lineID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (r *CartRepo) SaveTotals(ctx context.Context, c *cart.Cart) error {
	ct, err := conn(ctx, r.DB).Exec(ctx, `
		UPDATE carts SET total_products=$2, final_price=$3 WHERE id=$1 AND NOT in_order`,
		c.ID, c.TotalProducts, c.FinalPrice)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return cart.ErrCartFinalized
	}
	return nil
}

func (r *CartRepo) MarkInOrder(ctx context.Context, cartID int64) error {
	ct, err := conn(ctx, r.DB).Exec(ctx, `UPDATE carts SET in_order=TRUE WHERE id=$1 AND NOT in_order`, cartID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return cart.ErrCartFinalized
	}
	return nil
}
