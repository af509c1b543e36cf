package postgres

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/ariefcatur/go-bookshop/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrdersRepo struct{ DB *pgxpool.Pool }

var (
	_ orders.Store     = (*OrdersRepo)(nil)
	_ orders.Inventory = (*OrdersRepo)(nil)
)

const orderColumns = `id, customer_id, cart_id, first_name, last_name, phone, address, buying_type, status, created_at`

func scanOrder(row pgx.Row, o *orders.Order) error {
	return row.Scan(&o.ID, &o.CustomerID, &o.CartID, &o.FirstName, &o.LastName, &o.Phone,
		&o.Address, &o.BuyingType, &o.Status, &o.CreatedAt)
}

func (r *OrdersRepo) CreateOrder(ctx context.Context, o *orders.Order) error {
	err := conn(ctx, r.DB).QueryRow(ctx, `
		INSERT INTO orders(customer_id, cart_id, first_name, last_name, phone, address, buying_type, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at`,
		o.CustomerID, o.CartID, o.FirstName, o.LastName, o.Phone, o.Address, o.BuyingType, o.Status,
	).Scan(&o.ID, &o.CreatedAt)
	if uniqueConstraint(err) == "orders_cart_id_key" {
		return cart.ErrCartFinalized
	}
	return err
}

func (r *OrdersRepo) Order(ctx context.Context, id int64) (*orders.Order, error) {
	var o orders.Order
	err := scanOrder(conn(ctx, r.DB).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrdersRepo) CustomerOrders(ctx context.Context, customerID int64) ([]orders.Order, error) {
	rows, err := conn(ctx, r.DB).Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id=$1 ORDER BY created_at DESC, id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []orders.Order{}
	for rows.Next() {
		var o orders.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OrdersRepo) UpdateStatus(ctx context.Context, id int64, from, to orders.Status) error {
	ct, err := conn(ctx, r.DB).Exec(ctx, `UPDATE orders SET status=$3 WHERE id=$1 AND status=$2`, id, from, to)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.Order(ctx, id); err != nil {
		return err
	}
	return orders.ErrInvalidTransition
}

// LockStock takes the row locks in id order. It must run inside
// TxManager.WithTransaction, otherwise the locks end with the statement.
func (r *OrdersRepo) LockStock(ctx context.Context, bookIDs []int64) (map[int64]int, error) {
	rows, err := conn(ctx, r.DB).Query(ctx,
		`SELECT id, stock FROM books WHERE id = ANY($1) ORDER BY id FOR UPDATE`, bookIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]int, len(bookIDs))
	for rows.Next() {
		var id int64
		var stock int
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, err
		}
		out[id] = stock
	}
	return out, rows.Err()
}

func (r *OrdersRepo) DecrementStock(ctx context.Context, bookID int64, qty int) error {
	ct, err := conn(ctx, r.DB).Exec(ctx, `
		UPDATE books SET stock = stock - $2, out_of_stock = (stock - $2 <= 0)
		WHERE id=$1 AND stock >= $2`, bookID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrInsufficientStock
	}
	return nil
}
