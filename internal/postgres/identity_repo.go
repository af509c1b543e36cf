package postgres

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-bookshop/internal/identity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IdentityRepo struct{ DB *pgxpool.Pool }

var _ identity.Store = (*IdentityRepo)(nil)

const userColumns = `id, username, email, first_name, last_name, password_hash, is_active, is_staff, created_at`

func scanUser(row pgx.Row, u *identity.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.IsActive, &u.IsStaff, &u.CreatedAt)
}

func (r *IdentityRepo) CreateUser(ctx context.Context, u *identity.User) error {
	err := conn(ctx, r.DB).QueryRow(ctx, `
		INSERT INTO users(username, email, first_name, last_name, password_hash, is_active, is_staff)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsActive, u.IsStaff,
	).Scan(&u.ID, &u.CreatedAt)
	switch uniqueConstraint(err) {
	case "":
		return err
	case "users_email_key":
		return identity.ErrEmailTaken
	default:
		return identity.ErrUsernameTaken
	}
}

func (r *IdentityRepo) user(ctx context.Context, where string, arg any) (*identity.User, error) {
	var u identity.User
	err := scanUser(conn(ctx, r.DB).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg), &u)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *IdentityRepo) UserByID(ctx context.Context, id int64) (*identity.User, error) {
	return r.user(ctx, `id=$1`, id)
}

func (r *IdentityRepo) UserByUsername(ctx context.Context, username string) (*identity.User, error) {
	return r.user(ctx, `lower(username)=lower($1)`, username)
}

func (r *IdentityRepo) ActivateUser(ctx context.Context, id int64) error {
	ct, err := conn(ctx, r.DB).Exec(ctx, `UPDATE users SET is_active=TRUE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return identity.ErrUserNotFound
	}
	return nil
}

func (r *IdentityRepo) CreateCustomer(ctx context.Context, c *identity.Customer) error {
	return conn(ctx, r.DB).QueryRow(ctx, `
		INSERT INTO customers(user_id, is_active, phone) VALUES ($1,$2,$3) RETURNING id`,
		c.UserID, c.IsActive, c.Phone).Scan(&c.ID)
}

func (r *IdentityRepo) CustomerByUserID(ctx context.Context, userID int64) (*identity.Customer, error) {
	var c identity.Customer
	err := conn(ctx, r.DB).QueryRow(ctx,
		`SELECT id, user_id, is_active, phone FROM customers WHERE user_id=$1`, userID).
		Scan(&c.ID, &c.UserID, &c.IsActive, &c.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, identity.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *IdentityRepo) ActivateCustomer(ctx context.Context, id int64) error {
	ct, err := conn(ctx, r.DB).Exec(ctx, `UPDATE customers SET is_active=TRUE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return identity.ErrCustomerNotFound
	}
	return nil
}
