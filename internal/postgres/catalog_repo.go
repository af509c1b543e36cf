package postgres

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-bookshop/internal/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatalogRepo struct{ DB *pgxpool.Pool }

var _ catalog.Repository = (*CatalogRepo)(nil)

const bookColumns = `b.id, b.name, b.slug, b.image_url, b.genre_id, b.price, b.stock, b.out_of_stock`

func scanBook(row pgx.Row, b *catalog.Book) error {
	return row.Scan(&b.ID, &b.Name, &b.Slug, &b.ImageURL, &b.GenreID, &b.Price, &b.Stock, &b.OutOfStock)
}

func (r *CatalogRepo) ListGenres(ctx context.Context) ([]catalog.Genre, error) {
	rows, err := conn(ctx, r.DB).Query(ctx, `SELECT id, name, slug FROM genres ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []catalog.Genre{}
	for rows.Next() {
		var g catalog.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) GenreBySlug(ctx context.Context, slug string) (*catalog.Genre, error) {
	var g catalog.Genre
	err := conn(ctx, r.DB).QueryRow(ctx, `SELECT id, name, slug FROM genres WHERE slug=$1`, slug).
		Scan(&g.ID, &g.Name, &g.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrGenreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *CatalogRepo) CreateGenre(ctx context.Context, g *catalog.Genre) error {
	err := conn(ctx, r.DB).QueryRow(ctx,
		`INSERT INTO genres(name, slug) VALUES ($1,$2) RETURNING id`, g.Name, g.Slug).Scan(&g.ID)
	if uniqueConstraint(err) != "" {
		return catalog.ErrSlugTaken
	}
	return err
}

// ListBooks returns every book, or the books of one genre when genreSlug is
// set.
func (r *CatalogRepo) ListBooks(ctx context.Context, genreSlug string) ([]catalog.Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books b`
	args := []any{}
	if genreSlug != "" {
		q += ` JOIN genres g ON g.id = b.genre_id WHERE g.slug=$1`
		args = append(args, genreSlug)
	}
	rows, err := conn(ctx, r.DB).Query(ctx, q+` ORDER BY b.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []catalog.Book{}
	for rows.Next() {
		var b catalog.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) BookBySlug(ctx context.Context, slug string) (*catalog.Book, error) {
	var b catalog.Book
	err := scanBook(conn(ctx, r.DB).QueryRow(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.slug=$1`, slug), &b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *CatalogRepo) SaveBook(ctx context.Context, b *catalog.Book) error {
	db := conn(ctx, r.DB)
	var err error
	if b.ID == 0 {
		err = db.QueryRow(ctx, `
			INSERT INTO books(name, slug, image_url, genre_id, price, stock, out_of_stock)
			VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
			b.Name, b.Slug, b.ImageURL, b.GenreID, b.Price, b.Stock, b.OutOfStock).Scan(&b.ID)
	} else {
		var ct pgconn.CommandTag
		ct, err = db.Exec(ctx, `
			UPDATE books SET name=$2, slug=$3, image_url=$4, genre_id=$5, price=$6, stock=$7, out_of_stock=$8
			WHERE id=$1`,
			b.ID, b.Name, b.Slug, b.ImageURL, b.GenreID, b.Price, b.Stock, b.OutOfStock)
		if err == nil && ct.RowsAffected() != 1 {
			return catalog.ErrBookNotFound
		}
	}
	if uniqueConstraint(err) != "" {
		return catalog.ErrSlugTaken
	}
	return err
}
