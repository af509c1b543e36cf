package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/ariefcatur/go-bookshop/internal/forms"
	"github.com/gosimple/slug"
)

var (
	ErrGenreNotFound = errors.New("genre not found")
	ErrBookNotFound  = errors.New("book not found")
	ErrSlugTaken     = errors.New("slug already in use")
)

type Repository interface {
	ListGenres(ctx context.Context) ([]Genre, error)
	GenreBySlug(ctx context.Context, slug string) (*Genre, error)
	CreateGenre(ctx context.Context, g *Genre) error
	// ListBooks returns every book when genreSlug is empty.
	ListBooks(ctx context.Context, genreSlug string) ([]Book, error)
	BookBySlug(ctx context.Context, slug string) (*Book, error)
	// SaveBook inserts when b.ID is zero and updates otherwise.
	SaveBook(ctx context.Context, b *Book) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Page is what the storefront shows: the genre menu and a book list,
// optionally narrowed to one genre.
type Page struct {
	Genres   []Genre `json:"genres"`
	Books    []Book  `json:"books"`
	Selected *Genre  `json:"selected,omitempty"`
}

func (s *Service) Home(ctx context.Context) (*Page, error) {
	genres, err := s.repo.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	books, err := s.repo.ListBooks(ctx, "")
	if err != nil {
		return nil, err
	}
	return &Page{Genres: genres, Books: books}, nil
}

func (s *Service) ByGenre(ctx context.Context, genreSlug string) (*Page, error) {
	g, err := s.repo.GenreBySlug(ctx, genreSlug)
	if err != nil {
		return nil, err
	}
	genres, err := s.repo.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	books, err := s.repo.ListBooks(ctx, g.Slug)
	if err != nil {
		return nil, err
	}
	return &Page{Genres: genres, Books: books, Selected: g}, nil
}

func (s *Service) Book(ctx context.Context, bookSlug string) (*Book, error) {
	return s.repo.BookBySlug(ctx, bookSlug)
}

// CreateGenre adds a genre. Genres are never edited afterwards.
func (s *Service) CreateGenre(ctx context.Context, name, genreSlug string) (*Genre, error) {
	g := &Genre{Name: strings.TrimSpace(name), Slug: strings.TrimSpace(genreSlug)}
	if g.Name == "" {
		return nil, forms.FieldError("name", "this field is required")
	}
	if g.Slug == "" {
		g.Slug = slug.Make(g.Name)
	}
	if !slug.IsSlug(g.Slug) {
		return nil, forms.FieldError("slug", "invalid slug")
	}
	if err := s.repo.CreateGenre(ctx, g); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, forms.FieldError("slug", err.Error())
		}
		return nil, err
	}
	return g, nil
}

// SaveBook creates or edits a book. The out-of-stock flag is always derived
// from the submitted stock.
func (s *Service) SaveBook(ctx context.Context, b Book) (*Book, error) {
	b.Name = strings.TrimSpace(b.Name)
	b.Slug = strings.TrimSpace(b.Slug)
	switch {
	case b.Name == "":
		return nil, forms.FieldError("name", "this field is required")
	case b.GenreID <= 0:
		return nil, forms.FieldError("genre_id", "this field is required")
	case b.Price.IsNegative():
		return nil, forms.FieldError("price", "must not be negative")
	case b.Stock < 0:
		return nil, forms.FieldError("stock", "must not be negative")
	}
	if b.Slug == "" {
		b.Slug = slug.Make(b.Name)
	}
	if !slug.IsSlug(b.Slug) {
		return nil, forms.FieldError("slug", "invalid slug")
	}
	b.Price = b.Price.Round(2)
	b.SetStock(b.Stock)
	if err := s.repo.SaveBook(ctx, &b); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, forms.FieldError("slug", err.Error())
		}
		return nil, err
	}
	return &b, nil
}
