package memstore

import (
	"context"
	"sort"

	"github.com/ariefcatur/go-bookshop/internal/catalog"
)

func (s *Store) ListGenres(ctx context.Context) ([]catalog.Genre, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	out := make([]catalog.Genre, 0, len(s.t.genres))
	for _, g := range s.t.genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GenreBySlug(ctx context.Context, slug string) (*catalog.Genre, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	for _, g := range s.t.genres {
		if g.Slug == slug {
			return &g, nil
		}
	}
	return nil, catalog.ErrGenreNotFound
}

func (s *Store) CreateGenre(ctx context.Context, g *catalog.Genre) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	for _, other := range s.t.genres {
		if other.Slug == g.Slug {
			return catalog.ErrSlugTaken
		}
	}
	g.ID = s.t.next("genres")
	s.t.genres[g.ID] = *g
	return nil
}

func (s *Store) ListBooks(ctx context.Context, genreSlug string) ([]catalog.Book, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	var genreID int64
	if genreSlug != "" {
		for _, g := range s.t.genres {
			if g.Slug == genreSlug {
				genreID = g.ID
			}
		}
		if genreID == 0 {
			return []catalog.Book{}, nil
		}
	}
	out := make([]catalog.Book, 0, len(s.t.books))
	for _, b := range s.t.books {
		if genreID == 0 || b.GenreID == genreID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) BookBySlug(ctx context.Context, slug string) (*catalog.Book, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	for _, b := range s.t.books {
		if b.Slug == slug {
			return &b, nil
		}
	}
	return nil, catalog.ErrBookNotFound
}

func (s *Store) SaveBook(ctx context.Context, b *catalog.Book) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("SaveBook"); err != nil {
		return err
	}
	for _, other := range s.t.books {
		if other.Slug == b.Slug && other.ID != b.ID {
			return catalog.ErrSlugTaken
		}
	}
	if b.ID == 0 {
		b.ID = s.t.next("books")
	} else if _, ok := s.t.books[b.ID]; !ok {
		return catalog.ErrBookNotFound
	}
	s.t.books[b.ID] = *b
	return nil
}
