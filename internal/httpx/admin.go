package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-bookshop/internal/catalog"
	"github.com/ariefcatur/go-bookshop/internal/forms"
	"github.com/ariefcatur/go-bookshop/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type genreForm struct {
	Name string `form:"name" json:"name"`
	Slug string `form:"slug" json:"slug"`
}

func (h *Shop) createGenre(w http.ResponseWriter, r *http.Request) {
	var f genreForm
	if !decodePost(w, r, &f) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	g, err := h.Catalog.CreateGenre(ctx, f.Name, f.Slug)
	switch {
	case err == nil:
		h.Log.Info().Int64("genre_id", g.ID).Str("slug", g.Slug).Msg("genre created")
		writeJSON(w, http.StatusCreated, g)
	case h.renderForm(w, r, f, err):
	default:
		h.serverError(w, r, err)
	}
}

type bookForm struct {
	ID       int64           `form:"id" json:"id,omitempty"`
	Name     string          `form:"name" json:"name"`
	Slug     string          `form:"slug" json:"slug"`
	ImageURL string          `form:"image_url" json:"image_url"`
	GenreID  int64           `form:"genre_id" json:"genre_id"`
	Price    decimal.Decimal `form:"price" json:"price"`
	Stock    int             `form:"stock" json:"stock"`
}

// saveBook creates a book, or edits it when the form carries an id.
func (h *Shop) saveBook(w http.ResponseWriter, r *http.Request) {
	var f bookForm
	if !decodePost(w, r, &f) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	b, err := h.Catalog.SaveBook(ctx, catalog.Book{
		ID:       f.ID,
		Name:     f.Name,
		Slug:     f.Slug,
		ImageURL: f.ImageURL,
		GenreID:  f.GenreID,
		Price:    f.Price,
		Stock:    f.Stock,
	})
	switch {
	case err == nil:
		code := http.StatusCreated
		if f.ID != 0 {
			code = http.StatusOK
		}
		h.Log.Info().Int64("book_id", b.ID).Int("stock", b.Stock).Msg("book saved")
		writeJSON(w, code, b)
	case errors.Is(err, catalog.ErrBookNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case h.renderForm(w, r, f, err):
	default:
		h.serverError(w, r, err)
	}
}

func (h *Shop) advanceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "missing id")
		return
	}
	var f struct {
		Status string `form:"status" json:"status"`
	}
	if !decodePost(w, r, &f) {
		return
	}
	to, err := orders.ParseStatus(f.Status)
	if err != nil {
		h.renderForm(w, r, f, forms.FieldError("status", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.AdvanceStatus(ctx, id, to)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, o)
	case errors.Is(err, orders.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.serverError(w, r, err)
	}
}

func (h *Shop) orderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "missing id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	st, err := h.Orders.Status(ctx, id)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": id, "status": st})
}
