package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/ariefcatur/go-bookshop/internal/catalog"
	"github.com/ariefcatur/go-bookshop/internal/identity"
	"github.com/ariefcatur/go-bookshop/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// FlashStore is satisfied by *redisx.Flashes.
type FlashStore interface {
	Add(ctx context.Context, sid, msg string) error
	Pop(ctx context.Context, sid string) ([]string, error)
}

// Shop serves the storefront, account and back-office routes.
type Shop struct {
	Catalog  *catalog.Service
	Carts    *cart.Engine
	Checkout *orders.Workflow
	Orders   *orders.Service
	Identity *identity.Service
	Sessions *identity.Sessions
	Flashes  FlashStore
	Log      zerolog.Logger

	SecureCookies bool
}

func (h *Shop) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.loadSession)

		r.Get("/", h.home)
		r.Get("/category/{genre_slug}/", h.category)
		r.Get("/book/{book_slug}/", h.book)

		r.Get("/login/", h.loginForm)
		r.Post("/login/", h.login)
		r.Get("/logout/", h.logout)
		r.Get("/registration/", h.registrationForm)
		r.Post("/registration/", h.register)
		r.Get("/verify_email/{uid}/{token}", h.verify)
		r.Get("/confirm_email/", h.page("confirm_email"))
		r.Get("/invalid_verify/", h.page("invalid_verify"))

		r.Group(func(r chi.Router) {
			r.Use(requireCustomer)
			r.Get("/account/", h.account)
			r.Get("/cart/", h.cart)
			r.Get("/add-to-cart/{book_slug}/", h.addToCart)
			r.Get("/delete-from-cart/{book_slug}/", h.deleteFromCart)
			r.Get("/change-qty/{book_slug}/{delta}/", h.changeQty)
			r.Get("/checkout/", h.checkoutForm)
			r.Post("/make-order/", h.makeOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireStaff)
			r.Post("/genres/", h.createGenre)
			r.Post("/books/", h.saveBook)
			r.Get("/orders/{id}/status/", h.orderStatus)
			r.Post("/orders/{id}/status/", h.advanceStatus)
		})
	})
}

type catalogView struct {
	layout
	*catalog.Page
}

func (h *Shop) home(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Home(ctx)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogView{layout: h.layout(r), Page: p})
}

func (h *Shop) category(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.ByGenre(ctx, chi.URLParam(r, "genre_slug"))
	if errors.Is(err, catalog.ErrGenreNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogView{layout: h.layout(r), Page: p})
}

func (h *Shop) book(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Catalog.Book(ctx, chi.URLParam(r, "book_slug"))
	if errors.Is(err, catalog.ErrBookNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		layout
		Book *catalog.Book `json:"book"`
	}{h.layout(r), b})
}

// page serves a view that only has the layout.
func (h *Shop) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			layout
			Page string `json:"page"`
		}{h.layout(r), name})
	}
}
