package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/ariefcatur/go-bookshop/internal/catalog"
	"github.com/ariefcatur/go-bookshop/internal/orders"
	"github.com/go-chi/chi/v5"
)

const (
	orderPlacedMessage = "Thank you for your order! Follow its status"
	cartOrderedMessage = "Your cart has just been ordered, please try again."
)

type cartView struct {
	layout
	Basket *cart.Cart `json:"basket"`
}

func (h *Shop) cart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Current(ctx, sessionFrom(ctx).CustomerID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartView{layout: h.layout(r), Basket: c})
}

func (h *Shop) addToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err := h.Carts.AddToCart(ctx, sessionFrom(ctx).CustomerID, chi.URLParam(r, "book_slug"))
	h.afterCartChange(w, r, err)
}

func (h *Shop) deleteFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err := h.Carts.RemoveFromCart(ctx, sessionFrom(ctx).CustomerID, chi.URLParam(r, "book_slug"))
	h.afterCartChange(w, r, err)
}

func (h *Shop) changeQty(w http.ResponseWriter, r *http.Request) {
	delta, err := strconv.Atoi(chi.URLParam(r, "delta"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown quantity change")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err = h.Carts.ChangeQuantity(ctx, sessionFrom(ctx).CustomerID, chi.URLParam(r, "book_slug"), delta)
	h.afterCartChange(w, r, err)
}

func (h *Shop) afterCartChange(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		back(w, r)
	case errors.Is(err, catalog.ErrBookNotFound), errors.Is(err, cart.ErrLineNotFound), errors.Is(err, cart.ErrInvalidDelta):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrCartFinalized):
		h.flash(r, cartOrderedMessage)
		back(w, r)
	default:
		h.serverError(w, r, err)
	}
}

func (h *Shop) checkoutForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Current(ctx, sessionFrom(ctx).CustomerID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		formView
		Basket *cart.Cart `json:"basket"`
	}{formView{layout: h.layout(r), Form: orders.Form{BuyingType: string(orders.BuyingSelf)}}, c})
}

func (h *Shop) makeOrder(w http.ResponseWriter, r *http.Request) {
	var f orders.Form
	if !decodePost(w, r, &f) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	s := sessionFrom(ctx)
	_, err := h.Checkout.Checkout(ctx, orders.Buyer{CustomerID: s.CustomerID, Email: s.Email}, f)
	var serr *orders.StockError
	switch {
	case err == nil:
		h.flash(r, orderPlacedMessage)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case h.renderForm(w, r, f, err):
	case errors.As(err, &serr):
		h.flash(r, serr.Error())
		http.Redirect(w, r, "/checkout/", http.StatusSeeOther)
	case errors.Is(err, orders.ErrEmptyCart):
		h.flash(r, "Your cart is empty.")
		http.Redirect(w, r, "/cart/", http.StatusSeeOther)
	default:
		h.serverError(w, r, err)
	}
}
