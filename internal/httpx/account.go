package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-bookshop/internal/forms"
	"github.com/ariefcatur/go-bookshop/internal/identity"
	"github.com/ariefcatur/go-bookshop/internal/orders"
	"github.com/go-chi/chi/v5"
)

const (
	confirmAccountMessage = "Confirm your account!"
	registeredMessage     = "You have registered successfully!"
)

func (h *Shop) loginForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formView{layout: h.layout(r), Form: identity.LoginForm{}})
}

func (h *Shop) login(w http.ResponseWriter, r *http.Request) {
	var f identity.LoginForm
	if !decodePost(w, r, &f) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, c, err := h.Identity.Login(ctx, f)
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrInvalidCredentials):
		h.renderForm(w, r, f, forms.FieldError("password", err.Error()))
		return
	case errors.Is(err, identity.ErrInactive):
		h.flash(r, confirmAccountMessage)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	case h.renderForm(w, r, f, err):
		return
	default:
		h.serverError(w, r, err)
		return
	}
	if err := h.setSession(w, u, c); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Shop) logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, sessionCookie)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Shop) registrationForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formView{layout: h.layout(r), Form: identity.RegistrationForm{}})
}

func (h *Shop) register(w http.ResponseWriter, r *http.Request) {
	var f identity.RegistrationForm
	if !decodePost(w, r, &f) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, _, err := h.Identity.Register(ctx, f)
	switch {
	case err == nil:
		http.Redirect(w, r, "/confirm_email/", http.StatusFound)
	case h.renderForm(w, r, f, err):
	default:
		h.serverError(w, r, err)
	}
}

func (h *Shop) verify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, c, err := h.Identity.Verify(ctx, chi.URLParam(r, "uid"), chi.URLParam(r, "token"))
	if errors.Is(err, identity.ErrInvalidVerification) {
		http.Redirect(w, r, "/invalid_verify/", http.StatusFound)
		return
	}
	if err == nil {
		err = h.setSession(w, u, c)
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.flash(r, registeredMessage)
	http.Redirect(w, r, "/", http.StatusFound)
}

type accountView struct {
	layout
	Account  *identity.User     `json:"account"`
	Customer *identity.Customer `json:"customer"`
	Orders   []orders.Order     `json:"orders"`
}

func (h *Shop) account(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s := sessionFrom(ctx)
	u, c, err := h.Identity.Account(ctx, s.UserID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	list, err := h.Orders.CustomerOrders(ctx, c.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountView{layout: h.layout(r), Account: u, Customer: c, Orders: list})
}

func decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return false
	}
	if err := forms.Decode(dst, r.PostForm); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
