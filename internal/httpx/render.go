package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-bookshop/internal/cart"
	"github.com/ariefcatur/go-bookshop/internal/forms"
	"github.com/ariefcatur/go-bookshop/internal/identity"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// layout is what every page shows around its content.
type layout struct {
	User     *identity.Session `json:"user,omitempty"`
	Cart     *cart.Summary     `json:"cart,omitempty"`
	Messages []string          `json:"messages"`
}

// formView is a form page: the submitted values and per-field errors.
type formView struct {
	layout
	Form   any               `json:"form,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (h *Shop) layout(r *http.Request) layout {
	ctx := r.Context()
	l := layout{User: sessionFrom(ctx), Messages: []string{}}
	if msgs, err := h.Flashes.Pop(ctx, visitorFrom(ctx)); err != nil {
		h.Log.Warn().Err(err).Msg("pop flashes")
	} else if len(msgs) > 0 {
		l.Messages = msgs
	}
	if l.User != nil {
		s, err := h.Carts.Summary(ctx, l.User.CustomerID)
		if err != nil {
			h.Log.Warn().Err(err).Int64("customer_id", l.User.CustomerID).Msg("cart summary")
		} else {
			l.Cart = &s
		}
	}
	return l
}

func (h *Shop) flash(r *http.Request, msg string) {
	ctx := r.Context()
	if err := h.Flashes.Add(ctx, visitorFrom(ctx), msg); err != nil {
		h.Log.Warn().Err(err).Msg("add flash")
	}
}

// renderForm answers a form post that failed validation.
func (h *Shop) renderForm(w http.ResponseWriter, r *http.Request, f any, err error) bool {
	var verr *forms.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, formView{layout: h.layout(r), Form: f, Errors: verr.Fields})
	return true
}

func (h *Shop) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

// back redirects to the page the request came from, staying on this host.
func back(w http.ResponseWriter, r *http.Request) {
	to := "/"
	if u, err := url.Parse(r.Referer()); err == nil && u.Path != "" && (u.Host == "" || u.Host == r.Host) {
		to = u.RequestURI()
	}
	http.Redirect(w, r, to, http.StatusFound)
}
