package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-bookshop/internal/events"
	"github.com/ariefcatur/go-bookshop/internal/identity"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	sessionCookie = "session"
	visitorCookie = "sid"
)

// requestLogger logs one line per request and puts the request id on the
// context so emitted events carry it as their trace id.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := middleware.GetReqID(r.Context())
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("request_id", reqID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()
			next.ServeHTTP(ww, r.WithContext(events.WithTrace(r.Context(), reqID)))
		})
	}
}

type sessionKey struct{}
type visitorKey struct{}

func sessionFrom(ctx context.Context) *identity.Session {
	s, _ := ctx.Value(sessionKey{}).(*identity.Session)
	return s
}

func visitorFrom(ctx context.Context) string {
	sid, _ := ctx.Value(visitorKey{}).(string)
	return sid
}

// loadSession resolves the session cookie and makes sure every visitor has
// a sid cookie to key flash messages on.
func (h *Shop) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
			s, err := h.Sessions.Parse(c.Value)
			if err != nil {
				h.Log.Debug().Err(err).Msg("drop invalid session cookie")
				h.clearCookie(w, sessionCookie)
			} else {
				ctx = context.WithValue(ctx, sessionKey{}, s)
			}
		}

		sid := ""
		if c, err := r.Cookie(visitorCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     visitorCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   h.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx = context.WithValue(ctx, visitorKey{}, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionFrom(r.Context()) == nil {
			http.Redirect(w, r, "/login/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r.Context())
		if s == nil {
			http.Redirect(w, r, "/login/", http.StatusFound)
			return
		}
		if !s.IsStaff {
			writeError(w, http.StatusForbidden, "staff only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Shop) setSession(w http.ResponseWriter, u *identity.User, c *identity.Customer) error {
	token, err := h.Sessions.Issue(u, c)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Shop) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: h.SecureCookies})
}
