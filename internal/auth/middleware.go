package auth

import (
	"net/http"
	"strings"

	"github.com/social-apps/backend/internal/logger"
)

// Authenticate resolves the acting user from a bearer token or the session
// cookie. Requests without a valid token continue as guests.
func Authenticate(tm *TokenManager, cookieName string, lggr logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r, cookieName)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := tm.Parse(raw)
			if err != nil {
				lggr.Debugw("ignoring session token", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActingUser(r.Context(), u)))
		})
	}
}

// RequireLogin calls reject for guests instead of the wrapped handler.
func RequireLogin(reject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if FromContext(r.Context()).IsGuest() {
				reject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
