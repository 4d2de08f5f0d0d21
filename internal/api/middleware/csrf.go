package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/social-apps/backend/internal/logger"
)

// CSRFHeader is the request header the browser echoes the token in.
const CSRFHeader = "X-CSRF-Token"

// CSRFOptions configures CSRF.
type CSRFOptions struct {
	Key            []byte
	Secure         bool
	TrustedOrigins []string
	// Message is written in the rejected envelope.
	Message string
}

// CSRF verifies the token on every unsafe request. Failures are rejected
// with a 403 envelope before any handler runs.
func CSRF(opts CSRFOptions, lggr logger.Logger) func(http.Handler) http.Handler {
	protect := newProtect(opts, lggr)
	return func(next http.Handler) http.Handler {
		return plaintext(opts, protect(next))
	}
}

type methodKey struct{}

// RequireCSRF verifies the token on every request, GET included. Routes
// that render dialogs for the signed-in user sit behind it.
func RequireCSRF(opts CSRFOptions, lggr logger.Logger) func(http.Handler) http.Handler {
	protect := newProtect(opts, lggr)
	return func(next http.Handler) http.Handler {
		restore := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m, ok := r.Context().Value(methodKey{}).(string); ok {
				r = r.WithContext(r.Context())
				r.Method = m
			}
			next.ServeHTTP(w, r)
		})
		protected := plaintext(opts, protect(restore))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				// csrf.Protect skips safe methods, so check these as a POST.
				ctx := context.WithValue(r.Context(), methodKey{}, r.Method)
				r = r.WithContext(ctx)
				r.Method = http.MethodPost
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func newProtect(opts CSRFOptions, lggr logger.Logger) func(http.Handler) http.Handler {
	failure := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lggr.Warnw("csrf check failed",
			"request_id", RequestID(r.Context()),
			"path", r.URL.Path,
			"reason", csrf.FailureReason(r),
		)
		Reject(w, http.StatusForbidden, opts.Message, TypeError)
	})

	return csrf.Protect(opts.Key,
		csrf.Secure(opts.Secure),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFHeader),
		csrf.TrustedOrigins(opts.TrustedOrigins),
		csrf.ErrorHandler(failure),
	)
}

func plaintext(opts CSRFOptions, h http.Handler) http.Handler {
	if opts.Secure {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

// CSRFToken returns the masked token for r.
func CSRFToken(r *http.Request) string {
	return csrf.Token(r)
}
