// Package middleware provides HTTP middleware and the response envelope for the API.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/social-apps/backend/internal/logger"
)

// WriteError writes a rejected envelope with an error message.
func WriteError(w http.ResponseWriter, status int, message string) {
	Reject(w, status, message, TypeError)
}

// ErrorRecovery recovers from panics and rejects the request with a 500.
func ErrorRecovery(lggr logger.Logger, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					lggr.Errorw("panic recovered",
						"panic", err,
						"request_id", RequestID(r.Context()),
						"stack", string(debug.Stack()),
					)
					WriteError(w, http.StatusInternalServerError, message)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
