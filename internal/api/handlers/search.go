package handlers

import (
	"net/http"
	"strings"

	"github.com/social-apps/backend/internal/api/middleware"
	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/search"
)

// Search runs a keyword search over indexed profile fields.
func Search(svc *search.Service, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))

		results, err := svc.Search(r.Context(), auth.FromContext(r.Context()).ID, q)
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		if results == nil {
			results = []search.Result{}
		}
		middleware.Resolve(w, results)
	}
}
