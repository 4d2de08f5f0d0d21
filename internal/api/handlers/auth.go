package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/social-apps/backend/internal/api/middleware"
	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/fields"
	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/render"
	"github.com/social-apps/backend/internal/storage/models"
	"github.com/social-apps/backend/internal/users"
)

const oauthStateCookie = "oauth_state"

// Session issues session tokens and the matching cookie.
type Session struct {
	Tokens     *auth.TokenManager
	CookieName string
	Secure     bool
}

// Start issues a token for user and sets it as the session cookie.
func (s *Session) Start(w http.ResponseWriter, user *models.User) (string, error) {
	token, err := s.Tokens.Issue(auth.ActingUser{ID: user.ID, Username: user.Username, Email: user.Email})
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.Tokens.TTL() / time.Second),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// LoginRequest is a password login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks credentials and starts a session.
func Login(svc *users.Service, session *Session, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			rj.BadRequest(w, r, err)
			return
		}

		user, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			rj.Error(w, r, err)
			return
		}

		token, err := session.Start(w, user)
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, accountResponse(user), token)
	}
}

// OAuthLogin redirects to the identity provider.
func OAuthLogin(provider *auth.OAuthProvider, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := auth.GenerateState()
		if err != nil {
			rj.Error(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   300,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
	}
}

// OAuthCallback completes the provider login and starts a session.
func OAuthCallback(provider *auth.OAuthProvider, svc *users.Service, session *Session, tr render.Translator, lggr logger.Logger) http.HandlerFunc {
	lggr = lggr.Named("oauth")
	fail := func(w http.ResponseWriter, reason string, kv ...any) {
		lggr.Warnw("oauth login failed", append([]any{"reason", reason}, kv...)...)
		middleware.WriteError(w, http.StatusUnauthorized, tr.T("auth.oauth_failed"))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		stateCookie, err := r.Cookie(oauthStateCookie)
		if err != nil || stateCookie.Value == "" || q.Get("state") != stateCookie.Value {
			fail(w, "state mismatch")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

		if e := q.Get("error"); e != "" {
			fail(w, "provider error", "error", e)
			return
		}

		profile, err := provider.FetchProfile(r.Context(), q.Get("code"))
		if err != nil {
			fail(w, "fetching profile", "err", err)
			return
		}

		user, err := svc.OAuthLogin(r.Context(), profile)
		if err != nil {
			fail(w, "resolving account", "email", logger.RedactEmail(profile.Email), "err", err)
			return
		}

		token, err := session.Start(w, user)
		if err != nil {
			fail(w, "issuing token", "err", err)
			return
		}
		middleware.Resolve(w, accountResponse(user), token)
	}
}

// OAuthPermissionsResponse lists what OAuth clients may request.
type OAuthPermissionsResponse struct {
	Scopes     []string `json:"scopes"`
	MetaFields []string `json:"meta_fields"`
}

// OAuthPermissions returns the scopes and meta fields contributed by profile fields.
func OAuthPermissions(dispatcher *fields.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := OAuthPermissionsResponse{
			Scopes:     dispatcher.OAuthPermissions(),
			MetaFields: dispatcher.OAuthMetaFields(),
		}
		if resp.Scopes == nil {
			resp.Scopes = []string{}
		}
		if resp.MetaFields == nil {
			resp.MetaFields = []string{}
		}
		middleware.Resolve(w, resp)
	}
}

// CSRFToken returns the token unsafe requests must echo in X-CSRF-Token.
func CSRFToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.Resolve(w, map[string]string{"token": middleware.CSRFToken(r)})
	}
}
