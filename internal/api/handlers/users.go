package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/social-apps/backend/internal/api/middleware"
	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/fields"
	"github.com/social-apps/backend/internal/render"
	"github.com/social-apps/backend/internal/storage/models"
	"github.com/social-apps/backend/internal/users"
)

// ProfileResponse is a user's public profile.
type ProfileResponse struct {
	ID       int64             `json:"id"`
	Username string            `json:"username"`
	Name     string            `json:"name"`
	Fields   []fields.Rendered `json:"fields"`
}

// AccountResponse describes the caller's own account.
type AccountResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func accountResponse(u *models.User) AccountResponse {
	return AccountResponse{ID: u.ID, Username: u.Username, Email: u.Email, Name: u.Name}
}

// PrivacyRequest changes the privacy of one profile field.
type PrivacyRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// RegisterForm renders the registration inputs of every field.
func RegisterForm(svc *users.Service, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post := fields.Post{}
		for k, vs := range r.URL.Query() {
			post[k] = vs[0]
		}

		rendered, err := svc.RegisterForm(post, nil)
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, rendered)
	}
}

// Register creates an account and starts a session for it.
func Register(svc *users.Service, session *Session, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := readPost(r)
		if err != nil {
			rj.BadRequest(w, r, err)
			return
		}

		user, err := svc.Register(r.Context(), post)
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

// CheckUsername reports whether the requested username is free.
func CheckUsername(svc *users.Service, tr render.Translator, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if err := svc.CheckUsername(r.Context(), auth.FromContext(r.Context()), username); err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, tr.T("fields.username.available"))
	}
}

// EditProfileForm renders the caller's edit inputs.
func EditProfileForm(svc *users.Service, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rendered, err := svc.EditForm(r.Context(), auth.FromContext(r.Context()))
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, rendered)
	}
}

// UpdateProfile saves the caller's profile fields.
func UpdateProfile(svc *users.Service, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := readPost(r)
		if err != nil {
			rj.BadRequest(w, r, err)
			return
		}

		user, err := svc.Update(r.Context(), auth.FromContext(r.Context()), post)
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, accountResponse(user))
	}
}

// GetProfile renders the fields of a profile the caller may see.
func GetProfile(svc *users.Service, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			rj.BadRequest(w, r, err)
			return
		}

		viewer := auth.FromContext(r.Context())
		user, rendered, err := svc.Profile(r.Context(), viewer.ID, id)
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		if rendered == nil {
			rendered = []fields.Rendered{}
		}

		middleware.Resolve(w, ProfileResponse{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
			Fields:   rendered,
		})
	}
}

// UpdatePrivacy sets the privacy of one of the caller's fields and returns
// all stored values.
func UpdatePrivacy(svc *users.Service, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PrivacyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			rj.BadRequest(w, r, err)
			return
		}

		actor := auth.FromContext(r.Context())
		if err := svc.SetPrivacy(r.Context(), actor, req.Field, req.Value); err != nil {
			rj.Error(w, r, err)
			return
		}

		values, err := svc.Privacy(r.Context(), actor)
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, values)
	}
}
