// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"github.com/social-apps/backend/internal/api/middleware"
	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/calendar"
	"github.com/social-apps/backend/internal/fields"
	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/render"
	"github.com/social-apps/backend/internal/users"
)

// Rejecter turns service errors into rejected envelopes.
type Rejecter struct {
	tr   render.Translator
	lggr logger.Logger
}

// NewRejecter creates a Rejecter.
func NewRejecter(tr render.Translator, lggr logger.Logger) *Rejecter {
	return &Rejecter{tr: tr, lggr: lggr.Named("api")}
}

// Unauthorized rejects a guest caller. It is used by the login middleware.
func (rj *Rejecter) Unauthorized(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, http.StatusUnauthorized, rj.tr.T("auth.login_required"))
}

// BadRequest rejects a request that could not be parsed.
func (rj *Rejecter) BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	rj.lggr.Debugw("bad request", "request_id", middleware.RequestID(r.Context()), "err", err)
	middleware.WriteError(w, http.StatusBadRequest, rj.tr.T("common.invalid_request"))
}

// Error maps err to a status and message and writes the rejection.
func (rj *Rejecter) Error(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ferrs users.FieldErrors
		verr  *fields.ValidationError
	)

	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		rj.Unauthorized(w, r)
	case errors.Is(err, auth.ErrInvalidCredentials):
		middleware.WriteError(w, http.StatusUnauthorized, rj.tr.T("auth.invalid_credentials"))
	case errors.As(err, &ferrs):
		middleware.RejectWithData(w, http.StatusUnprocessableEntity,
			rj.tr.T("common.invalid_request"), middleware.TypeError, map[string]string(ferrs))
	case errors.As(err, &verr):
		middleware.WriteError(w, http.StatusUnprocessableEntity, verr.Message)
	case errors.Is(err, calendar.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, calendar.RejectionMessage(err))
	case errors.Is(err, calendar.ErrNotOwner):
		middleware.WriteError(w, http.StatusForbidden, calendar.RejectionMessage(err))
	case errors.Is(err, calendar.ErrInvalid):
		middleware.WriteError(w, http.StatusUnprocessableEntity, calendar.RejectionMessage(err))
	case errors.Is(err, calendar.ErrStore):
		rj.lggr.Errorw("calendar store failed", "request_id", middleware.RequestID(r.Context()), "err", err)
		middleware.WriteError(w, http.StatusInternalServerError, calendar.RejectionMessage(err))
	case errors.Is(err, users.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, rj.tr.T("common.not_found"))
	case errors.Is(err, users.ErrUnknownField):
		middleware.WriteError(w, http.StatusUnprocessableEntity, rj.tr.T("users.field.unknown"))
	case errors.Is(err, users.ErrInvalidPrivacy):
		middleware.WriteError(w, http.StatusUnprocessableEntity, rj.tr.T("users.privacy.invalid"))
	default:
		rj.lggr.Errorw("request failed",
			"request_id", middleware.RequestID(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		middleware.WriteError(w, http.StatusInternalServerError, rj.tr.T("common.server_error"))
	}
}

// readPost returns the submitted fields of a JSON or form encoded body.
// Non-string JSON values are converted to their text form.
func readPost(r *http.Request) (fields.Post, error) {
	post := fields.Post{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decoding body: %w", err)
		}
		for k, v := range body {
			switch v := v.(type) {
			case nil:
			case string:
				post[k] = v
			case bool:
				if v {
					post[k] = "1"
				} else {
					post[k] = "0"
				}
			case float64:
				post[k] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				return nil, fmt.Errorf("field %s: unsupported value", k)
			}
		}
		return post, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			post[k] = vs[0]
		}
	}
	return post, nil
}

// optionalID parses an id parameter. Empty and zero values mean no id.
func optionalID(s string) (mo.Option[int64], error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return mo.None[int64](), nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return mo.None[int64](), fmt.Errorf("invalid id %q", s)
	}
	if id == 0 {
		return mo.None[int64](), nil
	}
	return mo.Some(id), nil
}

