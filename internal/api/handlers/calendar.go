package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/social-apps/backend/internal/api/middleware"
	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/calendar"
	"github.com/social-apps/backend/internal/fields"
)

// CalendarForm renders the create/edit dialog.
func CalendarForm(ctrl *calendar.Controller, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		id, err := optionalID(q.Get("id"))
		if err != nil {
			rj.BadRequest(w, r, err)
			return
		}

		html, err := ctrl.Form(r.Context(), auth.FromContext(r.Context()), calendar.FormRequest{
			ID:     id,
			Start:  q.Get("start"),
			End:    q.Get("end"),
			AllDay: fields.Truthy(q.Get("allday")),
		})
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, html)
	}
}

// StoreCalendarEntry creates or updates an entry from the submitted dialog.
func StoreCalendarEntry(ctrl *calendar.Controller, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := readPost(r)
		if err != nil {
			rj.BadRequest(w, r, err)
			return
		}
		id, err := optionalID(post["id"])
		if err != nil {
			rj.BadRequest(w, r, err)
			return
		}

		stream := post.Flag("stream")
		req := calendar.StoreRequest{
			ID:       id,
			StartVal: post["startVal"],
			EndVal:   post["endVal"],
			Stream:   stream,
			Post:     post,
		}
		for _, k := range []string{"id", "startVal", "endVal", "stream"} {
			delete(post, k)
		}

		entryID, err := ctrl.Store(r.Context(), auth.FromContext(r.Context()), req)
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, entryID)
	}
}

// DeleteCalendarEntry removes an entry.
func DeleteCalendarEntry(ctrl *calendar.Controller, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := readPost(r)
		if err != nil {
			rj.BadRequest(w, r, err)
			return
		}
		id, err := optionalID(post["id"])
		if err != nil {
			rj.BadRequest(w, r, err)
			return
		}

		if err := ctrl.Delete(r.Context(), auth.FromContext(r.Context()), id.OrElse(0)); err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w)
	}
}

// ConfirmDeleteCalendarEntry renders the delete confirmation.
func ConfirmDeleteCalendarEntry(ctrl *calendar.Controller, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := optionalID(r.URL.Query().Get("id"))
		if err != nil {
			rj.BadRequest(w, r, err)
			return
		}

		html, err := ctrl.ConfirmDelete(r.Context(), auth.FromContext(r.Context()), id.OrElse(0))
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, html)
	}
}

// ViewCalendarEntry renders an entry.
func ViewCalendarEntry(ctrl *calendar.Controller, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := optionalID(r.URL.Query().Get("id"))
		if err != nil {
			rj.BadRequest(w, r, err)
			return
		}

		html, err := ctrl.View(r.Context(), auth.FromContext(r.Context()), id.OrElse(0))
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, html)
	}
}

// ListCalendarEntries returns the caller's entries between from and to.
// Without a range the current month is returned.
func ListCalendarEntries(ctrl *calendar.Controller, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		now := time.Now().UTC()
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0)

		var err error
		if s := q.Get("from"); s != "" {
			if from, err = calendar.ParseClientTime(s, true); err != nil {
				rj.BadRequest(w, r, err)
				return
			}
		}
		if s := q.Get("to"); s != "" {
			if to, err = calendar.ParseClientTime(s, true); err != nil {
				rj.BadRequest(w, r, err)
				return
			}
		}

		entries, err := ctrl.List(r.Context(), auth.FromContext(r.Context()), from, to)
		if err != nil {
			rj.Error(w, r, err)
			return
		}
		middleware.Resolve(w, entries)
	}
}

// ExportCalendar serves the caller's entries as an iCalendar file.
func ExportCalendar(ctrl *calendar.Controller, rj *Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := ctrl.Export(r.Context(), auth.FromContext(r.Context()), &buf); err != nil {
			rj.Error(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(buf.Bytes()); err != nil {
			rj.lggr.Warnw("writing calendar export",
				"request_id", middleware.RequestID(r.Context()),
				"err", err,
			)
		}
	}
}
