// Package calendar implements the personal calendar app: the entry dialogs,
// entry persistence with ownership checks and the iCalendar export.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/fields"
	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/render"
	"github.com/social-apps/backend/internal/storage"
	"github.com/social-apps/backend/internal/storage/models"
	"github.com/social-apps/backend/internal/stream"
)

const (
	viewCreate = "apps/calendar/dialog.create"
	viewDelete = "apps/calendar/dialog.delete"
	viewView   = "apps/calendar/dialog.view"
)

// EntryStore persists calendar entries.
type EntryStore interface {
	GetByID(ctx context.Context, id int64) (*models.CalendarEntry, error)
	Store(ctx context.Context, e *models.CalendarEntry) error
	Delete(ctx context.Context, id int64) error
	ListByUserInRange(ctx context.Context, userID int64, from, to time.Time) ([]models.CalendarEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]models.CalendarEntry, error)
}

// UserStore loads entry owners.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// DeleteNotifier is told about deleted entries so open calendars can drop them.
type DeleteNotifier interface {
	BroadcastCalendarEntryDeleted(entryID, ownerID int64)
}

// Deps are the controller's collaborators. Notifier is optional.
type Deps struct {
	Entries    EntryStore
	Users      UserStore
	Stream     stream.Publisher
	Renderer   render.Engine
	Translator render.Translator
	Notifier   DeleteNotifier
	Logger     logger.Logger
}

// Controller handles calendar entry actions for an explicit acting user.
type Controller struct {
	entries  EntryStore
	users    UserStore
	stream   stream.Publisher
	renderer render.Engine
	tr       render.Translator
	notifier DeleteNotifier
	lggr     logger.Logger
	now      func() time.Time
}

// NewController creates a calendar controller.
func NewController(d Deps) *Controller {
	return &Controller{
		entries:  d.Entries,
		users:    d.Users,
		stream:   d.Stream,
		renderer: d.Renderer,
		tr:       d.Translator,
		notifier: d.Notifier,
		lggr:     d.Logger.Named("calendar"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// FormRequest are the parameters of the create/edit dialog.
type FormRequest struct {
	ID     mo.Option[int64]
	Start  string
	End    string
	AllDay bool
}

// StoreRequest is a submitted entry.
type StoreRequest struct {
	ID       mo.Option[int64]
	StartVal string
	EndVal   string
	Post     fields.Post
	Stream   bool
}

// Form renders the create dialog, for an existing entry when an id is given.
func (c *Controller) Form(ctx context.Context, actor auth.ActingUser, req FormRequest) (string, error) {
	if actor.IsGuest() {
		return "", auth.ErrUnauthorized
	}

	entry := &models.CalendarEntry{}
	if id, ok := req.ID.Get(); ok && id != 0 {
		loaded, err := c.load(ctx, id).Get()
		switch {
		case errors.Is(err, ErrNotFound):
			// unknown ids render an empty dialog
		case err != nil:
			return "", err
		case loaded.UserID != actor.ID:
			return "", reject(ErrNotOwner, "")
		default:
			entry = loaded
		}
	} else {
		start, err := c.optionalTime(req.Start, true)
		if err != nil {
			return "", err
		}
		end, err := c.optionalTime(req.End, true)
		if err != nil {
			return "", err
		}
		entry.DateStart = start
		entry.DateEnd = end
		entry.AllDay = req.AllDay
	}

	return c.render(viewCreate, map[string]any{"entry": entryVars(entry)})
}

// Delete removes an entry owned by actor.
func (c *Controller) Delete(ctx context.Context, actor auth.ActingUser, id int64) error {
	entry, err := c.owned(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := c.entries.Delete(ctx, entry.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return reject(ErrNotFound, "")
		}
		return reject(ErrStore, err.Error())
	}

	c.lggr.Infow("calendar entry deleted", "entry", entry.ID, "user", actor.ID)
	if c.notifier != nil {
		c.notifier.BroadcastCalendarEntryDeleted(entry.ID, entry.UserID)
	}
	return nil
}

// ConfirmDelete renders the delete confirmation for an entry owned by actor.
func (c *Controller) ConfirmDelete(ctx context.Context, actor auth.ActingUser, id int64) (string, error) {
	entry, err := c.owned(ctx, actor, id)
	if err != nil {
		return "", err
	}
	return c.render(viewDelete, map[string]any{"entry": entryVars(entry)})
}

// View renders an entry with its owner. Any logged in user may view any entry.
func (c *Controller) View(ctx context.Context, actor auth.ActingUser, id int64) (string, error) {
	if actor.IsGuest() {
		return "", auth.ErrUnauthorized
	}
	if id == 0 {
		return "", reject(ErrNotFound, "")
	}

	entry, err := c.load(ctx, id).Get()
	if err != nil {
		return "", err
	}

	owner := map[string]any{"id": entry.UserID, "name": ""}
	u, err := c.users.GetByID(ctx, entry.UserID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.lggr.Warnw("calendar entry owner missing", "entry", entry.ID, "user", entry.UserID)
	case err != nil:
		return "", fmt.Errorf("loading entry owner: %w", err)
	default:
		owner["name"] = displayName(u)
	}

	return c.render(viewView, map[string]any{
		"entry": entryVars(entry),
		"owner": owner,
		"app": map[string]any{
			"element": "calendar",
			"title":   c.tr.T("apps.calendar.title"),
		},
	})
}

// Store creates or updates an entry for actor and returns its id.
func (c *Controller) Store(ctx context.Context, actor auth.ActingUser, req StoreRequest) (int64, error) {
	if actor.IsGuest() {
		return 0, auth.ErrUnauthorized
	}

	// An id without a row is stored as a new entry.
	entry := &models.CalendarEntry{}
	prior := req.ID.OrElse(0)
	if prior != 0 {
		loaded, err := c.load(ctx, prior).Get()
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return 0, err
		case loaded.UserID != actor.ID:
			return 0, reject(ErrNotOwner, c.tr.T("apps.calendar.not_allowed_to_edit"))
		default:
			entry = loaded
		}
	}

	bindPost(entry, req.Post)

	start, err := c.optionalTime(req.StartVal, false)
	if err != nil {
		return 0, err
	}
	end, err := c.optionalTime(req.EndVal, false)
	if err != nil {
		return 0, err
	}
	if !start.IsZero() {
		entry.DateStart = start
	} else if entry.DateStart.IsZero() {
		entry.DateStart = c.now().Truncate(time.Second)
	}
	if !end.IsZero() {
		entry.DateEnd = end
	} else if entry.DateEnd.IsZero() {
		entry.DateEnd = entry.DateStart
	}
	entry.UserID = actor.ID

	if err := entry.Check(); err != nil {
		var ce *models.CheckError
		if errors.As(err, &ce) {
			return 0, reject(ErrInvalid, c.tr.T(ce.Key))
		}
		return 0, reject(ErrInvalid, err.Error())
	}

	if err := c.entries.Store(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, reject(ErrNotFound, "")
		}
		c.lggr.Errorw("storing calendar entry", "entry", entry.ID, "user", actor.ID, "err", err)
		return 0, reject(ErrStore, err.Error())
	}

	if req.Stream && c.stream != nil {
		verb := models.VerbCreate
		if prior != 0 {
			verb = models.VerbUpdate
		}
		_, err := c.stream.Publish(ctx, stream.Event{
			ActorID:   actor.ID,
			Context:   stream.ContextCalendar,
			ContextID: entry.ID,
			Verb:      verb,
		})
		if err != nil {
			c.lggr.Warnw("publishing calendar stream item", "entry", entry.ID, "verb", verb, "err", err)
		}
	}

	return entry.ID, nil
}

// List returns actor's entries overlapping [from, to).
func (c *Controller) List(ctx context.Context, actor auth.ActingUser, from, to time.Time) ([]models.CalendarEntry, error) {
	if actor.IsGuest() {
		return nil, auth.ErrUnauthorized
	}
	if !to.After(from) {
		return nil, reject(ErrInvalid, c.tr.T("apps.calendar.end_before_start"))
	}

	entries, err := c.entries.ListByUserInRange(ctx, actor.ID, from, to)
	if err != nil {
		return nil, reject(ErrStore, err.Error())
	}
	return entries, nil
}

// Export writes all of actor's entries to w as an iCalendar feed.
func (c *Controller) Export(ctx context.Context, actor auth.ActingUser, w io.Writer) error {
	if actor.IsGuest() {
		return auth.ErrUnauthorized
	}

	entries, err := c.entries.ListByUser(ctx, actor.ID)
	if err != nil {
		return reject(ErrStore, err.Error())
	}
	return EncodeICal(w, entries, c.now())
}

func (c *Controller) load(ctx context.Context, id int64) mo.Result[*models.CalendarEntry] {
	entry, err := c.entries.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return mo.Err[*models.CalendarEntry](reject(ErrNotFound, ""))
	}
	if err != nil {
		return mo.Err[*models.CalendarEntry](fmt.Errorf("loading calendar entry %d: %w", id, err))
	}
	return mo.Ok(entry)
}

// owned loads id and checks that actor owns it. Failures carry no message.
func (c *Controller) owned(ctx context.Context, actor auth.ActingUser, id int64) (*models.CalendarEntry, error) {
	if actor.IsGuest() {
		return nil, auth.ErrUnauthorized
	}
	if id == 0 {
		return nil, reject(ErrNotFound, "")
	}

	entry, err := c.load(ctx, id).Get()
	if err != nil {
		return nil, err
	}
	if entry.UserID != actor.ID {
		c.lggr.Warnw("calendar entry ownership mismatch", "entry", id, "owner", entry.UserID, "user", actor.ID)
		return nil, reject(ErrNotOwner, "")
	}
	return entry, nil
}

func (c *Controller) optionalTime(s string, adjust bool) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := ParseClientTime(s, adjust)
	if err != nil {
		return time.Time{}, reject(ErrInvalid, c.tr.T("apps.calendar.invalid_date"))
	}
	return t, nil
}

func (c *Controller) render(view string, vars map[string]any) (string, error) {
	html, err := c.renderer.Render(view, vars)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", view, err)
	}
	return html, nil
}

// bindPost copies the editable posted fields onto e. Keys that were not
// posted leave the entry untouched, except all_day which is a checkbox.
func bindPost(e *models.CalendarEntry, post fields.Post) {
	if v, ok := post["title"]; ok {
		e.Title = strings.TrimSpace(v)
	}
	if v, ok := post["description"]; ok {
		e.Description = v
	}
	if v, ok := post["reminder"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			n = 0
		}
		e.Reminder = n
	}
	e.AllDay = post.Flag("all_day")
}

func entryVars(e *models.CalendarEntry) map[string]any {
	id := ""
	if !e.IsNew() {
		id = strconv.FormatInt(e.ID, 10)
	}
	return map[string]any{
		"id":          id,
		"user_id":     e.UserID,
		"title":       e.Title,
		"description": e.Description,
		"reminder":    e.Reminder,
		"date_start":  models.FormatStorage(e.DateStart),
		"date_end":    models.FormatStorage(e.DateEnd),
		"all_day":     e.AllDay,
	}
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
