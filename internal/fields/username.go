package fields

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/storage/models"
)

// UsernameParams are the per-field settings of the username field.
type UsernameParams struct {
	MinLength int
}

// UsernameLookup reports whether a username belongs to another account.
type UsernameLookup interface {
	UsernameExists(ctx context.Context, username string, exceptID int64) (bool, error)
}

// UsernameField collects the account username.
type UsernameField struct {
	params          UsernameParams
	emailAsUsername bool
	users           UsernameLookup
	deps            Deps
	lggr            logger.Logger
}

var _ Field = (*UsernameField)(nil)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}._-]+$`)

// NewUsernameField creates the username field. With emailAsUsername the
// email field supplies the value and this field skips validation.
func NewUsernameField(params UsernameParams, emailAsUsername bool, users UsernameLookup, deps Deps) *UsernameField {
	if params.MinLength <= 0 {
		params.MinLength = 4
	}
	return &UsernameField{
		params:          params,
		emailAsUsername: emailAsUsername,
		users:           users,
		deps:            deps,
		lggr:            deps.Logger.Named("fields.username"),
	}
}

func (f *UsernameField) Key() string                    { return "username" }
func (f *UsernameField) InputName() string              { return "username" }
func (f *UsernameField) Value(user *models.User) string { return user.Username }

func (f *UsernameField) OnRegister(post Post, reg *Registration) (string, error) {
	if f.emailAsUsername {
		return "", nil
	}
	var errMsg string
	if reg != nil {
		errMsg = reg.Errors[f.InputName()]
	}
	return f.renderForm(post["username"], errMsg)
}

func (f *UsernameField) OnEdit(post Post, user *models.User, errs map[string]string) (string, error) {
	if f.emailAsUsername {
		return "", nil
	}
	value, ok := post["username"]
	if !ok {
		value = user.Username
	}
	return f.renderForm(value, errs[f.InputName()])
}

func (f *UsernameField) renderForm(value, errMsg string) (string, error) {
	return f.deps.Renderer.Render("fields/username/form", map[string]any{
		"input_name": f.InputName(),
		"value":      html.EscapeString(value),
		"min_length": f.params.MinLength,
		"has_error":  errMsg != "",
		"error":      errMsg,
	})
}

func (f *UsernameField) OnRegisterValidate(ctx context.Context, post Post) error {
	if f.emailAsUsername {
		return nil
	}
	return f.validate(ctx, post["username"], 0)
}

func (f *UsernameField) OnEditValidate(ctx context.Context, post Post, user *models.User) error {
	if f.emailAsUsername {
		return nil
	}
	value, ok := post["username"]
	if !ok {
		return nil
	}
	return f.validate(ctx, value, user.ID)
}

// CheckAvailability validates username as a new value for exceptID's account.
func (f *UsernameField) CheckAvailability(ctx context.Context, username string, exceptID int64) error {
	return f.validate(ctx, username, exceptID)
}

func (f *UsernameField) validate(ctx context.Context, value string, exceptID int64) error {
	username := strings.TrimSpace(value)

	switch {
	case username == "":
		return f.fail("fields.username.validation.required")
	case utf8.RuneCountInString(username) < f.params.MinLength:
		return f.fail("fields.username.validation.too_short", f.params.MinLength)
	case !usernamePattern.MatchString(username):
		return f.fail("fields.username.validation.invalid")
	}

	taken, err := f.users.UsernameExists(ctx, username, exceptID)
	if err != nil {
		return fmt.Errorf("checking username uniqueness: %w", err)
	}
	if taken {
		return f.fail("fields.username.validation.already_used")
	}

	return nil
}

func (f *UsernameField) fail(key string, args ...any) error {
	f.lggr.Debugw("username rejected", "rule", key)
	return &ValidationError{
		Field:   f.InputName(),
		Key:     key,
		Message: f.deps.Translator.T(key, args...),
	}
}

func (f *UsernameField) OnRegisterBeforeSave(post Post, user *models.User) bool {
	return f.beforeSave(post, user)
}

func (f *UsernameField) OnEditBeforeSave(post Post, user *models.User) bool {
	return f.beforeSave(post, user)
}

func (f *UsernameField) beforeSave(post Post, user *models.User) bool {
	if value, ok := post["username"]; ok {
		user.Username = strings.TrimSpace(value)
	}
	return true
}

// OnDisplay renders the username. It is always public.
func (f *UsernameField) OnDisplay(_ context.Context, _ int64, user *models.User) (string, error) {
	return f.deps.Renderer.Render("fields/username/display", map[string]any{
		"username": html.EscapeString(user.Username),
	})
}

func (f *UsernameField) OnSample() (string, error) {
	return f.deps.Renderer.Render("fields/username/sample", map[string]any{
		"min_length": f.params.MinLength,
	})
}
