// Package fields implements profile field handlers and the dispatcher that
// drives their registration, edit, display, search and OAuth hooks.
package fields

import (
	"context"
	"strings"

	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/render"
	"github.com/social-apps/backend/internal/storage/models"
)

// Post is a submitted form keyed by input name.
type Post map[string]string

// Flag reports whether the input key was submitted as a checked box.
func (p Post) Flag(key string) bool {
	return Truthy(p[key])
}

// Truthy reports whether s is one of the checkbox values 1, true, on, yes.
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// Registration is the state of an in-progress registration.
type Registration struct {
	// Errors maps input names to messages from a previous validation pass.
	Errors map[string]string
}

// ValidationError is returned when a submitted value breaks a field rule.
type ValidationError struct {
	Field   string // input name
	Key     string // message catalog key
	Message string // localized message
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PrivacyChecker decides whether a viewer may see an owner's field.
type PrivacyChecker interface {
	Allowed(ctx context.Context, viewerID, ownerID int64, fieldKey, rule string) (bool, error)
}

// Deps are the collaborators shared by every field.
type Deps struct {
	Renderer   render.Engine
	Translator render.Translator
	Privacy    PrivacyChecker
	Logger     logger.Logger
}

// Field is a profile field driven by the Dispatcher.
type Field interface {
	// Key identifies the field in privacy settings and the search index.
	Key() string
	// InputName is the form input the field reads.
	InputName() string
	// Value returns the field's stored value for user.
	Value(user *models.User) string

	OnRegister(post Post, reg *Registration) (string, error)
	OnEdit(post Post, user *models.User, errs map[string]string) (string, error)

	// Validation hooks return a *ValidationError for rule failures and any
	// other error when the check itself could not run.
	OnRegisterValidate(ctx context.Context, post Post) error
	OnEditValidate(ctx context.Context, post Post, user *models.User) error

	OnRegisterBeforeSave(post Post, user *models.User) bool
	OnEditBeforeSave(post Post, user *models.User) bool

	OnDisplay(ctx context.Context, viewerID int64, user *models.User) (string, error)
	OnSample() (string, error)
}

// Indexer is implemented by fields that feed the keyword search index.
type Indexer interface {
	OnIndexer(value string) (string, bool)
	OnIndexerSearch(ctx context.Context, viewerID, itemCreatorID int64, keywords, value string) (SearchResult, error)
}

// OAuthField is implemented by fields exposed to OAuth clients.
type OAuthField interface {
	OnOAuthGetUserPermission(perms []string) []string
	OnOAuthGetMetaFields(fields []string) []string
}

// SearchOutcome classifies a field search.
type SearchOutcome int

const (
	NoMatch SearchOutcome = iota
	Denied
	Matched
)

func (o SearchOutcome) String() string {
	switch o {
	case Denied:
		return "denied"
	case Matched:
		return "matched"
	default:
		return "no_match"
	}
}

// SearchResult is the outcome of OnIndexerSearch. Content is set when matched.
type SearchResult struct {
	Outcome SearchOutcome
	Content string
}
