package fields

import (
	"context"
	"errors"
	"fmt"

	"github.com/social-apps/backend/internal/storage/models"
)

// Rendered is one field's HTML fragment.
type Rendered struct {
	Key  string `json:"key"`
	HTML string `json:"html"`
}

// Dispatcher invokes field hooks in registration order.
type Dispatcher struct {
	fields []Field
	byKey  map[string]Field
}

// NewDispatcher creates a dispatcher over fields.
func NewDispatcher(fields ...Field) *Dispatcher {
	d := &Dispatcher{
		fields: fields,
		byKey:  make(map[string]Field, len(fields)),
	}
	for _, f := range fields {
		d.byKey[f.Key()] = f
	}
	return d
}

// Fields returns the registered fields in order.
func (d *Dispatcher) Fields() []Field {
	return d.fields
}

// Field returns the field registered under key.
func (d *Dispatcher) Field(key string) (Field, bool) {
	f, ok := d.byKey[key]
	return f, ok
}

// Register renders every field's registration input.
func (d *Dispatcher) Register(post Post, reg *Registration) ([]Rendered, error) {
	return d.render(func(f Field) (string, error) { return f.OnRegister(post, reg) })
}

// Edit renders every field's edit input.
func (d *Dispatcher) Edit(post Post, user *models.User, errs map[string]string) ([]Rendered, error) {
	return d.render(func(f Field) (string, error) { return f.OnEdit(post, user, errs) })
}

// Display renders the fields visible to viewerID on user's profile.
func (d *Dispatcher) Display(ctx context.Context, viewerID int64, user *models.User) ([]Rendered, error) {
	return d.render(func(f Field) (string, error) { return f.OnDisplay(ctx, viewerID, user) })
}

// Samples renders every field's preview.
func (d *Dispatcher) Samples() ([]Rendered, error) {
	return d.render(Field.OnSample)
}

func (d *Dispatcher) render(fn func(Field) (string, error)) ([]Rendered, error) {
	out := make([]Rendered, 0, len(d.fields))
	for _, f := range d.fields {
		html, err := fn(f)
		if err != nil {
			return nil, fmt.Errorf("rendering field %s: %w", f.Key(), err)
		}
		if html == "" {
			continue
		}
		out = append(out, Rendered{Key: f.Key(), HTML: html})
	}
	return out, nil
}

// ValidateRegister runs every field's registration rules. The result maps
// input names to messages and is empty when all fields pass.
func (d *Dispatcher) ValidateRegister(ctx context.Context, post Post) (map[string]string, error) {
	return d.validate(func(f Field) error { return f.OnRegisterValidate(ctx, post) })
}

// ValidateEdit runs every field's edit rules for user.
func (d *Dispatcher) ValidateEdit(ctx context.Context, post Post, user *models.User) (map[string]string, error) {
	return d.validate(func(f Field) error { return f.OnEditValidate(ctx, post, user) })
}

func (d *Dispatcher) validate(fn func(Field) error) (map[string]string, error) {
	errs := make(map[string]string)
	for _, f := range d.fields {
		err := fn(f)
		if err == nil {
			continue
		}

		var verr *ValidationError
		if !errors.As(err, &verr) {
			return nil, fmt.Errorf("validating field %s: %w", f.Key(), err)
		}
		if _, seen := errs[verr.Field]; !seen {
			errs[verr.Field] = verr.Message
		}
	}
	return errs, nil
}

// BeforeSaveRegister commits every field onto user. It reports false if any
// field refused.
func (d *Dispatcher) BeforeSaveRegister(post Post, user *models.User) bool {
	ok := true
	for _, f := range d.fields {
		if !f.OnRegisterBeforeSave(post, user) {
			ok = false
		}
	}
	return ok
}

// BeforeSaveEdit commits every field onto user.
func (d *Dispatcher) BeforeSaveEdit(post Post, user *models.User) bool {
	ok := true
	for _, f := range d.fields {
		if !f.OnEditBeforeSave(post, user) {
			ok = false
		}
	}
	return ok
}

// Index returns the content every searchable field contributes for user,
// keyed by field key.
func (d *Dispatcher) Index(user *models.User) map[string]string {
	items := make(map[string]string)
	for _, f := range d.fields {
		ix, ok := f.(Indexer)
		if !ok {
			continue
		}
		if content, ok := ix.OnIndexer(f.Value(user)); ok {
			items[f.Key()] = content
		}
	}
	return items
}

// Search runs the owning field's search hook against one indexed row.
func (d *Dispatcher) Search(ctx context.Context, viewerID int64, item models.SearchIndexItem, keywords string) (SearchResult, error) {
	f, ok := d.byKey[item.FieldKey]
	if !ok {
		return SearchResult{Outcome: NoMatch}, nil
	}
	ix, ok := f.(Indexer)
	if !ok {
		return SearchResult{Outcome: NoMatch}, nil
	}
	return ix.OnIndexerSearch(ctx, viewerID, item.UserID, keywords, item.Content)
}

// OAuthPermissions collects the permission scopes of OAuth-exposed fields.
func (d *Dispatcher) OAuthPermissions() []string {
	var perms []string
	for _, f := range d.fields {
		if of, ok := f.(OAuthField); ok {
			perms = of.OnOAuthGetUserPermission(perms)
		}
	}
	return perms
}

// OAuthMetaFields collects the profile fields OAuth clients may read.
func (d *Dispatcher) OAuthMetaFields() []string {
	var out []string
	for _, f := range d.fields {
		if of, ok := f.(OAuthField); ok {
			out = of.OnOAuthGetMetaFields(out)
		}
	}
	return out
}
