package fields

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/privacy"
	"github.com/social-apps/backend/internal/storage/models"
)

// EmailParams are the per-field settings of the email field.
type EmailParams struct {
	Searchable        bool
	AllowedDomains    []string
	DisallowedDomains []string
	ForbiddenWords    []string
}

// EmailLookup reports whether an email is bound to any account.
type EmailLookup interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

// EmailField validates, stores and exposes a user's email address.
type EmailField struct {
	params          EmailParams
	emailAsUsername bool
	users           EmailLookup
	deps            Deps
	lggr            logger.Logger
}

var _ interface {
	Field
	Indexer
	OAuthField
} = (*EmailField)(nil)

// NewEmailField creates the email field. When emailAsUsername is set the
// saved email is also submitted as the username.
func NewEmailField(params EmailParams, emailAsUsername bool, users EmailLookup, deps Deps) *EmailField {
	return &EmailField{
		params:          params,
		emailAsUsername: emailAsUsername,
		users:           users,
		deps:            deps,
		lggr:            deps.Logger.Named("fields.email"),
	}
}

func (f *EmailField) Key() string                    { return "email" }
func (f *EmailField) InputName() string              { return "email" }
func (f *EmailField) Value(user *models.User) string { return user.Email }

// OnRegister renders the registration input.
func (f *EmailField) OnRegister(post Post, reg *Registration) (string, error) {
	var errMsg string
	if reg != nil {
		errMsg = reg.Errors[f.InputName()]
	}
	return f.renderForm(post["email"], errMsg)
}

// OnEdit renders the edit input, falling back to the stored email when the
// submission has none.
func (f *EmailField) OnEdit(post Post, user *models.User, errs map[string]string) (string, error) {
	value, ok := post["email"]
	if !ok {
		value = user.Email
	}
	return f.renderForm(value, errs[f.InputName()])
}

func (f *EmailField) renderForm(value, errMsg string) (string, error) {
	return f.deps.Renderer.Render("fields/email/form", map[string]any{
		"input_name": f.InputName(),
		"value":      html.EscapeString(value),
		"has_error":  errMsg != "",
		"error":      errMsg,
	})
}

// OnRegisterValidate validates a new account's email.
func (f *EmailField) OnRegisterValidate(ctx context.Context, post Post) error {
	return f.ValidateEmail(ctx, post, "")
}

// OnEditValidate validates an edited email; the user's current address passes
// the uniqueness rule.
func (f *EmailField) OnEditValidate(ctx context.Context, post Post, user *models.User) error {
	return f.ValidateEmail(ctx, post, user.Email)
}

// ValidateEmail runs the email rules in order and returns the first failure.
func (f *EmailField) ValidateEmail(ctx context.Context, post Post, currentEmail string) error {
	email := strings.TrimSpace(post["email"])

	if !validEmailSyntax(email) {
		return f.fail("fields.email.validation.invalid_email", email)
	}

	domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])

	if len(f.params.AllowedDomains) > 0 && !domainListed(domain, f.params.AllowedDomains) {
		return f.fail("fields.email.validation.domain_not_allowed", email)
	}
	if domainListed(domain, f.params.DisallowedDomains) {
		return f.fail("fields.email.validation.domain_disallowed", email)
	}
	if containsForbidden(email, f.params.ForbiddenWords) {
		return f.fail("fields.email.validation.contains_forbidden", email)
	}

	if currentEmail != "" && strings.EqualFold(email, currentEmail) {
		return nil
	}
	used, err := f.users.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("checking email uniqueness: %w", err)
	}
	if used {
		return f.fail("fields.email.validation.already_used", email)
	}

	return nil
}

func (f *EmailField) fail(key, email string) error {
	f.lggr.Debugw("email rejected", "rule", key, "email", logger.RedactEmail(email))
	return &ValidationError{
		Field:   f.InputName(),
		Key:     key,
		Message: f.deps.Translator.T(key),
	}
}

// OnRegisterBeforeSave commits the submitted email onto user.
func (f *EmailField) OnRegisterBeforeSave(post Post, user *models.User) bool {
	return f.beforeSave(post, user)
}

// OnEditBeforeSave commits the submitted email onto user.
func (f *EmailField) OnEditBeforeSave(post Post, user *models.User) bool {
	return f.beforeSave(post, user)
}

func (f *EmailField) beforeSave(post Post, user *models.User) bool {
	value, ok := post["email"]
	if !ok {
		return true
	}

	email := strings.TrimSpace(value)
	user.Email = email
	if f.emailAsUsername {
		post["username"] = email
	}
	delete(post, "email")

	return true
}

// OnIndexer returns the value to index when the field is searchable.
func (f *EmailField) OnIndexer(value string) (string, bool) {
	if !f.params.Searchable {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// OnIndexerSearch matches keywords against an indexed email owned by
// itemCreatorID and returns the highlighted result line.
func (f *EmailField) OnIndexerSearch(ctx context.Context, viewerID, itemCreatorID int64, keywords, value string) (SearchResult, error) {
	if !f.params.Searchable {
		return SearchResult{Outcome: NoMatch}, nil
	}

	data := strings.TrimSpace(value)
	if data == "" || keywords == "" || !strings.Contains(strings.ToLower(data), strings.ToLower(keywords)) {
		return SearchResult{Outcome: NoMatch}, nil
	}

	ok, err := f.deps.Privacy.Allowed(ctx, viewerID, itemCreatorID, f.Key(), privacy.RuleView)
	if err != nil {
		return SearchResult{}, err
	}
	if !ok {
		return SearchResult{Outcome: Denied}, nil
	}

	return SearchResult{
		Outcome: Matched,
		Content: f.deps.Translator.T("fields.email.search_result", Highlight(data, keywords)),
	}, nil
}

// OnDisplay renders the email for viewers the owner's privacy setting allows.
func (f *EmailField) OnDisplay(ctx context.Context, viewerID int64, user *models.User) (string, error) {
	ok, err := f.deps.Privacy.Allowed(ctx, viewerID, user.ID, f.Key(), privacy.RuleView)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	return f.deps.Renderer.Render("fields/email/display", map[string]any{
		"email": html.EscapeString(user.Email),
	})
}

// OnSample renders the field preview shown in the profile designer.
func (f *EmailField) OnSample() (string, error) {
	return f.deps.Renderer.Render("fields/email/sample", nil)
}

func (f *EmailField) OnOAuthGetUserPermission(perms []string) []string {
	return append(perms, "email")
}

func (f *EmailField) OnOAuthGetMetaFields(fields []string) []string {
	return append(fields, "email")
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

func validEmailSyntax(email string) bool {
	if len(email) < 5 || len(email) > 254 {
		return false
	}
	return emailPattern.MatchString(email)
}

// domainListed reports whether domain equals an entry of list or is one of
// its subdomains. Entries may carry a leading "@".
func domainListed(domain string, list []string) bool {
	for _, entry := range list {
		entry = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(entry), "@"))
		if entry == "" {
			continue
		}
		if domain == entry || strings.HasSuffix(domain, "."+entry) {
			return true
		}
	}
	return false
}

func containsForbidden(email string, words []string) bool {
	lower := strings.ToLower(email)
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
