package fields

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-apps/backend/internal/storage/models"
)

func newEmailField(t *testing.T, params EmailParams, users *fakeUsers) *EmailField {
	t.Helper()
	if users == nil {
		users = &fakeUsers{}
	}
	return NewEmailField(params, false, users, testDeps(t, nil))
}

func validationKey(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
	return verr.Key
}

func TestValidateEmail_Syntax(t *testing.T) {
	f := newEmailField(t, EmailParams{}, nil)

	for _, bad := range []string{"", "not-an-email", "a@b", "a@@b.com", "@example.com", "a b@example.com", "a@-x.com"} {
		t.Run(bad, func(t *testing.T) {
			err := f.ValidateEmail(context.Background(), Post{"email": bad}, "")
			assert.Equal(t, "fields.email.validation.invalid_email", validationKey(t, err))
		})
	}

	assert.NoError(t, f.ValidateEmail(context.Background(), Post{"email": "  a@b.com  "}, ""))
}

func TestValidateEmail_InvalidMessageIsLocalized(t *testing.T) {
	f := newEmailField(t, EmailParams{}, nil)

	err := f.OnRegisterValidate(context.Background(), Post{"email": "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, "Please enter a valid email address.", err.Error())
}

func TestValidateEmail_DomainRules(t *testing.T) {
	tests := []struct {
		name   string
		params EmailParams
		email  string
		want   string
	}{
		{"allowed list passes", EmailParams{AllowedDomains: []string{"example.com"}}, "a@example.com", ""},
		{"allowed list covers subdomains", EmailParams{AllowedDomains: []string{"@Example.com"}}, "a@mail.EXAMPLE.com", ""},
		{"allowed list rejects others", EmailParams{AllowedDomains: []string{"example.com"}}, "a@badexample.com", "fields.email.validation.domain_not_allowed"},
		{"disallowed list", EmailParams{DisallowedDomains: []string{"spam.io"}}, "a@spam.io", "fields.email.validation.domain_disallowed"},
		{"disallowed after allowed", EmailParams{AllowedDomains: []string{"io"}, DisallowedDomains: []string{"spam.io"}}, "a@x.spam.io", "fields.email.validation.domain_disallowed"},
		{"forbidden word", EmailParams{ForbiddenWords: []string{"Admin"}}, "siteADMIN@example.com", "fields.email.validation.contains_forbidden"},
		{"blank forbidden word ignored", EmailParams{ForbiddenWords: []string{"  "}}, "a@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEmailField(t, tt.params, nil)
			err := f.ValidateEmail(context.Background(), Post{"email": tt.email}, "")
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, validationKey(t, err))
		})
	}
}

func TestValidateEmail_FirstFailureWins(t *testing.T) {
	users := &fakeUsers{emails: map[string]bool{"root@spam.io": true}}
	f := newEmailField(t, EmailParams{
		DisallowedDomains: []string{"spam.io"},
		ForbiddenWords:    []string{"root"},
	}, users)

	err := f.ValidateEmail(context.Background(), Post{"email": "root@spam.io"}, "")
	assert.Equal(t, "fields.email.validation.domain_disallowed", validationKey(t, err))
}

func TestValidateEmail_AlreadyUsed(t *testing.T) {
	users := &fakeUsers{emails: map[string]bool{"taken@example.com": true}}
	f := newEmailField(t, EmailParams{}, users)
	ctx := context.Background()

	err := f.OnRegisterValidate(ctx, Post{"email": "Taken@Example.com"})
	assert.Equal(t, "fields.email.validation.already_used", validationKey(t, err))

	// unchanged address on edit
	owner := &models.User{ID: 1, Email: "taken@example.com"}
	assert.NoError(t, f.OnEditValidate(ctx, Post{"email": "TAKEN@example.com"}, owner))

	other := &models.User{ID: 2, Email: "other@example.com"}
	err = f.OnEditValidate(ctx, Post{"email": "taken@example.com"}, other)
	assert.Equal(t, "fields.email.validation.already_used", validationKey(t, err))
}

func TestValidateEmail_LookupFailure(t *testing.T) {
	f := newEmailField(t, EmailParams{}, &fakeUsers{err: errors.New("db gone")})

	err := f.ValidateEmail(context.Background(), Post{"email": "a@b.com"}, "")
	require.Error(t, err)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.ErrorContains(t, err, "db gone")
}

func TestBeforeSave(t *testing.T) {
	f := newEmailField(t, EmailParams{}, nil)

	post := Post{"email": "a@b.com", "name": "A"}
	user := &models.User{}
	assert.True(t, f.OnRegisterBeforeSave(post, user))

	assert.Equal(t, "a@b.com", user.Email)
	assert.NotContains(t, post, "email")
	assert.NotContains(t, post, "username")
	assert.Equal(t, "A", post["name"])
}

func TestBeforeSave_EmailAsUsername(t *testing.T) {
	f := NewEmailField(EmailParams{}, true, &fakeUsers{}, testDeps(t, nil))

	post := Post{"email": "a@b.com"}
	user := &models.User{Email: "old@b.com"}
	assert.True(t, f.OnEditBeforeSave(post, user))

	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, "a@b.com", post["username"])
	assert.NotContains(t, post, "email")
}

func TestBeforeSave_MissingEmailKeepsStored(t *testing.T) {
	f := newEmailField(t, EmailParams{}, nil)

	user := &models.User{Email: "keep@b.com"}
	assert.True(t, f.OnEditBeforeSave(Post{}, user))
	assert.Equal(t, "keep@b.com", user.Email)
}

func TestOnRegister_RendersEscapedValueAndError(t *testing.T) {
	f := newEmailField(t, EmailParams{}, nil)

	out, err := f.OnRegister(Post{"email": `x"><script>@b.com`}, &Registration{
		Errors: map[string]string{"email": "Please enter a valid email address."},
	})
	require.NoError(t, err)

	assert.Contains(t, out, `value="x&#34;&gt;&lt;script&gt;@b.com"`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "Please enter a valid email address.")
}

func TestOnEdit_FallsBackToUserEmail(t *testing.T) {
	f := newEmailField(t, EmailParams{}, nil)
	user := &models.User{Email: "stored@b.com"}

	out, err := f.OnEdit(Post{}, user, nil)
	require.NoError(t, err)
	assert.Contains(t, out, `value="stored@b.com"`)
	assert.NotContains(t, out, "data-field-error")

	out, err = f.OnEdit(Post{"email": ""}, user, nil)
	require.NoError(t, err)
	assert.Contains(t, out, `value=""`)
}

func TestOnIndexer(t *testing.T) {
	searchable := newEmailField(t, EmailParams{Searchable: true}, nil)
	hidden := newEmailField(t, EmailParams{}, nil)

	v, ok := searchable.OnIndexer("  a@b.com ")
	assert.True(t, ok)
	assert.Equal(t, "a@b.com", v)

	_, ok = searchable.OnIndexer("   ")
	assert.False(t, ok)

	_, ok = hidden.OnIndexer("a@b.com")
	assert.False(t, ok)
}

func TestOnIndexerSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("not searchable", func(t *testing.T) {
		f := newEmailField(t, EmailParams{}, nil)
		res, err := f.OnIndexerSearch(ctx, 1, 2, "john", "john@example.com")
		require.NoError(t, err)
		assert.Equal(t, NoMatch, res.Outcome)
	})

	t.Run("no match skips privacy", func(t *testing.T) {
		p := &fakePrivacy{allow: true}
		f := NewEmailField(EmailParams{Searchable: true}, false, &fakeUsers{}, testDeps(t, p))
		res, err := f.OnIndexerSearch(ctx, 1, 2, "jane", "john@example.com")
		require.NoError(t, err)
		assert.Equal(t, NoMatch, res.Outcome)
		assert.Empty(t, p.calls)
	})

	t.Run("denied", func(t *testing.T) {
		p := &fakePrivacy{allow: false}
		f := NewEmailField(EmailParams{Searchable: true}, false, &fakeUsers{}, testDeps(t, p))
		res, err := f.OnIndexerSearch(ctx, 1, 2, "JOHN", "john@example.com")
		require.NoError(t, err)
		assert.Equal(t, Denied, res.Outcome)
		assert.Equal(t, []int64{1, 2}, p.calls)
	})

	t.Run("matched", func(t *testing.T) {
		f := newEmailField(t, EmailParams{Searchable: true}, nil)
		res, err := f.OnIndexerSearch(ctx, 1, 2, "John", " john@example.com ")
		require.NoError(t, err)
		assert.Equal(t, Matched, res.Outcome)
		assert.Equal(t, `Email: <span class="search-highlight">john</span>@example.com`, res.Content)
	})

	t.Run("privacy error", func(t *testing.T) {
		p := &fakePrivacy{err: errors.New("boom")}
		f := NewEmailField(EmailParams{Searchable: true}, false, &fakeUsers{}, testDeps(t, p))
		_, err := f.OnIndexerSearch(ctx, 1, 2, "john", "john@example.com")
		assert.Error(t, err)
	})
}

func TestOnDisplay(t *testing.T) {
	user := &models.User{ID: 2, Email: "j&j@example.com"}

	allowed := NewEmailField(EmailParams{}, false, &fakeUsers{}, testDeps(t, &fakePrivacy{allow: true}))
	out, err := allowed.OnDisplay(context.Background(), 1, user)
	require.NoError(t, err)
	assert.Contains(t, out, "mailto:j&amp;j@example.com")

	denied := NewEmailField(EmailParams{}, false, &fakeUsers{}, testDeps(t, &fakePrivacy{allow: false}))
	out, err = denied.OnDisplay(context.Background(), 1, user)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOnSampleAndOAuth(t *testing.T) {
	f := newEmailField(t, EmailParams{}, nil)

	out, err := f.OnSample()
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")

	assert.Equal(t, []string{"public_profile", "email"}, f.OnOAuthGetUserPermission([]string{"public_profile"}))
	assert.Equal(t, []string{"email"}, f.OnOAuthGetMetaFields(nil))
}
