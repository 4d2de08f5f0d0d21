package fields

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-apps/backend/internal/storage/models"
)

func TestUsernameField_Validate(t *testing.T) {
	users := &fakeUsers{usernames: map[string]int64{"taken": 7}}
	f := NewUsernameField(UsernameParams{}, false, users, testDeps(t, nil))
	ctx := context.Background()

	tests := []struct {
		value string
		want  string
	}{
		{"", "fields.username.validation.required"},
		{"abc", "fields.username.validation.too_short"},
		{"bad name", "fields.username.validation.invalid"},
		{"Taken", "fields.username.validation.already_used"},
		{"jürgen_1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := f.OnRegisterValidate(ctx, Post{"username": tt.value})
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Key)
		})
	}
}

func TestUsernameField_TooShortMessage(t *testing.T) {
	f := NewUsernameField(UsernameParams{MinLength: 6}, false, &fakeUsers{}, testDeps(t, nil))

	err := f.CheckAvailability(context.Background(), "short", 0)
	require.Error(t, err)
	assert.Equal(t, "The username must be at least 6 characters.", err.Error())
}

func TestUsernameField_EditKeepsOwnName(t *testing.T) {
	users := &fakeUsers{usernames: map[string]int64{"alice": 1}}
	f := NewUsernameField(UsernameParams{}, false, users, testDeps(t, nil))

	assert.NoError(t, f.OnEditValidate(context.Background(), Post{"username": "alice"}, &models.User{ID: 1}))
	assert.NoError(t, f.OnEditValidate(context.Background(), Post{}, &models.User{ID: 1}))
	assert.Error(t, f.OnEditValidate(context.Background(), Post{"username": "alice"}, &models.User{ID: 2}))
}

func TestUsernameField_EmailAsUsername(t *testing.T) {
	f := NewUsernameField(UsernameParams{}, true, &fakeUsers{}, testDeps(t, nil))

	assert.NoError(t, f.OnRegisterValidate(context.Background(), Post{}))

	out, err := f.OnRegister(Post{}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUsernameField_RenderAndSave(t *testing.T) {
	f := NewUsernameField(UsernameParams{}, false, &fakeUsers{}, testDeps(t, nil))

	out, err := f.OnEdit(Post{}, &models.User{Username: "bob<"}, map[string]string{"username": "Please enter a username."})
	require.NoError(t, err)
	assert.Contains(t, out, `value="bob&lt;"`)
	assert.Contains(t, out, "data-check-username")
	assert.Contains(t, out, "Please enter a username.")

	sample, err := f.OnSample()
	require.NoError(t, err)
	assert.Contains(t, sample, `data-min-length="4"`)

	user := &models.User{}
	assert.True(t, f.OnRegisterBeforeSave(Post{"username": " bobby "}, user))
	assert.Equal(t, "bobby", user.Username)
}
