package render

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-apps/backend/internal/i18n"
)

func TestRenderer_EmailForm(t *testing.T) {
	r := New(i18n.New("en"))

	out, err := r.Render("fields/email/form", map[string]any{
		"input_name": "email",
		"value":      "a&amp;b@example.com",
		"has_error":  true,
		"error":      "Bad <email>",
	})
	require.NoError(t, err)

	assert.Contains(t, out, `<label for="email">Email</label>`)
	assert.Contains(t, out, `value="a&amp;b@example.com"`)
	assert.Contains(t, out, "Bad &lt;email&gt;")
}

func TestRenderer_HidesEmptyError(t *testing.T) {
	r := New(i18n.New("en"))

	out, err := r.Render("fields/email/form", map[string]any{"input_name": "email", "value": ""})
	require.NoError(t, err)
	assert.NotContains(t, out, "data-field-error")
}

func TestRenderer_CachesParsedTemplates(t *testing.T) {
	files := fstest.MapFS{"hello.liquid": {Data: []byte("hi {{ name }}")}}
	r := NewFromFS(files, i18n.New())

	out, err := r.Render("hello", map[string]any{"name": "bob"})
	require.NoError(t, err)
	assert.Equal(t, "hi bob", out)

	files["hello.liquid"] = &fstest.MapFile{Data: []byte("changed")}
	out, err = r.Render("hello", map[string]any{"name": "amy"})
	require.NoError(t, err)
	assert.Equal(t, "hi amy", out)
}

func TestRenderer_MissingView(t *testing.T) {
	r := New(i18n.New())
	_, err := r.Render("apps/none/dialog", nil)
	assert.Error(t, err)
}

func TestRenderer_CalendarDialogs(t *testing.T) {
	r := New(i18n.New())

	entry := map[string]any{
		"id": int64(3), "title": "Lunch", "description": "", "reminder": 0,
		"date_start": "2024-05-01 12:00:00", "date_end": "2024-05-01 13:00:00", "all_day": true,
	}

	out, err := r.Render("apps/calendar/dialog.create", map[string]any{"entry": entry})
	require.NoError(t, err)
	assert.Contains(t, out, `name="all_day" value="1" checked`)

	out, err = r.Render("apps/calendar/dialog.view", map[string]any{
		"entry": entry,
		"owner": map[string]any{"name": "Dana"},
		"app":   map[string]any{"element": "calendar", "title": "Calendar"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Calendar &middot; Dana")
	assert.Contains(t, out, "(all day)")
}
