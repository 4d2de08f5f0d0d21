package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_T(t *testing.T) {
	tr := New("en-US")

	assert.Equal(t, "en", tr.Language())
	assert.Equal(t, "Please enter a valid email address.", tr.T("fields.email.validation.invalid_email"))
	assert.Equal(t, "Email: <b>x</b>", tr.T("fields.email.search_result", "<b>x</b>"))
	assert.Equal(t, "The username must be at least 4 characters.", tr.T("fields.username.validation.too_short", 4))
}

func TestTranslator_FallsBackToEnglish(t *testing.T) {
	tr := New("fr-FR", "not a tag")
	assert.Equal(t, "Username", tr.T("fields.username.label"))
}

func TestTranslator_UnknownKey(t *testing.T) {
	assert.Equal(t, "no.such.key", New().T("no.such.key"))
}
