// Package i18n resolves message keys to localized text.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator formats messages for one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

var matcher = language.NewMatcher([]language.Tag{language.English})

// New returns a Translator for the best match of the given language
// preferences. Unknown keys are returned as-is.
func New(prefs ...string) *Translator {
	tags := make([]language.Tag, 0, len(prefs))
	for _, p := range prefs {
		if t, err := language.Parse(p); err == nil {
			tags = append(tags, t)
		}
	}
	tag, _, _ := matcher.Match(tags...)
	base, _ := tag.Base()
	tag = language.Make(base.String())

	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(defaultCatalog)),
	}
}

// Language returns the resolved language tag.
func (t *Translator) Language() string {
	return t.tag.String()
}

// T returns the message for key formatted with args.
func (t *Translator) T(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}

var defaultCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range english {
		if err := b.SetString(language.English, key, msg); err != nil {
			panic(err)
		}
	}
	return b
}
