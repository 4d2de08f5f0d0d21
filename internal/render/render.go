// Package render renders named views from the embedded Liquid themes.
package render

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

//go:embed themes
var themesFS embed.FS

// Translator resolves message keys. The "t" filter and every package that
// shows messages use it.
type Translator interface {
	T(key string, args ...any) string
}

// Engine renders a named view. *Renderer is the production Engine.
type Engine interface {
	Render(view string, vars map[string]any) (string, error)
}

var _ Engine = (*Renderer)(nil)

// Renderer renders views such as "fields/email/form" to HTML fragments.
// Parsed templates are cached by view name.
type Renderer struct {
	engine *liquid.Engine
	files  fs.FS
	cache  sync.Map // map[string]*liquid.Template
}

// New creates a Renderer over the embedded themes.
func New(tr Translator) *Renderer {
	sub, err := fs.Sub(themesFS, "themes")
	if err != nil {
		panic(err)
	}
	return NewFromFS(sub, tr)
}

// NewFromFS creates a Renderer reading "<view>.liquid" files from files.
func NewFromFS(files fs.FS, tr Translator) *Renderer {
	r := &Renderer{
		engine: liquid.NewEngine(),
		files:  files,
	}
	r.registerFilters(tr)
	return r
}

func (r *Renderer) registerFilters(tr Translator) {
	// {{ "fields.email.label" | t }}
	r.engine.RegisterFilter("t", func(key string) string {
		return tr.T(key)
	})

	// {{ "a" | checked_if: all_day }}
	r.engine.RegisterFilter("checked_if", func(_ any, on bool) string {
		if on {
			return "checked"
		}
		return ""
	})
}

// Render renders view with vars.
func (r *Renderer) Render(view string, vars map[string]any) (string, error) {
	tpl, err := r.template(view)
	if err != nil {
		return "", err
	}

	out, rerr := tpl.RenderString(vars)
	if rerr != nil {
		return "", fmt.Errorf("rendering %s: %w", view, rerr)
	}

	return strings.TrimSpace(out), nil
}

func (r *Renderer) template(view string) (*liquid.Template, error) {
	if cached, ok := r.cache.Load(view); ok {
		return cached.(*liquid.Template), nil
	}

	src, err := fs.ReadFile(r.files, view+".liquid")
	if err != nil {
		return nil, fmt.Errorf("loading view %s: %w", view, err)
	}

	tpl, perr := r.engine.ParseString(string(src))
	if perr != nil {
		return nil, fmt.Errorf("parsing view %s: %w", view, perr)
	}

	actual, _ := r.cache.LoadOrStore(view, tpl)
	return actual.(*liquid.Template), nil
}
