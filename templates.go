package userdata

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/tyler-sommer/stick"
)

// Templates renders Twig templates into part content. It is fs-agnostic:
// templates come from any fs.FS or from memory.
type Templates struct {
	env       *stick.Env
	templates map[string]string
	vars      map[string]any
}

// TemplateOption configures a Templates set.
type TemplateOption func(*Templates) error

// WithTemplateFS loads every *.twig file under dir in fsys. A template is
// named by its slash-separated path relative to dir, without the extension:
// dir/scripts/boot.twig becomes "scripts/boot". Use "." for the root.
func WithTemplateFS(fsys fs.FS, dir string) TemplateOption {
	return func(t *Templates) error {
		sub, err := fs.Sub(fsys, dir)
		if err != nil {
			return fmt.Errorf("template dir %q: %w", dir, err)
		}
		return fs.WalkDir(sub, ".", func(name string, d fs.DirEntry, err error) error {
			switch {
			case err != nil:
				return fmt.Errorf("template dir %q: %w", dir, err)
			case d.IsDir() || path.Ext(name) != ".twig":
				return nil
			}
			src, err := fs.ReadFile(sub, name)
			if err != nil {
				return fmt.Errorf("read template %s: %w", path.Join(dir, name), err)
			}
			t.templates[strings.TrimSuffix(name, ".twig")] = string(src)
			return nil
		})
	}
}

// WithTemplates adds in-memory templates keyed by name.
func WithTemplates(m map[string]string) TemplateOption {
	return func(t *Templates) error {
		for k, v := range m {
			t.templates[k] = v
		}
		return nil
	}
}

// WithTemplateVar adds a variable visible to every template.
func WithTemplateVar(key string, value any) TemplateOption {
	return func(t *Templates) error {
		t.vars[key] = value
		return nil
	}
}

// NewTemplates builds a template set from opts.
func NewTemplates(opts ...TemplateOption) (*Templates, error) {
	t := &Templates{
		env:       stick.New(nil),
		templates: make(map[string]string),
		vars:      make(map[string]any),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddTemplate updates or inserts one template.
func (t *Templates) AddTemplate(name, src string) { t.templates[name] = src }

// Names returns the template names in no particular order.
func (t *Templates) Names() []string {
	names := make([]string, 0, len(t.templates))
	for name := range t.templates {
		names = append(names, name)
	}
	return names
}

// Render executes the named template. extra variables override the
// set-wide ones for this call only.
func (t *Templates) Render(name string, extra map[string]any) (string, error) {
	src, ok := t.templates[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}
	return execute(t.env, name, src, t.context(name, extra))
}

// Input returns the named template as a document input. Rendering happens
// when the input is added.
func (t *Templates) Input(name string, extra map[string]any) Template {
	return Template{name: name, render: func() (string, error) { return t.Render(name, extra) }}
}

func (t *Templates) context(name string, extra map[string]any) map[string]stick.Value {
	ctx := make(map[string]stick.Value, len(t.vars)+len(extra)+1)
	ctx["template_name"] = name
	for k, v := range t.vars {
		ctx[k] = v
	}
	for k, v := range extra {
		ctx[k] = v
	}
	return ctx
}

// Template is an input whose content is produced by a Twig template. Its
// type is inferred from the rendered text, like Text.
type Template struct {
	name   string
	render func() (string, error)
}

func (Template) isInput() {}

// Name returns the template name, or "inline".
func (t Template) Name() string { return t.name }

// InlineTemplate returns an input rendering src with vars.
func InlineTemplate(src string, vars map[string]any) Template {
	return Template{name: "inline", render: func() (string, error) {
		ctx := make(map[string]stick.Value, len(vars))
		for k, v := range vars {
			ctx[k] = v
		}
		return execute(stick.New(nil), "inline", src, ctx)
	}}
}

func execute(env *stick.Env, name, src string, ctx map[string]stick.Value) (string, error) {
	var out strings.Builder
	if err := env.Execute(src, &out, ctx); err != nil {
		return "", fmt.Errorf("execute %q: %w", name, err)
	}
	return out.String(), nil
}
