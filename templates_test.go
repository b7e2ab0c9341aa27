package userdata

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates_Render(t *testing.T) {
	tpl, err := NewTemplates(
		WithTemplates(map[string]string{
			"motd":  "Welcome to {{ host }}",
			"named": "rendered {{ template_name }}",
		}),
		WithTemplateVar("host", "web-1"),
	)
	require.NoError(t, err)

	t.Run("set-wide variables", func(t *testing.T) {
		out, err := tpl.Render("motd", nil)
		require.NoError(t, err)
		assert.Equal(t, "Welcome to web-1", out)
	})

	t.Run("call variables override", func(t *testing.T) {
		out, err := tpl.Render("motd", map[string]any{"host": "db-1"})
		require.NoError(t, err)
		assert.Equal(t, "Welcome to db-1", out)
	})

	t.Run("template name is available", func(t *testing.T) {
		out, err := tpl.Render("named", nil)
		require.NoError(t, err)
		assert.Equal(t, "rendered named", out)
	})

	t.Run("missing template", func(t *testing.T) {
		_, err := tpl.Render("nonexistent", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("add template", func(t *testing.T) {
		tpl.AddTemplate("new", "New {{ host }}")
		out, err := tpl.Render("new", nil)
		require.NoError(t, err)
		assert.Equal(t, "New web-1", out)
		assert.ElementsMatch(t, []string{"motd", "named", "new"}, tpl.Names())
	})
}

func TestWithTemplateFS(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/boot.twig":       {Data: []byte("#!/bin/sh\necho {{ msg }}")},
		"templates/nested/cfg.twig": {Data: []byte("#cloud-config\nhostname: {{ host }}")},
		"templates/README.md":       {Data: []byte("ignored")},
		"other/outside.twig":        {Data: []byte("ignored")},
	}
	tpl, err := NewTemplates(WithTemplateFS(fsys, "templates"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"boot", "nested/cfg"}, tpl.Names())

	out, err := tpl.Render("nested/cfg", map[string]any{"host": "web"})
	require.NoError(t, err)
	assert.Equal(t, "#cloud-config\nhostname: web", out)

	t.Run("root", func(t *testing.T) {
		tpl, err := NewTemplates(WithTemplateFS(fsys, "."))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"templates/boot", "templates/nested/cfg", "other/outside"}, tpl.Names())
	})

	t.Run("same base name in two directories", func(t *testing.T) {
		tpl, err := NewTemplates(WithTemplateFS(fstest.MapFS{
			"a/boot.twig": {Data: []byte("#!/bin/sh\necho a")},
			"b/boot.twig": {Data: []byte("#!/bin/sh\necho b")},
		}, "."))
		require.NoError(t, err)
		out, err := tpl.Render("b/boot", nil)
		require.NoError(t, err)
		assert.Equal(t, "#!/bin/sh\necho b", out)
	})

	t.Run("missing dir", func(t *testing.T) {
		_, err := NewTemplates(WithTemplateFS(fsys, "missing"))
		assert.Error(t, err)
	})
}

func TestTemplateInput(t *testing.T) {
	tpl, err := NewTemplates(WithTemplates(map[string]string{
		"boot": "#!/bin/sh\necho {{ msg }}",
		"cfg":  "#cloud-config\nhostname: {{ host }}",
	}))
	require.NoError(t, err)

	doc := NewForTesting()
	p1, err := doc.Add(tpl.Input("boot", map[string]any{"msg": "hi"}))
	require.NoError(t, err)
	assert.Equal(t, TypeShellScript, p1.ContentType())
	assert.Equal(t, "#!/bin/sh\necho hi", string(p1.Content()))

	p2, err := doc.Add(tpl.Input("cfg", map[string]any{"host": "web"}), WithIdentifier("cfg.yaml"))
	require.NoError(t, err)
	assert.Equal(t, TypeCloudConfig, p2.ContentType())
	assert.Equal(t, "hostname: web", string(p2.Content()))

	t.Run("render error leaves document unchanged", func(t *testing.T) {
		_, err := doc.Add(tpl.Input("missing", nil))
		assert.Error(t, err)
		assert.Equal(t, 2, doc.Count())
	})

	t.Run("inline", func(t *testing.T) {
		in := InlineTemplate("#include\n{{ url }}", map[string]any{"url": "https://example.com/a"})
		assert.Equal(t, "inline", in.Name())
		p, err := NewPart(in)
		require.NoError(t, err)
		assert.Equal(t, TypeIncludeURL, p.ContentType())
		assert.Equal(t, "https://example.com/a", string(p.Content()))
	})
}
