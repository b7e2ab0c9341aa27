package userdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPart(t *testing.T) {
	t.Run("text with directive", func(t *testing.T) {
		p, err := NewPart(Text("#cloud-config\nhostname: web\n"))
		require.NoError(t, err)
		assert.Equal(t, TypeCloudConfig, p.ContentType())
		assert.Equal(t, "#cloud-config", p.Directive())
		assert.Equal(t, "hostname: web\n", string(p.Content()))
		assert.Empty(t, p.Identifier())

		raw, ok := p.Raw()
		assert.True(t, ok)
		assert.Equal(t, "#cloud-config\nhostname: web\n", string(raw))
	})

	t.Run("structured becomes cloud-config", func(t *testing.T) {
		p, err := NewPart(Structured{Value: NewMap().Set("packages", []string{"jq"})})
		require.NoError(t, err)
		assert.Equal(t, TypeCloudConfig, p.ContentType())
		assert.Equal(t, "#cloud-config", p.Directive())
		assert.Equal(t, "packages:\n  - jq\n", string(p.Content()))
	})

	t.Run("structured with explicit type", func(t *testing.T) {
		p, err := NewPart(Structured{Value: []any{map[string]any{"content": "x"}}}, WithContentType(TypeCloudConfigArchive))
		require.NoError(t, err)
		assert.Equal(t, TypeCloudConfigArchive, p.ContentType())
		assert.Equal(t, "#cloud-config-archive", p.Directive())
	})

	t.Run("structured with a type without directive", func(t *testing.T) {
		p, err := NewPart(Structured{Value: "x"}, WithContentType("application/yaml"))
		require.NoError(t, err)
		assert.Empty(t, p.Directive())
		_, ok := p.Raw()
		assert.False(t, ok)
	})

	t.Run("explicit type beats directive", func(t *testing.T) {
		p, err := NewPart(Text("#cloud-config\na: 1\n"), WithContentType(TypePlain))
		require.NoError(t, err)
		assert.Equal(t, TypePlain, p.ContentType())
		assert.Equal(t, "#cloud-config\na: 1\n", string(p.Content()))
	})

	t.Run("declared script type requires shebang", func(t *testing.T) {
		_, err := NewPart(Text("echo hi\n"), WithContentType(TypeShellPerBoot))
		assert.ErrorIs(t, err, ErrInvalidContent)

		p, err := NewPart(Text("#!/bin/sh\necho hi\n"), WithContentType(TypeShellPerBoot))
		require.NoError(t, err)
		_, ok := p.Raw()
		assert.False(t, ok, "per-boot scripts need MIME headers")
	})

	t.Run("headers carry type and filename", func(t *testing.T) {
		p, err := NewPart(Text("hello\n"),
			WithHeader("Content-Type", TypePlain),
			WithHeader("Content-Disposition", `attachment; filename="hello.txt"`),
			WithHeader("X-Trace", "1"))
		require.NoError(t, err)
		assert.Equal(t, TypePlain, p.ContentType())
		assert.Equal(t, "hello.txt", p.Identifier())
		assert.Equal(t, []Header{{Name: "X-Trace", Value: "1"}}, p.Headers())
	})

	t.Run("identifier option beats header filename", func(t *testing.T) {
		p, err := NewPart(Text("#!/bin/sh\n"),
			WithHeader("Content-Disposition", `attachment; filename="a.sh"`),
			WithIdentifier("b.sh"))
		require.NoError(t, err)
		assert.Equal(t, "b.sh", p.Identifier())
	})

	t.Run("ambiguous text without default", func(t *testing.T) {
		_, err := NewPart(Text("just words"))
		assert.ErrorIs(t, err, ErrTypeInference)
	})

	t.Run("nil input", func(t *testing.T) {
		_, err := NewPart(nil)
		assert.ErrorIs(t, err, ErrInvalidContent)
	})

	t.Run("zero template", func(t *testing.T) {
		_, err := NewPart(Template{})
		assert.ErrorIs(t, err, ErrInvalidContent)
	})
}

func TestPartPassthrough(t *testing.T) {
	orig, err := NewPart(Text("#!/bin/bash\necho hi\n"), WithIdentifier("setup.sh"))
	require.NoError(t, err)

	t.Run("unchanged", func(t *testing.T) {
		p, err := NewPart(orig)
		require.NoError(t, err)
		assert.Equal(t, orig, p)
	})

	t.Run("pointer", func(t *testing.T) {
		p, err := NewPart(&orig)
		require.NoError(t, err)
		assert.Equal(t, orig, p)
	})

	t.Run("identifier override", func(t *testing.T) {
		p, err := NewPart(orig, WithIdentifier("other.sh"))
		require.NoError(t, err)
		assert.Equal(t, "other.sh", p.Identifier())
		assert.Equal(t, "setup.sh", orig.Identifier())
	})

	t.Run("type override re-infers", func(t *testing.T) {
		p, err := NewPart(orig, WithContentType(TypeShellPerInstance))
		require.NoError(t, err)
		assert.Equal(t, TypeShellPerInstance, p.ContentType())
		assert.Equal(t, "setup.sh", p.Identifier())
		assert.Equal(t, "#!/bin/bash\necho hi\n", string(p.Content()))
	})

	t.Run("content is copied", func(t *testing.T) {
		c := orig.Content()
		c[0] = 'X'
		assert.Equal(t, byte('#'), orig.Content()[0])
	})
}

func TestFromValue(t *testing.T) {
	p := Part{contentType: TypePlain}
	tests := []struct {
		name string
		in   any
		want Input
	}{
		{"string", "x", Text("x")},
		{"bytes", []byte("x"), Bytes("x")},
		{"input", Text("y"), Text("y")},
		{"part", p, p},
		{"part pointer", &p, p},
		{"map", map[string]any{"a": 1}, Structured{Value: map[string]any{"a": 1}}},
		{"nil", nil, Structured{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromValue(tt.in))
		})
	}
}
