package userdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer(t *testing.T) {
	t.Run("declared type wins over directive", func(t *testing.T) {
		inf, err := Infer([]byte("#cloud-config\na: 1\n"), TypePlain, "")
		require.NoError(t, err)
		assert.Equal(t, TypePlain, inf.ContentType)
		assert.Equal(t, "#cloud-config\na: 1\n", string(inf.Body))
		assert.Empty(t, inf.Directive)
	})

	t.Run("directive is stripped", func(t *testing.T) {
		inf, err := Infer([]byte("#cloud-config\npackages: [jq]\n"), "", "")
		require.NoError(t, err)
		assert.Equal(t, TypeCloudConfig, inf.ContentType)
		assert.Equal(t, "#cloud-config", inf.Directive)
		assert.Equal(t, "packages: [jq]\n", string(inf.Body))
	})

	t.Run("shebang is kept", func(t *testing.T) {
		inf, err := Infer([]byte("#!/bin/sh\necho hi\n"), "", "")
		require.NoError(t, err)
		assert.Equal(t, TypeShellScript, inf.ContentType)
		assert.Empty(t, inf.Directive)
		assert.Equal(t, "#!/bin/sh\necho hi\n", string(inf.Body))
	})

	t.Run("longest directive wins", func(t *testing.T) {
		inf, err := Infer([]byte("#include-once\nhttp://example.com/a\n"), "", "")
		require.NoError(t, err)
		assert.Equal(t, TypeIncludeOnceURL, inf.ContentType)

		inf, err = Infer([]byte("#cloud-config-archive\n- content: x\n"), "", "")
		require.NoError(t, err)
		assert.Equal(t, TypeCloudConfigArchive, inf.ContentType)
	})

	t.Run("directive without newline", func(t *testing.T) {
		inf, err := Infer([]byte("#cloud-config"), "", "")
		require.NoError(t, err)
		assert.Equal(t, TypeCloudConfig, inf.ContentType)
		assert.Empty(t, inf.Body)
	})

	t.Run("directive line ending is kept", func(t *testing.T) {
		for _, content := range []string{
			"#cloud-config",
			"#cloud-config\n",
			"#cloud-config\r\nhostname: x\r\n",
			"#include\r\nhttp://example.com/a\n",
		} {
			pt, line, eol, rest, ok := splitDirective([]byte(content))
			require.True(t, ok, "%q", content)
			assert.NotEqual(t, PartType{}, pt)
			assert.Equal(t, content, line+eol+string(rest), "%q", content)
		}

		inf, err := Infer([]byte("#cloud-config\r\nhostname: x\r\n"), "", "")
		require.NoError(t, err)
		assert.Equal(t, "#cloud-config", inf.Directive)
		assert.Equal(t, "hostname: x\r\n", string(inf.Body))
	})

	t.Run("header block", func(t *testing.T) {
		content := "Content-Type: text/x-shellscript-per-boot\n" +
			"Content-Disposition: attachment;\n filename=\"boot.sh\"\n" +
			"MIME-Version: 1.0\n" +
			"X-Owner: ops\n" +
			"\n" +
			"#!/bin/sh\necho boot\n"
		inf, err := Infer([]byte(content), "", "")
		require.NoError(t, err)
		assert.Equal(t, TypeShellPerBoot, inf.ContentType)
		assert.Equal(t, "boot.sh", inf.Filename)
		assert.Equal(t, []Header{{Name: "X-Owner", Value: "ops"}}, inf.Headers)
		assert.Equal(t, "#!/bin/sh\necho boot\n", string(inf.Body))
	})

	t.Run("base64 header block body", func(t *testing.T) {
		content := "Content-Type: text/plain\nContent-Transfer-Encoding: base64\n\naGVsbG8=\n"
		inf, err := Infer([]byte(content), "", "")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(inf.Body))
	})

	t.Run("header block without content type", func(t *testing.T) {
		_, err := Infer([]byte("Subject: hi\n\nbody\n"), "", "")
		assert.ErrorIs(t, err, ErrTypeInference)
	})

	t.Run("plain comment falls back to default", func(t *testing.T) {
		inf, err := Infer([]byte("# a comment\n"), "", TypePlain)
		require.NoError(t, err)
		assert.Equal(t, TypePlain, inf.ContentType)
		assert.Equal(t, "# a comment\n", string(inf.Body))
	})

	t.Run("no default", func(t *testing.T) {
		_, err := Infer([]byte("hello world\n"), "", "")
		assert.ErrorIs(t, err, ErrTypeInference)
	})

	t.Run("binary is sniffed", func(t *testing.T) {
		gz, err := gzipBytes([]byte("payload"), 9)
		require.NoError(t, err)
		inf, err := Infer(gz, "", "")
		require.NoError(t, err)
		assert.Equal(t, "application/gzip", inf.ContentType)
	})
}
