package userdata

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument(t *testing.T, opts ...Option) *Document {
	t.Helper()
	doc := NewForTesting(opts...)
	doc.MustAdd(Text("#!/bin/bash\necho hi\n"))
	doc.MustAdd(Structured{Value: NewMap().Set("packages", []any{"jq"})}, WithIdentifier("config.yaml"))
	doc.MustAdd(Bytes([]byte{0x00, 0xff, 0x10}), WithContentType("application/octet-stream"), WithHeader("X-Trace", "7"))
	return doc
}

func TestInspect(t *testing.T) {
	doc := sampleDocument(t)

	check := func(t *testing.T, d Decoded) {
		t.Helper()
		assert.True(t, d.Multipart)
		assert.Equal(t, "::0::", d.Boundary)
		require.Len(t, d.Parts, doc.Count())
		for i, want := range doc.Parts() {
			got := d.Parts[i]
			wantRaw, _ := want.Raw()
			gotRaw, _ := got.Raw()
			assert.Equal(t, want.ContentType(), got.ContentType())
			assert.Equal(t, want.Identifier(), got.Identifier())
			assert.Equal(t, want.Headers(), got.Headers())
			assert.Equal(t, wantRaw, gotRaw)
		}
	}

	t.Run("text", func(t *testing.T) {
		text, err := doc.RenderText()
		require.NoError(t, err)
		d, err := Inspect([]byte(text))
		require.NoError(t, err)
		assert.False(t, d.Base64)
		assert.False(t, d.Compressed)
		assert.Equal(t, len(text), d.RawSize)
		check(t, d)
	})

	t.Run("gzip", func(t *testing.T) {
		gz := sampleDocument(t, WithCompress(CompressAlways))
		b, err := gz.RenderBytes()
		require.NoError(t, err)
		d, err := Inspect(b)
		require.NoError(t, err)
		assert.True(t, d.Compressed)
		assert.False(t, d.Base64)
		check(t, d)
	})

	t.Run("base64 gzip", func(t *testing.T) {
		gz := sampleDocument(t, WithCompress(CompressAlways))
		s, err := gz.RenderBase64()
		require.NoError(t, err)
		d, err := Inspect([]byte(s))
		require.NoError(t, err)
		assert.True(t, d.Compressed)
		assert.True(t, d.Base64)
		check(t, d)
	})

	t.Run("base64 text", func(t *testing.T) {
		s, err := doc.RenderBase64()
		require.NoError(t, err)
		d, err := Inspect([]byte(s))
		require.NoError(t, err)
		assert.True(t, d.Base64)
		assert.False(t, d.Compressed)
		check(t, d)
	})
}

func TestDecode(t *testing.T) {
	t.Run("bare document", func(t *testing.T) {
		parts, err := Decode([]byte("#cloud-config\nhostname: web\n"))
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, TypeCloudConfig, parts[0].ContentType())
		assert.Equal(t, "part1", parts[0].Identifier())
	})

	t.Run("untyped text is plain", func(t *testing.T) {
		parts, err := Decode([]byte("just some words\n"))
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, TypePlain, parts[0].ContentType())
	})

	t.Run("base64 of a bare document", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte("#!/bin/sh\necho hi\n"))
		parts, err := Decode([]byte(encoded))
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, TypeShellScript, parts[0].ContentType())
	})

	t.Run("single MIME entity", func(t *testing.T) {
		doc := NewForTesting()
		doc.MustAdd(Text("#!/bin/sh\n"), WithContentType(TypeShellPerOnce), WithIdentifier("once.sh"))
		text, err := doc.RenderText()
		require.NoError(t, err)

		parts, err := Decode([]byte(text))
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, TypeShellPerOnce, parts[0].ContentType())
		assert.Equal(t, "once.sh", parts[0].Identifier())
	})

	t.Run("multipart without boundary", func(t *testing.T) {
		_, err := Decode([]byte("Content-Type: multipart/mixed\n\nbody\n"))
		assert.ErrorIs(t, err, ErrInvalidContent)
	})

	t.Run("corrupt gzip", func(t *testing.T) {
		_, err := Decode([]byte{0x1f, 0x8b, 0x01})
		assert.ErrorIs(t, err, ErrInvalidContent)
	})

	t.Run("inflation is bounded", func(t *testing.T) {
		defer func(n int) { maxInflatedBytes = n }(maxInflatedBytes)
		maxInflatedBytes = 1024

		big, err := gzipBytes([]byte("#cloud-config\n"+strings.Repeat("a: b\n", 1000)), gzip.BestCompression)
		require.NoError(t, err)
		_, err = Decode(big)
		assert.ErrorIs(t, err, ErrDocumentTooLarge)

		small, err := gzipBytes([]byte("#cloud-config\na: b\n"), gzip.BestCompression)
		require.NoError(t, err)
		parts, err := Decode(small)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, TypeCloudConfig, parts[0].ContentType())
	})

	t.Run("crlf multipart", func(t *testing.T) {
		text, err := sampleDocument(t).RenderText()
		require.NoError(t, err)
		parts, err := Decode([]byte(strings.ReplaceAll(text, "\n", "\r\n")))
		require.NoError(t, err)
		assert.Len(t, parts, 3)
	})
}
