package userdata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	doc := NewForTesting()
	doc.MustAdd(Text("#!/bin/sh\necho hi\n"))
	doc.MustAdd(Text("#cloud-config\na: 1\n"), WithIdentifier("cfg.yaml"), WithHeader("X-Owner", "ops"))

	t.Run("text", func(t *testing.T) {
		out, err := doc.Describe(DescribeText)
		require.NoError(t, err)
		want := "User-data document (2 parts)\n" +
			"  ├─ part1 text/x-shellscript (size=18 B)\n" +
			"  └─ cfg.yaml text/cloud-config (directive=\"#cloud-config\", size=19 B)\n" +
			"     └─ X-Owner: ops\n"
		assert.Equal(t, want, out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := doc.Describe(DescribeJSON)
		require.NoError(t, err)

		var got []PartSummary
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 2)
		assert.Equal(t, PartSummary{Index: 1, Identifier: "part1", ContentType: TypeShellScript, Size: 18}, got[0])
		assert.Equal(t, "#cloud-config", got[1].Directive)
		assert.Equal(t, []Header{{Name: "X-Owner", Value: "ops"}}, got[1].Headers)
	})

	t.Run("single part", func(t *testing.T) {
		out, err := Describe(doc.Parts()[:1], "")
		require.NoError(t, err)
		assert.Contains(t, out, "(1 part)")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := doc.Describe("yaml")
		assert.ErrorIs(t, err, ErrInvalidOption)
	})
}
