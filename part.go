package userdata

import (
	"bytes"
	"strings"
)

// Header is one extra MIME header attached to a part.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Part is one normalized unit of a user-data document. Parts are values:
// copies share nothing observable, and the accessors return copies.
type Part struct {
	content     []byte
	contentType string
	identifier  string
	directive   string
	lineEnd     string
	headers     []Header
}

// NewPart normalizes a single input without adding it to a document.
// The identifier stays empty unless given, and is assigned when the part
// is added.
func NewPart(in Input, opts ...AddOption) (Part, error) {
	return normalize(in, "", newAddConfig(opts))
}

// Content returns the body of the part. Directive lines other than a
// shebang are not included; see Raw.
func (p Part) Content() []byte { return bytes.Clone(p.content) }

// ContentType returns the MIME type the part is delivered as.
func (p Part) ContentType() string { return p.contentType }

// Identifier returns the part's filename within the document.
func (p Part) Identifier() string { return p.identifier }

// Directive returns the '#' header line that identifies the part when it
// is rendered on its own, or "" if the content identifies itself or the
// type has no directive.
func (p Part) Directive() string { return p.directive }

// Headers returns the extra MIME headers in insertion order.
func (p Part) Headers() []Header { return append([]Header(nil), p.headers...) }

// Raw returns the part as a bare document: the directive line, with the
// line ending it was added with, followed by the content. ok is false when neither a directive nor the content itself
// tells cloud-init the part's type, in which case the part can only be
// delivered with MIME headers.
func (p Part) Raw() (raw []byte, ok bool) {
	if p.directive != "" {
		out := make([]byte, 0, len(p.directive)+len(p.lineEnd)+len(p.content))
		out = append(out, p.directive...)
		out = append(out, p.lineEnd...)
		return append(out, p.content...), true
	}
	return bytes.Clone(p.content), p.selfIdentifying()
}

// selfIdentifying reports whether the first content line already maps to
// the part's content type.
func (p Part) selfIdentifying() bool {
	first, _, _ := bytes.Cut(p.content, []byte("\n"))
	line := string(first)
	if !strings.HasPrefix(line, "#") {
		return false
	}
	pt, ok := LookupDirective(line)
	return ok && pt.ContentType == mediaType(p.contentType)
}

// IsZero reports whether p is the zero Part.
func (p Part) IsZero() bool {
	return p.contentType == "" && p.identifier == "" && p.content == nil && p.headers == nil
}
