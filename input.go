package userdata

import (
	"bytes"
	"fmt"
	"mime"
	"regexp"
	"strings"
)

// Input is anything that can become a Part. The set of implementations is
// closed: Text, Bytes, Structured, Template and Part itself.
type Input interface {
	isInput()
}

// Text is raw textual content whose type is inferred from its first line
// unless declared.
type Text string

// Bytes is raw content. Non UTF-8 content is sniffed rather than falling
// back to the default content type.
type Bytes []byte

// Structured is a JSON-compatible value (mapping, sequence or scalar) that
// is serialized to YAML. Without an explicit type it becomes cloud-config.
type Structured struct {
	Value any
}

func (Text) isInput()       {}
func (Bytes) isInput()      {}
func (Structured) isInput() {}
func (Part) isInput()       {}

// FromValue maps a Go value onto an Input: strings become Text, byte
// slices Bytes, parts and inputs pass through, and everything else,
// including nil, is Structured.
func FromValue(v any) Input {
	switch x := v.(type) {
	case *Part:
		if x == nil {
			return Structured{}
		}
		return *x
	case Input:
		return x
	case string:
		return Text(x)
	case []byte:
		return Bytes(x)
	default:
		return Structured{Value: v}
	}
}

// AddOption adjusts how a single input is normalized.
type AddOption func(*addConfig)

type addConfig struct {
	contentType string
	identifier  string
	headers     []Header
}

func newAddConfig(opts []AddOption) addConfig {
	var ac addConfig
	for _, opt := range opts {
		opt(&ac)
	}
	return ac
}

// WithContentType declares the content type, bypassing inference.
func WithContentType(contentType string) AddOption {
	return func(ac *addConfig) { ac.contentType = contentType }
}

// WithIdentifier sets the part's identifier (its MIME filename).
func WithIdentifier(id string) AddOption {
	return func(ac *addConfig) { ac.identifier = id }
}

// WithHeaders appends extra MIME headers. A Content-Type header acts as a
// declared type and a Content-Disposition filename as the identifier when
// those are not given explicitly.
func WithHeaders(headers ...Header) AddOption {
	return func(ac *addConfig) { ac.headers = append(ac.headers, headers...) }
}

// WithHeader appends a single extra MIME header.
func WithHeader(name, value string) AddOption {
	return WithHeaders(Header{Name: name, Value: value})
}

func normalize(in Input, defaultType string, ac addConfig) (Part, error) {
	headers, declared, hint := splitHeaders(ac.headers)
	if ac.contentType != "" {
		declared = ac.contentType
	}
	identifier := firstNonEmpty(ac.identifier, hint)

	switch x := in.(type) {
	case Part:
		return normalizePart(x, declared, identifier, headers, defaultType)
	case *Part:
		if x == nil {
			return Part{}, fmt.Errorf("%w: nil part", ErrInvalidContent)
		}
		return normalizePart(*x, declared, identifier, headers, defaultType)
	case Structured:
		body, err := MarshalYAML(x.Value)
		if err != nil {
			return Part{}, err
		}
		contentType := firstNonEmpty(declared, TypeCloudConfig)
		p := Part{content: body, contentType: contentType, identifier: identifier, headers: headers}
		p.directive, p.lineEnd = canonicalDirective(p)
		return p, validate(p)
	case Text:
		return fromContent([]byte(x), declared, identifier, headers, defaultType)
	case Bytes:
		return fromContent(bytes.Clone(x), declared, identifier, headers, defaultType)
	case Template:
		if x.render == nil {
			return Part{}, fmt.Errorf("%w: empty template", ErrInvalidContent)
		}
		text, err := x.render()
		if err != nil {
			return Part{}, err
		}
		return fromContent([]byte(text), declared, identifier, headers, defaultType)
	case nil:
		return Part{}, fmt.Errorf("%w: nil input", ErrInvalidContent)
	default:
		return Part{}, fmt.Errorf("%w: unsupported input %T", ErrInvalidContent, in)
	}
}

func fromContent(content []byte, declared, identifier string, headers []Header, defaultType string) (Part, error) {
	inf, err := Infer(content, declared, defaultType)
	if err != nil {
		return Part{}, err
	}
	p := Part{
		content:     inf.Body,
		contentType: inf.ContentType,
		identifier:  firstNonEmpty(identifier, inf.Filename),
		directive:   inf.Directive,
		lineEnd:     inf.lineEnd,
		headers:     append(headers, inf.Headers...),
	}
	if p.directive == "" {
		p.directive, p.lineEnd = canonicalDirective(p)
	}
	return p, validate(p)
}

// normalizePart passes an already typed part through, applying overrides.
// A part without a content type (the zero Part) is inferred from scratch.
func normalizePart(p Part, declared, identifier string, headers []Header, defaultType string) (Part, error) {
	if p.contentType == "" || (declared != "" && declared != p.contentType) {
		raw, _ := p.Raw()
		return fromContent(raw, declared, firstNonEmpty(identifier, p.identifier), append(p.Headers(), headers...), defaultType)
	}
	p.content = bytes.Clone(p.content)
	p.headers = append(p.Headers(), headers...)
	if identifier != "" {
		p.identifier = identifier
	}
	return p, validate(p)
}

// canonicalDirective returns the directive line to put in front of the
// content when the part is rendered bare, or "" when none is needed or
// possible.
func canonicalDirective(p Part) (line, eol string) {
	if p.selfIdentifying() {
		return "", ""
	}
	pt, ok := LookupContentType(p.contentType)
	if !ok || len(pt.Directives) == 0 || pt.Shebang() {
		return "", ""
	}
	return pt.Directives[0], "\n"
}

// headerName matches an RFC 5322 field name.
var headerName = regexp.MustCompile("^[A-Za-z0-9!#$%&'*+.^_`|~-]+$")

func validate(p Part) error {
	if strings.ContainsAny(p.contentType, "\r\n") {
		return fmt.Errorf("%w: line break in content type %q", ErrInvalidContent, p.contentType)
	}
	for _, h := range p.headers {
		if !headerName.MatchString(h.Name) {
			return fmt.Errorf("%w: invalid header name %q", ErrInvalidContent, h.Name)
		}
		if strings.ContainsAny(h.Value, "\r\n") {
			return fmt.Errorf("%w: line break in %s header", ErrInvalidContent, h.Name)
		}
	}

	pt, ok := LookupContentType(p.contentType)
	if ok && pt.Script() && !bytes.HasPrefix(p.content, []byte(shebang)) {
		return fmt.Errorf("%w: %s requires a %q interpreter line", ErrInvalidContent, p.contentType, shebang)
	}
	return nil
}

// splitHeaders separates the headers the renderer owns from the extra
// ones, returning any declared type and filename found among them.
func splitHeaders(in []Header) (extra []Header, contentType, filename string) {
	for _, h := range in {
		switch strings.ToLower(h.Name) {
		case "content-type":
			contentType = h.Value
		case "mime-version":
		case "content-disposition":
			if _, params, err := mime.ParseMediaType(h.Value); err == nil {
				filename = params["filename"]
			}
		default:
			extra = append(extra, h)
		}
	}
	return extra, contentType, filename
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
