package userdata

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// Inference is the outcome of content type detection for one part.
type Inference struct {
	ContentType string
	// Filename is the identifier hint taken from an embedded
	// Content-Disposition header, if any.
	Filename string
	// Directive is the header line removed from Body, if any. Shebang lines
	// are never removed.
	Directive string
	// lineEnd is the terminator that followed Directive in the input:
	// "\n", "\r\n" or "" at end of input.
	lineEnd string
	// Headers holds the extra headers of an embedded MIME header block.
	Headers []Header
	Body    []byte
}

// headerLine matches an RFC 5322 field name followed by a colon.
var headerLine = regexp.MustCompile("^[A-Za-z0-9!#$%&'*+.^_`|~-]+:")

// Infer determines the content type of content. An explicit declared type
// always wins; then an embedded MIME header block; then a '#' directive on
// the first line; then defaultType. Binary (non UTF-8) content without a
// declared type is sniffed instead of falling back to defaultType.
func Infer(content []byte, declared, defaultType string) (Inference, error) {
	if declared != "" {
		inf := Inference{ContentType: declared, Body: content}
		// A directive matching the declared type is split off like an inferred one.
		if pt, line, eol, rest, ok := splitDirective(content); ok && !pt.Shebang() && pt.ContentType == mediaType(declared) {
			inf.Directive, inf.lineEnd, inf.Body = line, eol, rest
		}
		return inf, nil
	}

	if inf, ok := parseHeaderBlock(content); ok {
		return inf, nil
	}

	if pt, line, eol, rest, ok := splitDirective(content); ok {
		if pt.Shebang() {
			return Inference{ContentType: pt.ContentType, Body: content}, nil
		}
		return Inference{ContentType: pt.ContentType, Directive: line, lineEnd: eol, Body: rest}, nil
	}

	if !utf8.Valid(content) {
		return Inference{ContentType: mimetype.Detect(content).String(), Body: content}, nil
	}

	if defaultType == "" {
		first, _, _ := bytes.Cut(content, []byte("\n"))
		return Inference{}, fmt.Errorf("%w: first line %q is not a known directive or MIME header", ErrTypeInference, truncate(string(first), 60))
	}
	return Inference{ContentType: defaultType, Body: content}, nil
}

// splitDirective matches the first line of content against the directive
// table and returns it, its line terminator and the remaining content.
// line+eol+rest is always content.
func splitDirective(content []byte) (pt PartType, line, eol string, rest []byte, ok bool) {
	first, rest, hasNewline := bytes.Cut(content, []byte("\n"))
	line = string(first)
	switch {
	case !hasNewline:
		rest = nil
	case strings.HasSuffix(line, "\r"):
		line, eol = line[:len(line)-1], "\r\n"
	default:
		eol = "\n"
	}
	if !strings.HasPrefix(line, "#") {
		return PartType{}, "", "", nil, false
	}
	if pt, ok = LookupDirective(line); !ok {
		return PartType{}, "", "", nil, false
	}
	return pt, line, eol, rest, true
}

// parseHeaderBlock reads a leading "Key: value" block terminated by a blank
// line. The block only counts when it declares a Content-Type.
func parseHeaderBlock(content []byte) (Inference, bool) {
	if !headerLine.Match(content) {
		return Inference{}, false
	}

	var (
		headers []Header
		offset  int
	)
	for {
		if offset >= len(content) {
			// No blank line terminates the block.
			return Inference{}, false
		}
		end := bytes.IndexByte(content[offset:], '\n')
		var raw []byte
		if end < 0 {
			raw = content[offset:]
			offset = len(content)
		} else {
			raw = content[offset : offset+end]
			offset += end + 1
		}
		line := strings.TrimRight(string(raw), "\r")
		if line == "" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(headers) == 0 {
				return Inference{}, false
			}
			headers[len(headers)-1].Value += " " + strings.TrimSpace(line)
			continue
		}
		if !headerLine.MatchString(line) {
			return Inference{}, false
		}
		name, value, _ := strings.Cut(line, ":")
		headers = append(headers, Header{Name: name, Value: strings.TrimSpace(value)})
	}

	inf := Inference{Body: content[offset:]}
	var encoding string
	for _, h := range headers {
		switch strings.ToLower(h.Name) {
		case "content-type":
			inf.ContentType = h.Value
		case "mime-version":
		case "content-disposition":
			if _, params, err := mime.ParseMediaType(h.Value); err == nil {
				inf.Filename = params["filename"]
			}
		case "content-transfer-encoding":
			encoding = strings.ToLower(h.Value)
		default:
			inf.Headers = append(inf.Headers, h)
		}
	}
	if inf.ContentType == "" {
		return Inference{}, false
	}

	switch encoding {
	case "base64":
		if decoded, err := decodeBase64(inf.Body); err == nil {
			inf.Body = decoded
		}
	case "quoted-printable":
		if decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(inf.Body))); err == nil {
			inf.Body = decoded
		}
	}
	return inf, true
}

func decodeBase64(b []byte) ([]byte, error) {
	compact := bytes.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', ' ', '\t':
			return -1
		}
		return r
	}, b)
	return base64.StdEncoding.DecodeString(string(compact))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
