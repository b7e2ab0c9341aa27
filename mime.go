package userdata

import (
	"bytes"
	"encoding/base64"
	"mime"
	"strings"
	"unicode/utf8"
)

// RenderOption adjusts a single RenderMIME call.
type RenderOption func(*renderConfig)

type renderConfig struct {
	forceMIME bool
}

// WithForceMIME wraps a single-part document in MIME headers even when
// the bare part identifies itself.
func WithForceMIME() RenderOption {
	return func(rc *renderConfig) { rc.forceMIME = true }
}

// RenderMIME assembles the document. One part is emitted bare (directive
// line plus content), or as a single MIME entity when its content does not
// identify its type; more parts become a multipart/mixed message with parts
// in insertion order.
func (d *Document) RenderMIME(opts ...RenderOption) (string, error) {
	b, err := d.renderMIME(opts...)
	return string(b), err
}

func (d *Document) renderMIME(opts ...RenderOption) ([]byte, error) {
	var rc renderConfig
	for _, opt := range opts {
		opt(&rc)
	}

	if d.raw != nil {
		return bytes.Clone(d.raw), nil
	}

	switch len(d.parts) {
	case 0:
		return nil, ErrEmptyDocument
	case 1:
		p := d.parts[0]
		raw, ok := p.Raw()
		if ok && !rc.forceMIME {
			d.log.Debug("Rendered single part", "identifier", p.identifier, "size", len(raw))
			return raw, nil
		}
		var buf bytes.Buffer
		writePartHeaders(&buf, p, raw)
		writeBody(&buf, raw)
		d.log.Debug("Rendered single MIME entity", "identifier", p.identifier, "size", buf.Len())
		return buf.Bytes(), nil
	}

	entities := make([][]byte, len(d.parts))
	for i, p := range d.parts {
		raw, _ := p.Raw()
		var entity bytes.Buffer
		writePartHeaders(&entity, p, raw)
		writeBody(&entity, raw)
		entities[i] = entity.Bytes()
	}
	// The boundary must not occur anywhere in a part, headers included.
	boundary, err := chooseBoundary(d.cfg.Boundary, entities)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writeHeader(&buf, "Content-Type", `multipart/mixed; boundary="`+boundary+`"`)
	writeHeader(&buf, "MIME-Version", "1.0")
	buf.WriteByte('\n')
	for _, entity := range entities {
		buf.WriteString("--" + boundary + "\n")
		buf.Write(entity)
		buf.WriteByte('\n')
	}
	buf.WriteString("--" + boundary + "--\n")

	d.log.Debug("Rendered multipart document", "parts", len(d.parts), "boundary", boundary, "size", buf.Len())
	return buf.Bytes(), nil
}

func writePartHeaders(buf *bytes.Buffer, p Part, body []byte) {
	writeHeader(buf, "Content-Type", p.contentType)
	writeHeader(buf, "MIME-Version", "1.0")
	writeHeader(buf, "Content-Disposition", "attachment; "+filenameParam(p.identifier))
	if !utf8.Valid(body) {
		writeHeader(buf, "Content-Transfer-Encoding", "base64")
	}
	for _, h := range p.headers {
		writeHeader(buf, h.Name, h.Value)
	}
	buf.WriteByte('\n')
}

// writeBody writes body as is, or base64 in 76 column lines when it is not
// valid UTF-8.
func writeBody(buf *bytes.Buffer, body []byte) {
	if utf8.Valid(body) {
		buf.Write(body)
		return
	}
	enc := base64.StdEncoding.EncodeToString(body)
	for len(enc) > 76 {
		buf.WriteString(enc[:76])
		buf.WriteByte('\n')
		enc = enc[76:]
	}
	buf.WriteString(enc)
}

// filenameParam quotes the filename parameter. Non ASCII names use the
// RFC 2231 extended form.
func filenameParam(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7e {
			mt := mime.FormatMediaType("attachment", map[string]string{"filename": name})
			if _, param, ok := strings.Cut(mt, "; "); ok {
				return param
			}
			break
		}
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `filename="` + r.Replace(name) + `"`
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteByte('\n')
}
