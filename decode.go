package userdata

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Decoded describes user-data read back by Inspect.
type Decoded struct {
	Parts []Part
	// Base64 and Compressed report the outer encodings that were removed.
	Base64     bool
	Compressed bool
	// Multipart is false for a bare single-part document.
	Multipart bool
	Boundary  string
	// RawSize is the size of the MIME document after decoding.
	RawSize int
}

// Decode parses rendered user-data back into parts. It accepts text,
// gzip and base64 of either.
func Decode(data []byte) ([]Part, error) {
	d, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	return d.Parts, nil
}

var base64Text = regexp.MustCompile(`^[A-Za-z0-9+/\r\n]+={0,2}\s*$`)

var gzipMagic = []byte{0x1f, 0x8b}

// maxInflatedBytes caps gzip decompression in Inspect. A DefaultMaxBytes
// payload at the best deflate ratio (about 1000:1) stays below it.
var maxInflatedBytes = 16 << 20

// Inspect is like Decode but also reports the encodings it removed.
// Parts without a type fall back to text/plain. Gzip input that inflates
// past 16 MiB fails with ErrDocumentTooLarge.
func Inspect(data []byte) (Decoded, error) {
	var out Decoded

	if !bytes.HasPrefix(data, gzipMagic) && base64Text.Match(data) {
		if decoded, err := decodeBase64(data); err == nil && looksLikeUserData(decoded) {
			data, out.Base64 = decoded, true
		}
	}
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return Decoded{}, fmt.Errorf("%w: gzip: %v", ErrInvalidContent, err)
		}
		plain, err := io.ReadAll(io.LimitReader(zr, int64(maxInflatedBytes)+1))
		if err != nil {
			return Decoded{}, fmt.Errorf("%w: gzip: %v", ErrInvalidContent, err)
		}
		if len(plain) > maxInflatedBytes {
			return Decoded{}, fmt.Errorf("%w: gzip payload inflates past %d bytes", ErrDocumentTooLarge, maxInflatedBytes)
		}
		data, out.Compressed = plain, true
	}
	out.RawSize = len(data)

	doc := New(WithDefaultContentType(TypePlain), WithMaxBytes(0))
	if inf, ok := parseHeaderBlock(data); ok && strings.HasPrefix(mediaType(inf.ContentType), "multipart/") {
		boundary, err := decodeMultipart(doc, data)
		if err != nil {
			return Decoded{}, err
		}
		out.Multipart, out.Boundary = true, boundary
	} else if _, err := doc.Add(Bytes(data)); err != nil {
		return Decoded{}, err
	}
	out.Parts = doc.Parts()
	return out, nil
}

// looksLikeUserData reports whether b, decoded from base64, is plausibly
// the payload rather than a text document that happens to be base64-clean.
func looksLikeUserData(b []byte) bool {
	if bytes.HasPrefix(b, gzipMagic) || bytes.HasPrefix(b, []byte("#")) {
		return true
	}
	_, ok := parseHeaderBlock(b)
	return ok
}

func decodeMultipart(doc *Document, data []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	_, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("%w: multipart message without boundary", ErrInvalidContent)
	}

	mr := multipart.NewReader(msg.Body, boundary)
	for {
		part, err := mr.NextRawPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: part %d: %v", ErrInvalidContent, doc.Count()+1, err)
		}
		body, err := io.ReadAll(part)
		if err != nil {
			return "", fmt.Errorf("%w: part %d: %v", ErrInvalidContent, doc.Count()+1, err)
		}
		if strings.EqualFold(part.Header.Get("Content-Transfer-Encoding"), "base64") {
			if body, err = decodeBase64(body); err != nil {
				return "", fmt.Errorf("%w: part %d: %v", ErrInvalidContent, doc.Count()+1, err)
			}
		}

		opts := []AddOption{WithContentType(part.Header.Get("Content-Type"))}
		if name := part.FileName(); name != "" {
			opts = append(opts, WithIdentifier(name))
		}
		opts = append(opts, WithHeaders(extraHeaders(part.Header)...))
		if _, err := doc.Add(Bytes(body), opts...); err != nil {
			return "", err
		}
	}
	return boundary, nil
}

// extraHeaders returns the headers the renderer does not own, sorted by
// name since MIME header maps are unordered.
func extraHeaders(h map[string][]string) []Header {
	names := make([]string, 0, len(h))
	for name := range h {
		switch strings.ToLower(name) {
		case "content-type", "mime-version", "content-disposition", "content-transfer-encoding":
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Header
	for _, name := range names {
		for _, v := range h[name] {
			out = append(out, Header{Name: name, Value: v})
		}
	}
	return out
}
