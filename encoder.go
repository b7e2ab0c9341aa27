package userdata

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Result is one rendering of a document. It is computed on every call and
// never cached.
type Result struct {
	// Data is the payload in the requested target form.
	Data []byte
	// Compressed reports whether the payload is gzip compressed.
	Compressed bool
	// RawSize is the size of the uncompressed MIME document.
	RawSize int
}

// String returns Data as a string.
func (r Result) String() string { return string(r.Data) }

// Encoder applies compression policy and the size ceiling to a rendered
// document.
type Encoder struct {
	// MaxBytes caps the chosen payload before any base64 encoding. Zero or
	// negative means no limit.
	MaxBytes int
	Compress CompressMode
	Level    int
}

// Encode picks the raw or the gzip form of raw according to e.Compress and
// returns it in the target form. Text output of a compressed payload fails
// with ErrEncodingConflict; a payload over the ceiling with
// ErrDocumentTooLarge.
func (e Encoder) Encode(raw []byte, target Target) (Result, error) {
	res := Result{RawSize: len(raw)}

	var chosen []byte
	switch e.Compress {
	case CompressNever:
		if !e.fits(len(raw)) {
			return Result{}, fmt.Errorf("%w: %d bytes > %d, compression disabled", ErrDocumentTooLarge, len(raw), e.MaxBytes)
		}
		chosen = raw
	case CompressAlways:
		gz, err := gzipBytes(raw, e.Level)
		if err != nil {
			return Result{}, err
		}
		if !e.fits(len(gz)) {
			return Result{}, fmt.Errorf("%w: %d bytes compressed > %d", ErrDocumentTooLarge, len(gz), e.MaxBytes)
		}
		chosen, res.Compressed = gz, true
	case CompressAuto:
		if e.fits(len(raw)) {
			chosen = raw
			break
		}
		gz, err := gzipBytes(raw, e.Level)
		if err != nil {
			return Result{}, err
		}
		if !e.fits(len(gz)) {
			return Result{}, fmt.Errorf("%w: %d bytes raw, %d compressed > %d", ErrDocumentTooLarge, len(raw), len(gz), e.MaxBytes)
		}
		chosen, res.Compressed = gz, true
	default:
		return Result{}, fmt.Errorf("%w: compress mode %v", ErrInvalidOption, e.Compress)
	}

	switch target {
	case TargetText:
		if res.Compressed {
			return Result{}, ErrEncodingConflict
		}
		res.Data = bytes.Clone(chosen)
	case TargetBytes:
		res.Data = bytes.Clone(chosen)
	case TargetBase64:
		res.Data = make([]byte, base64.StdEncoding.EncodedLen(len(chosen)))
		base64.StdEncoding.Encode(res.Data, chosen)
	default:
		return Result{}, fmt.Errorf("%w: target %v", ErrInvalidOption, target)
	}
	return res, nil
}

func (e Encoder) fits(n int) bool {
	return e.MaxBytes <= 0 || n <= e.MaxBytes
}

// gzipBytes compresses b with a zero modification time and no name, so
// equal input gives equal output.
func gzipBytes(b []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip level %d: %v", ErrInvalidOption, level, err)
	}
	zw.ModTime = time.Time{}
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render assembles the document and encodes it for target.
func (d *Document) Render(target Target, opts ...RenderOption) (Result, error) {
	raw, err := d.renderMIME(opts...)
	if err != nil {
		return Result{}, err
	}
	res, err := d.cfg.encoder().Encode(raw, target)
	if err != nil {
		d.log.Debug("Encoding failed", "target", target, "raw_size", len(raw), "max_bytes", d.cfg.MaxBytes, "error", err)
		return Result{}, err
	}
	d.log.Debug("Rendered document",
		"target", target,
		"raw_size", res.RawSize,
		"compressed", res.Compressed,
		"size", len(res.Data))
	return res, nil
}

// RenderText returns the document as text. It fails with
// ErrEncodingConflict when the document only fits compressed.
func (d *Document) RenderText(opts ...RenderOption) (string, error) {
	res, err := d.Render(TargetText, opts...)
	if err != nil {
		return "", err
	}
	return string(res.Data), nil
}

// RenderBytes returns the raw or gzip compressed payload.
func (d *Document) RenderBytes(opts ...RenderOption) ([]byte, error) {
	res, err := d.Render(TargetBytes, opts...)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// RenderBase64 returns the payload base64 encoded, as most cloud APIs
// expect user-data.
func (d *Document) RenderBase64(opts ...RenderOption) (string, error) {
	res, err := d.Render(TargetBase64, opts...)
	if err != nil {
		return "", err
	}
	return string(res.Data), nil
}
