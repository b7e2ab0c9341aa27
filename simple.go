package userdata

// RenderText builds a document from values and renders it as text. Each
// value is added as with Document.AddValue.
func RenderText(values []any, opts ...Option) (string, error) {
	d, err := build(values, opts)
	if err != nil {
		return "", err
	}
	return d.RenderText()
}

// RenderBytes builds a document from values and returns the raw or gzip
// compressed payload.
func RenderBytes(values []any, opts ...Option) ([]byte, error) {
	d, err := build(values, opts)
	if err != nil {
		return nil, err
	}
	return d.RenderBytes()
}

// RenderBase64 builds a document from values and returns it base64
// encoded.
func RenderBase64(values []any, opts ...Option) (string, error) {
	d, err := build(values, opts)
	if err != nil {
		return "", err
	}
	return d.RenderBase64()
}

func build(values []any, opts []Option) (*Document, error) {
	d := New(opts...)
	for _, v := range values {
		if _, err := d.AddValue(v); err != nil {
			return nil, err
		}
	}
	return d, nil
}
