package userdata

import (
	"io"
	"log/slog"
)

// NewForTesting returns a document that renders reproducibly: a fixed
// boundary generator, no size limit and a discarding logger. Options
// given override these settings.
func NewForTesting(opts ...Option) *Document {
	base := []Option{
		WithBoundary(SequentialBoundary),
		WithMaxBytes(0),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(append(base, opts...)...)
}
