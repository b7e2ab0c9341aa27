package userdata

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
)

// Document is an ordered, append-only collection of parts plus the policy
// used to render them. A Document is not safe for concurrent mutation;
// rendering never mutates it.
type Document struct {
	cfg   Config
	parts []Part
	ids   map[string]struct{}
	// raw holds pre-rendered user-data for documents built with
	// NewRawDocument. Such documents have no parts.
	raw []byte
	log *slog.Logger
}

// New returns an empty document configured by opts.
func New(opts ...Option) *Document {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Boundary == nil {
		cfg.Boundary = SequentialBoundary
	}
	return &Document{
		cfg: cfg,
		ids: make(map[string]struct{}),
		log: cfg.logger(),
	}
}

// NewRawDocument wraps user-data that was produced elsewhere. It renders
// to data verbatim (subject to compression and the size ceiling) and
// rejects Add.
func NewRawDocument(data []byte, opts ...Option) *Document {
	d := New(opts...)
	d.raw = bytes.Clone(data)
	if d.raw == nil {
		d.raw = []byte{}
	}
	return d
}

// Config returns the document's settings.
func (d *Document) Config() Config { return d.cfg }

// Add normalizes in and appends it. On error the document is unchanged.
func (d *Document) Add(in Input, opts ...AddOption) (Part, error) {
	if d.raw != nil {
		return Part{}, ErrRawDocument
	}
	p, err := normalize(in, d.cfg.DefaultContentType, newAddConfig(opts))
	if err != nil {
		d.log.Debug("Part rejected", "index", len(d.parts), "error", err)
		return Part{}, err
	}
	if p.identifier == "" {
		p.identifier = d.nextIdentifier()
	}
	if _, dup := d.ids[p.identifier]; dup {
		d.log.Debug("Part rejected", "index", len(d.parts), "identifier", p.identifier, "error", ErrDuplicateIdentifier)
		return Part{}, fmt.Errorf("%w: %q", ErrDuplicateIdentifier, p.identifier)
	}

	d.ids[p.identifier] = struct{}{}
	d.parts = append(d.parts, p)
	d.log.Debug("Part added",
		"identifier", p.identifier,
		"content_type", p.contentType,
		"directive", p.directive,
		"size", len(p.content),
		"count", len(d.parts))
	return p, nil
}

// AddValue adds any Go value; see FromValue for how values map to inputs.
func (d *Document) AddValue(v any, opts ...AddOption) (Part, error) {
	return d.Add(FromValue(v), opts...)
}

// MustAdd is like Add but panics on error. Intended for static documents
// built at init time.
func (d *Document) MustAdd(in Input, opts ...AddOption) Part {
	p, err := d.Add(in, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Parts returns a copy of the parts in insertion order.
func (d *Document) Parts() []Part {
	out := make([]Part, len(d.parts))
	copy(out, d.parts)
	return out
}

// Count returns the number of parts added so far.
func (d *Document) Count() int { return len(d.parts) }

// Raw reports whether the document wraps pre-rendered user-data.
func (d *Document) Raw() bool { return d.raw != nil }

// Clone returns an independent copy. Parts are values, so only the slice
// and the identifier set are copied.
func (d *Document) Clone() *Document {
	c := &Document{
		cfg:   d.cfg,
		parts: append([]Part(nil), d.parts...),
		ids:   make(map[string]struct{}, len(d.ids)),
		log:   d.log,
	}
	if d.raw != nil {
		c.raw = bytes.Clone(d.raw)
	}
	for id := range d.ids {
		c.ids[id] = struct{}{}
	}
	return c
}

// nextIdentifier returns "partN" for the lowest N >= Count()+1 not taken
// by an explicit identifier.
func (d *Document) nextIdentifier() string {
	for n := len(d.parts) + 1; ; n++ {
		id := "part" + strconv.Itoa(n)
		if _, taken := d.ids[id]; !taken {
			return id
		}
	}
}
