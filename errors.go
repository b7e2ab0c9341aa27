package userdata

import "errors"

// ErrTypeInference is returned when a part's content type cannot be
// determined and no default content type is configured.
var ErrTypeInference = errors.New("cannot infer content type")

// ErrSerialization is returned when a structured value cannot be rendered as YAML.
var ErrSerialization = errors.New("structured value is not serializable")

// ErrEmptyDocument is returned when rendering a document with no parts.
var ErrEmptyDocument = errors.New("document has no parts")

// ErrDocumentTooLarge is returned when the rendered payload, compressed or
// not, exceeds the configured ceiling.
var ErrDocumentTooLarge = errors.New("document exceeds size limit")

// ErrEncodingConflict is returned when text output is requested for a
// payload that had to be gzip compressed.
var ErrEncodingConflict = errors.New("compressed payload cannot be rendered as text")

// ErrInvalidContent is returned for input that cannot form a valid part,
// such as a script without an interpreter line, and for undecodable
// user-data.
var ErrInvalidContent = errors.New("invalid part content")

// ErrDuplicateIdentifier is returned when a part's identifier is already
// taken in the document.
var ErrDuplicateIdentifier = errors.New("duplicate part identifier")

// ErrBoundaryCollision is returned when no generated boundary is absent
// from every part.
var ErrBoundaryCollision = errors.New("multipart boundary occurs in part content")

// ErrInvalidBoundary is returned for a boundary RFC 2046 does not allow.
var ErrInvalidBoundary = errors.New("invalid multipart boundary")

// ErrRawDocument is returned when adding parts to a document created by
// NewRawDocument.
var ErrRawDocument = errors.New("cannot add parts to a raw document")

// ErrInvalidOption is returned for an unknown target, compression mode,
// format or gzip level.
var ErrInvalidOption = errors.New("invalid option")
