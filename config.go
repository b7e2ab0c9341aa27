package userdata

import (
	"log/slog"

	"github.com/klauspost/compress/gzip"
)

// DefaultMaxBytes is the user-data ceiling enforced by most cloud
// metadata services.
const DefaultMaxBytes = 16384

// Config holds the policy of one document. Documents with different
// policies can coexist; nothing here is global.
type Config struct {
	// DefaultContentType is used when a text part has no directive or
	// header block. Empty means such parts are rejected.
	DefaultContentType string
	// MaxBytes caps the rendered payload before base64 encoding. Zero or
	// negative disables the check.
	MaxBytes int
	Compress CompressMode
	// CompressionLevel is a gzip level; see klauspost/compress/gzip.
	CompressionLevel int
	Boundary         BoundaryGenerator
	Logger           *slog.Logger
}

// Option configures a Document.
type Option func(*Config)

// DefaultConfig returns the settings used by New.
func DefaultConfig() Config {
	return Config{
		MaxBytes:         DefaultMaxBytes,
		Compress:         CompressAuto,
		CompressionLevel: gzip.BestCompression,
		Boundary:         SequentialBoundary,
	}
}

// WithDefaultContentType sets the type of text parts that carry no directive.
func WithDefaultContentType(contentType string) Option {
	return func(c *Config) { c.DefaultContentType = contentType }
}

// WithMaxBytes sets the payload ceiling. Zero or negative disables it.
func WithMaxBytes(n int) Option {
	return func(c *Config) { c.MaxBytes = n }
}

// WithCompress sets when the payload is gzip compressed.
func WithCompress(mode CompressMode) Option {
	return func(c *Config) { c.Compress = mode }
}

// WithCompressionLevel sets the gzip level, gzip.BestCompression by default.
func WithCompressionLevel(level int) Option {
	return func(c *Config) { c.CompressionLevel = level }
}

// WithBoundary sets the multipart boundary generator.
func WithBoundary(gen BoundaryGenerator) Option {
	return func(c *Config) { c.Boundary = gen }
}

// WithLogger sets the logger used for debug events. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) { c.Logger = log }
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c Config) encoder() Encoder {
	return Encoder{MaxBytes: c.MaxBytes, Compress: c.Compress, Level: c.CompressionLevel}
}
