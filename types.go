package userdata

import (
	"fmt"
	"strings"
)

// Target selects the form of a rendered document.
type Target int

const (
	// TargetText is the uncompressed document as text.
	TargetText Target = iota
	// TargetBytes is the raw or gzip compressed payload.
	TargetBytes
	// TargetBase64 is TargetBytes, base64 encoded.
	TargetBase64
)

// String returns the flag name of a target.
func (t Target) String() string {
	switch t {
	case TargetText:
		return "text"
	case TargetBytes:
		return "bytes"
	case TargetBase64:
		return "base64"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseTarget parses "text", "bytes" (or "binary") and "base64".
func ParseTarget(name string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "text":
		return TargetText, nil
	case "bytes", "binary":
		return TargetBytes, nil
	case "base64":
		return TargetBase64, nil
	default:
		return 0, fmt.Errorf("%w: unknown target %q", ErrInvalidOption, name)
	}
}

// CompressMode controls gzip compression of the rendered payload.
type CompressMode int

const (
	// CompressAuto compresses only when the raw payload exceeds the limit.
	CompressAuto CompressMode = iota
	CompressAlways
	CompressNever
)

// String returns the name accepted by ParseCompressMode.
func (m CompressMode) String() string {
	switch m {
	case CompressAuto:
		return "auto"
	case CompressAlways:
		return "always"
	case CompressNever:
		return "never"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseCompressMode parses "auto", "always" and "never".
func ParseCompressMode(name string) (CompressMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "auto", "":
		return CompressAuto, nil
	case "always":
		return CompressAlways, nil
	case "never":
		return CompressNever, nil
	default:
		return 0, fmt.Errorf("%w: unknown compress mode %q", ErrInvalidOption, name)
	}
}
