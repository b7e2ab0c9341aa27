package userdata

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// BoundaryGenerator proposes a multipart boundary for the given attempt
// number (0, 1, 2, ...). The renderer keeps asking until it gets a token
// that occurs in no rendered part.
type BoundaryGenerator func(attempt int) string

// maxBoundaryAttempts bounds the search for a non-colliding boundary.
const maxBoundaryAttempts = 1 << 16

// SequentialBoundary yields "::0::", "::1::", ... The first free token is
// a pure function of the content, so identical documents render to
// identical bytes.
func SequentialBoundary(attempt int) string {
	return "::" + strconv.Itoa(attempt) + "::"
}

// RandomBoundary yields a fresh random token on every call.
func RandomBoundary(int) string {
	return "==" + strings.ReplaceAll(uuid.NewString(), "-", "") + "=="
}

// FixedBoundary always proposes b. Rendering fails with
// ErrBoundaryCollision if b occurs in a part.
func FixedBoundary(b string) BoundaryGenerator {
	return func(int) string { return b }
}

// boundaryChars are the characters RFC 2046 allows in a boundary.
const boundaryChars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ'()+_,-./:=? "

func validBoundary(b string) error {
	if len(b) == 0 || len(b) > 70 {
		return fmt.Errorf("%w: length %d not in 1..70", ErrInvalidBoundary, len(b))
	}
	if strings.HasSuffix(b, " ") {
		return fmt.Errorf("%w: %q ends with a space", ErrInvalidBoundary, b)
	}
	for _, r := range b {
		if !strings.ContainsRune(boundaryChars, r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidBoundary, b, r)
		}
	}
	return nil
}

// chooseBoundary returns the first generated boundary that does not occur
// in any of the parts.
func chooseBoundary(gen BoundaryGenerator, parts [][]byte) (string, error) {
	if gen == nil {
		gen = SequentialBoundary
	}
	var previous string
	for attempt := 0; attempt < maxBoundaryAttempts; attempt++ {
		b := gen(attempt)
		if err := validBoundary(b); err != nil {
			return "", err
		}
		if attempt > 0 && b == previous {
			return "", fmt.Errorf("%w: %q", ErrBoundaryCollision, b)
		}
		previous = b
		if !collides(b, parts) {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: no free boundary after %d attempts", ErrBoundaryCollision, maxBoundaryAttempts)
}

func collides(b string, parts [][]byte) bool {
	for _, part := range parts {
		if bytes.Contains(part, []byte(b)) {
			return true
		}
	}
	return false
}
