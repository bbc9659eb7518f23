package id

import (
	"crypto/rand"
	"fmt"
)

// shareAlphabet omits 0/O, 1/l/I and uppercase so codes survive being read
// aloud or retyped from a screenshot.
const shareAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

const shareCodeLength = 10

// NewShareCode returns an opaque visibility link code. Resolution is an
// equality lookup, so the only requirement is collision resistance, not
// ordering.
func NewShareCode() (string, error) {
	buf := make([]byte, shareCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	out := make([]byte, shareCodeLength)
	for i, b := range buf {
		out[i] = shareAlphabet[int(b)%len(shareAlphabet)]
	}
	return string(out), nil
}
