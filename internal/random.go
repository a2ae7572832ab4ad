// Package internal holds small helpers shared by the service that are
// not part of the public surface.
package internal

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"io"
)

const oneTimeTokenBytes = 32

// NewOneTimeToken returns a fresh 256-bit random token encoded as
// unpadded base64url, compact enough for a link parameter.
func NewOneTimeToken() (string, error) {
	raw := make([]byte, oneTimeTokenBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// TokensEqual compares two token strings in constant time. Length
// still leaks, which is acceptable for fixed-size tokens.
func TokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
