package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// DeletionTokenBytes is the amount of raw randomness behind each
// deletion token: 32 bytes = 256 bits.
const DeletionTokenBytes = 32

// GenerateDeletionToken returns an opaque, URL-safe token backed by 256
// bits of cryptographically secure randomness. The encoded form is used
// directly as the token record's primary key.
func GenerateDeletionToken() (string, error) {
	raw := make([]byte, DeletionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
