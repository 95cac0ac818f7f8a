package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// GenerateVerifier returns a URL-safe PKCE code verifier with 256 bits
// of entropy.
func GenerateVerifier() (string, error) {
	return randomToken(32)
}

// Challenge derives the S256 code challenge for a verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState returns the opaque state parameter binding the
// authorization redirect to its callback.
func GenerateState() (string, error) {
	return randomToken(32)
}

// GenerateSessionID returns an opaque 256-bit session identifier.
func GenerateSessionID() (string, error) {
	return randomToken(32)
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
