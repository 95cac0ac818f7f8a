package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealer encrypts tokens before they reach Redis, so a leaked dump of
// the session store exposes no usable credentials.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a ChaCha20-Poly1305 key from the configured key
// string. Any non-empty string works; the SHA-256 digest fixes the
// key length.
func NewSealer(key string) (*Sealer, error) {
	if key == "" {
		return nil, fmt.Errorf("session encryption key is empty")
	}

	sum := sha256.Sum256([]byte(key))
	aead, err := chacha20poly1305.New(sum[:])
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext and returns a URL-safe string carrying
// nonce and ciphertext.
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed value: %w", err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", fmt.Errorf("sealed value too short")
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt sealed value: %w", err)
	}
	return string(plaintext), nil
}
