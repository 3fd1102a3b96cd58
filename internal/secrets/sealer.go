// Package secrets seals GitHub access tokens at rest with AES-256-GCM.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed is returned when a sealed value cannot be decoded or opened.
var ErrMalformed = errors.New("secrets: malformed ciphertext")

// Sealer encrypts and decrypts short secrets. The AES key is the SHA-256 of
// the configured passphrase; the 12-byte nonce is prepended to the
// ciphertext and the result is hex encoded.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives an AES-256-GCM cipher from key.
func NewSealer(key string) (*Sealer, error) {
	if key == "" {
		return nil, errors.New("secrets: empty key")
	}
	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &Sealer{aead: gcm}, nil
}

// Seal encrypts plaintext.
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	return hex.EncodeToString(s.aead.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := hex.DecodeString(sealed)
	if err != nil {
		return "", ErrMalformed
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns+s.aead.Overhead() {
		return "", ErrMalformed
	}
	out, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrMalformed
	}
	return string(out), nil
}
