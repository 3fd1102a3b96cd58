package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
)

// ErrBadPublicKey is returned by ParsePublicKey for malformed keys.
var ErrBadPublicKey = errors.New("discord: public key must be 32 hex-encoded bytes")

// ParsePublicKey decodes the application's hex encoded Ed25519 key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != ed25519.PublicKeySize {
		return nil, ErrBadPublicKey
	}
	return ed25519.PublicKey(b), nil
}

// Verify checks the X-Signature-Ed25519 signature Discord computes over
// timestamp followed by the raw request body.
func Verify(key ed25519.PublicKey, signatureHex, timestamp string, body []byte) bool {
	if len(key) != ed25519.PublicKeySize || signatureHex == "" || timestamp == "" {
		return false
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(key, msg, sig)
}
