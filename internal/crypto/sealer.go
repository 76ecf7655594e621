// Package crypto seals small values, such as session credentials, so they can
// travel through an untrusted medium like a browser cookie.
//
// Sealing uses AES-256-GCM, which gives both confidentiality and integrity.
// Every call uses a fresh random nonce, so sealing the same value twice yields
// different output. The output is URL-safe base64 without padding and can be
// placed in a cookie value as-is.
//
// Example usage:
//
//	sealer, err := crypto.NewSealer(os.Getenv("SESSION_SECRET"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sealed, err := sealer.Seal("access-token")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	token, err := sealer.Open(sealed)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"shorts-web/internal/common/errors"
)

const (
	keyDerivationSalt       = "shorts-web-session"
	keyDerivationIterations = 10000
	keyLength               = 32
)

// Sealer encrypts and authenticates values with a key derived from a secret.
//
// The sealer is safe for concurrent use by multiple goroutines.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 32-byte AES-256 key from secret using PBKDF2, so the
// secret may be any non-empty passphrase.
//
// Parameters:
//   - secret: The sealing secret. Must not be empty.
//
// Returns:
//   - *Sealer: A new sealer instance
//   - error: A validation error if the secret is empty
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.ValidationError("sealing secret cannot be empty")
	}

	key := pbkdf2.Key([]byte(secret), []byte(keyDerivationSalt), keyDerivationIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.InternalError("failed to create cipher", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.InternalError("failed to create GCM", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext and returns nonce+ciphertext encoded as URL-safe
// base64. Empty input seals to an empty string.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.InternalError("failed to create nonce", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Tampered values, values sealed with another secret and
// malformed input all fail.
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.ValidationError("sealed value is not valid base64")
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.ValidationError("sealed value too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.ValidationError("sealed value failed authentication")
	}

	return string(plaintext), nil
}

// SealJSON marshals v to JSON and seals the result.
func (s *Sealer) SealJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.InternalError("failed to marshal JSON", err)
	}
	return s.Seal(string(data))
}

// OpenJSON opens a value produced by SealJSON into dest.
func (s *Sealer) OpenJSON(sealed string, dest interface{}) error {
	plaintext, err := s.Open(sealed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plaintext), dest); err != nil {
		return errors.ValidationError("sealed value is not valid JSON")
	}
	return nil
}
