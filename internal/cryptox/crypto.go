// Package cryptox seals small values (the stored session) with AES-GCM under
// a key derived from an operator-supplied secret.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
)

// ErrMalformed is returned when a sealed value is shorter than a nonce or
// fails authentication.
var ErrMalformed = errors.New("malformed sealed value")

const (
	keyLen   = 32
	saltSize = 16
)

// DeriveKey stretches secret into an AES-256 key with argon2id.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, keyLen)
}

// NewSalt returns fresh random salt for DeriveKey.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Sealer encrypts and decrypts values. The nonce is prepended to the
// ciphertext, so a sealed value is self-contained.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext; aad binds the result to a context such as the
// storage key so values cannot be swapped between keys.
func (s *Sealer) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, aad), nil
}

func (s *Sealer) Open(sealed, aad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrMalformed
	}
	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], aad)
	if err != nil {
		return nil, ErrMalformed
	}
	return plaintext, nil
}
