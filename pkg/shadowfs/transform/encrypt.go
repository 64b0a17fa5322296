package transform

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// EncryptTransform seals its input with ChaCha20-Poly1305 under a fixed
// 256-bit key, prefixing the ciphertext with a fresh random nonce. Grounded
// on the pack's own use of golang.org/x/crypto (go-git, mutagen both import
// it), applied here to its AEAD subpackage rather than SSH transport.
type EncryptTransform struct {
	base
	aead cipherAEAD
}

// cipherAEAD is the minimal surface EncryptTransform/DecryptTransform need,
// satisfied by chacha20poly1305's cipher.AEAD.
type cipherAEAD interface {
	NonceSize() int
	Overhead() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// NewEncryptTransform constructs an encrypt transform matching globPattern
// ("" matches every path). key must be exactly chacha20poly1305.KeySize
// (32) bytes.
func NewEncryptTransform(name string, enabled bool, globPattern string, key []byte) (*EncryptTransform, error) {
	b, err := newBase(name, enabled, globPattern)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("encrypt %s: %w", name, err)
	}
	return &EncryptTransform{base: b, aead: aead}, nil
}

func (e *EncryptTransform) Apply(_ context.Context, input []byte, _ string, _ Meta) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("encrypt %s: nonce: %w", e.name, err)
	}
	sealed := e.aead.Seal(nil, nonce, input, nil)
	return append(nonce, sealed...), nil
}

// DecryptTransform reverses EncryptTransform, using the matching key.
type DecryptTransform struct {
	base
	aead cipherAEAD
}

// NewDecryptTransform constructs a decrypt transform matching globPattern
// ("" matches every path). key must be exactly chacha20poly1305.KeySize
// (32) bytes and match the key used to encrypt.
func NewDecryptTransform(name string, enabled bool, globPattern string, key []byte) (*DecryptTransform, error) {
	b, err := newBase(name, enabled, globPattern)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", name, err)
	}
	return &DecryptTransform{base: b, aead: aead}, nil
}

func (d *DecryptTransform) Apply(_ context.Context, input []byte, _ string, _ Meta) ([]byte, error) {
	nonceSize := d.aead.NonceSize()
	if len(input) < nonceSize {
		return nil, fmt.Errorf("decrypt %s: input shorter than nonce", d.name)
	}
	nonce, ciphertext := input[:nonceSize], input[nonceSize:]
	plain, err := d.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", d.name, err)
	}
	return plain, nil
}
