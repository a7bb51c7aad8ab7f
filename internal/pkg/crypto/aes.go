// Package crypto holds the primitives behind server-side sessions: random
// session ids, the digests used as store keys and optional AES-256-GCM
// sealing of session records.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// KeySize is the size of the AES-256 key in bytes.
	KeySize = 32

	// NonceSize is the size of the GCM nonce in bytes.
	NonceSize = 12
)

var (
	// ErrInvalidKeySize indicates the encryption key is not 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes (256 bits)")

	// ErrInvalidCiphertext indicates a sealed record is too short to be valid.
	ErrInvalidCiphertext = errors.New("invalid ciphertext: too short or malformed")

	// ErrDecryptionFailed indicates the key, the additional data or the record is wrong.
	ErrDecryptionFailed = errors.New("decryption failed: authentication error")
)

// Encryptor seals session records. Each record is bound to additional data
// (the session digest) so a record copied under another key fails to open.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates an Encryptor from a raw 32-byte key.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Encryptor{aead: aead}, nil
}

// NewEncryptorFromHex creates an Encryptor from a 64-character hex key.
func NewEncryptorFromHex(hexKey string) (*Encryptor, error) {
	key, err := ParseHexKey(hexKey)
	if err != nil {
		return nil, err
	}
	return NewEncryptor(key)
}

// Seal encrypts plaintext bound to additionalData.
// The output layout is nonce || ciphertext || tag.
func (e *Encryptor) Seal(plaintext, additionalData []byte) ([]byte, error) {
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+e.aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return e.aead.Seal(out, out[:NonceSize], plaintext, additionalData), nil
}

// Open reverses Seal. additionalData must match the value given to Seal.
func (e *Encryptor) Open(sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) < NonceSize+e.aead.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	nonce, body := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, body, additionalData)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
