// Package cryptox seals small secrets (the remote access token) under a key
// derived from a user passphrase.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the random salt fed to Argon2id.
const SaltSize = 16

// ErrDecrypt is returned when a ciphertext cannot be opened, which in
// practice means a wrong passphrase or tampered data.
var ErrDecrypt = errors.New("decryption failed")

// DeriveKey stretches passphrase into a 32-byte AES-256 key with Argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// Seal encrypts plaintext with AES-GCM.
//
// The key must be a valid AES key length (16, 24, or 32 bytes). A new random
// nonce is generated for each call; ciphertext and nonce are returned
// separately and both are needed by Open.
func Seal(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = common.GenerateRandByteArray(aead.NonceSize())
	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Open is the inverse of Seal. Authentication failures are reported as
// ErrDecrypt.
func Open(ciphertext, nonce, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrDecrypt
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
