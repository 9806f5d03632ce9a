// Package cipherbox implements the authenticated-encryption primitive used
// for every stored item blob: AES-256-GCM with a fresh random nonce per
// seal. Blobs are self-describing (nonce ‖ ciphertext ‖ tag), so opening
// needs only the key.
package cipherbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/common"
)

// Seal encrypts plaintext under key and returns one blob containing the
// random nonce, the ciphertext, and the authentication tag.
//
// The nonce comes from crypto/rand rather than a counter so no nonce state
// has to survive process restarts; collisions under the same key are
// cryptographically negligible.
func Seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+aesgcm.Overhead())
	out = append(out, nonce...)
	out = append(out, aesgcm.Seal(nil, nonce, plaintext, nil)...)
	return out, nil
}

// Open decrypts a blob produced by Seal.
//
// Returns common.ErrMalformedBlob when the blob is shorter than the
// minimum nonce+tag length and common.ErrAuthentication when the tag does
// not verify (tampered, truncated, or foreign-key data).
func Open(blob, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	if len(blob) < aesgcm.NonceSize()+aesgcm.Overhead() {
		return nil, fmt.Errorf("%w: %d bytes", common.ErrMalformedBlob, len(blob))
	}

	nonce := blob[:aesgcm.NonceSize()]
	ct := blob[aesgcm.NonceSize():]

	plaintext, err := aesgcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, common.ErrAuthentication
	}
	return plaintext, nil
}
