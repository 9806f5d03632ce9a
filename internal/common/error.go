// Package common defines shared sentinel errors used across the vault,
// ingestion, and classifier layers of PhotoVault. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrorNotFound = errors.New("not found")

	// Key custody errors. Fatal for any encryption or decryption
	// attempted afterward; there is no fallback key.
	ErrKeyStore = errors.New("key store failure")

	// Ciphertext errors, surfaced per item.
	ErrAuthentication = errors.New("authentication failure")
	ErrMalformedBlob  = errors.New("malformed blob")

	// Classifier errors abort the whole ingestion batch before any
	// vault mutation.
	ErrClassifier = errors.New("classifier failure")

	// Collection protection errors.
	ErrInvalidPassword = errors.New("invalid password")
	ErrLocked          = errors.New("collection is locked")

	// Unlock token lifecycle errors.
	ErrInvalidToken = errors.New("invalid unlock token")
)
