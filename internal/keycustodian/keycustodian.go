// Package keycustodian owns the single master symmetric key protecting all
// encrypted item blobs. The key lives in a platform-backed secret store
// (OS keychain, secret-service, or an encrypted file on headless hosts)
// and is handed out only for the duration of a seal or open call.
package keycustodian

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"

	"github.com/dmitrijs2005/photovault/internal/common"
)

const (
	// masterKeyID is the fixed, installation-scoped identifier the key is
	// stored under.
	masterKeyID = "masterEncryptionKey"

	// KeySize is the master key length in bytes (256-bit AES).
	KeySize = 32
)

// KeyCustodian creates the master key once and retrieves it on demand.
// A process mutex serializes first-use creation so concurrent callers can
// never race two generated keys into the store.
type KeyCustodian struct {
	mu   sync.Mutex
	ring keyring.Keyring
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring) *KeyCustodian {
	return &KeyCustodian{ring: ring}
}

// Open opens the platform secret store under the given service name and
// returns a custodian over it. fileDir, when non-empty, enables the
// encrypted-file backend as a fallback for hosts without a keychain; the
// file is protected by the passphrase returned from filePassword.
func Open(service, fileDir string, filePassword keyring.PromptFunc) (*KeyCustodian, error) {
	cfg := keyring.Config{
		ServiceName: service,
	}
	if fileDir != "" {
		cfg.FileDir = fileDir
		cfg.FilePasswordFunc = filePassword
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: open secret store: %v", common.ErrKeyStore, err)
	}
	return New(ring), nil
}

// GetOrCreate returns the master key, generating and persisting a fresh
// 256-bit key on the first call in the life of an installation.
//
// Any store failure, including a corrupt entry of the wrong length, is
// reported as common.ErrKeyStore. There is deliberately no fallback to an
// ephemeral key: a broken store must never silently orphan existing
// ciphertext behind a new key.
func (c *KeyCustodian) GetOrCreate() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.ring.Get(masterKeyID)
	if err == nil {
		if len(item.Data) != KeySize {
			return nil, fmt.Errorf("%w: stored key has length %d, want %d",
				common.ErrKeyStore, len(item.Data), KeySize)
		}
		return item.Data, nil
	}
	if !errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: get master key: %v", common.ErrKeyStore, err)
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: generate master key: %v", common.ErrKeyStore, err)
	}

	if err := c.ring.Set(keyring.Item{
		Key:                       masterKeyID,
		Label:                     "PhotoVault master encryption key",
		Data:                      key,
		KeychainNotSynchronizable: true,
	}); err != nil {
		return nil, fmt.Errorf("%w: persist master key: %v", common.ErrKeyStore, err)
	}

	return key, nil
}

// Erase removes the stored master key. Erasing an absent key is not an
// error. Every blob sealed under the erased key becomes permanently
// unreadable; that is the point.
func (c *KeyCustodian) Erase() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.ring.Remove(masterKeyID)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("%w: remove master key: %v", common.ErrKeyStore, err)
	}
	return nil
}
