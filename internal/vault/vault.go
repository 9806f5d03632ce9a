package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/photovault/internal/cipherbox"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/logging"
)

// KeyProvider is the slice of the key custodian the vault needs.
// *keycustodian.KeyCustodian satisfies it; tests can inject a fake.
type KeyProvider interface {
	GetOrCreate() ([]byte, error)
	Erase() error
}

// Vault is the storage engine: collection and item indices plus the
// encrypted blob store. One instance is constructed at startup and passed
// to every caller; there is no ambient global.
type Vault struct {
	indexes *indexStore
	blobs   BlobStore
	keys    KeyProvider
	unlocks *UnlockManager
	log     logging.Logger
}

// Options configures New.
type Options struct {
	// DataDir is the root directory for index documents. The filesystem
	// blob backend also lives under it.
	DataDir string
	// Blobs overrides the default filesystem blob store (e.g. S3).
	Blobs BlobStore
	// UnlockTTL bounds the lifetime of collection unlock tokens.
	UnlockTTL time.Duration
}

// New builds a vault rooted at opts.DataDir.
func New(opts Options, keys KeyProvider, log logging.Logger) (*Vault, error) {
	indexes, err := newIndexStore(opts.DataDir)
	if err != nil {
		return nil, err
	}

	blobs := opts.Blobs
	if blobs == nil {
		blobs, err = NewFileBlobStore(opts.DataDir + "/" + itemsDirName)
		if err != nil {
			return nil, err
		}
	}

	ttl := opts.UnlockTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	unlocks, err := NewUnlockManager(ttl)
	if err != nil {
		return nil, err
	}

	return &Vault{
		indexes: indexes,
		blobs:   blobs,
		keys:    keys,
		unlocks: unlocks,
		log:     log,
	}, nil
}

// ListCollections returns the last successfully persisted collection
// list. A missing index means first run and yields an empty list, never
// an error.
func (v *Vault) ListCollections(ctx context.Context) ([]Collection, error) {
	return v.indexes.loadCollections()
}

// SaveCollections atomically replaces the persisted collection index.
func (v *Vault) SaveCollections(ctx context.Context, list []Collection) error {
	if err := v.indexes.saveCollections(list); err != nil {
		return err
	}
	v.log.Debug(ctx, "collection index saved", "count", len(list))
	return nil
}

// ListItems returns the item index of one collection, empty when absent.
//
// This is the unchecked read used by the ingestion pipeline and by
// internal bookkeeping. User-facing enumeration of a protected
// collection goes through OpenCollection.
func (v *Vault) ListItems(ctx context.Context, collectionID uuid.UUID) ([]Item, error) {
	return v.indexes.loadItems(collectionID)
}

// SaveItems atomically replaces the item index of one collection.
func (v *Vault) SaveItems(ctx context.Context, collectionID uuid.UUID, list []Item) error {
	if err := v.indexes.saveItems(collectionID, list); err != nil {
		return err
	}
	v.log.Debug(ctx, "item index saved", "collection", collectionID, "count", len(list))
	return nil
}

// Unlock verifies password against the collection and issues an unlock
// token for it. Collections without a verifier are implicitly unlocked
// and accept any password.
func (v *Vault) Unlock(c Collection, password string) (string, error) {
	if !c.VerifyPassword(password) {
		return "", common.ErrInvalidPassword
	}
	return v.unlocks.Issue(c.ID)
}

// OpenCollection enumerates a collection's items, enforcing the session
// gate: a collection with a password verifier requires a valid unlock
// token. Returns common.ErrLocked when the gate fails.
func (v *Vault) OpenCollection(ctx context.Context, c Collection, token string) ([]Item, error) {
	if c.Password != nil {
		if err := v.unlocks.Verify(token, c.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrLocked, err)
		}
	}
	return v.indexes.loadItems(c.ID)
}

// StoreEncryptedItem seals raw under the master key and writes the blob
// under a name derived from the fresh item ID, so names never collide and
// never leak content. The returned reference goes into the item's index
// entry; index bookkeeping stays with the caller.
func (v *Vault) StoreEncryptedItem(ctx context.Context, raw []byte, itemID uuid.UUID) (string, error) {
	key, err := v.keys.GetOrCreate()
	if err != nil {
		return "", err
	}

	blob, err := cipherbox.Seal(raw, key)
	if err != nil {
		return "", fmt.Errorf("seal item: %w", err)
	}

	ref := itemID.String() + blobSuffix
	if err := v.blobs.Put(ctx, ref, blob); err != nil {
		return "", err
	}

	v.log.Debug(ctx, "encrypted blob stored", "ref", ref, "size", len(blob))
	return ref, nil
}

// LoadDecryptedItem reads and opens the blob behind ref.
//
// Fails with common.ErrorNotFound when the blob is missing, with the
// cipherbox errors when the ciphertext is tampered or malformed, and with
// common.ErrKeyStore when the master key cannot be obtained.
func (v *Vault) LoadDecryptedItem(ctx context.Context, ref string) ([]byte, error) {
	key, err := v.keys.GetOrCreate()
	if err != nil {
		return nil, err
	}

	blob, err := v.blobs.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	return cipherbox.Open(blob, key)
}

// DeleteEncryptedItem removes the blob behind ref. Deleting an
// already-absent blob succeeds.
func (v *Vault) DeleteEncryptedItem(ctx context.Context, ref string) error {
	return v.blobs.Delete(ctx, ref)
}

// DeleteItem removes one item: the index entry first, then the blob.
// A crash in between leaves an orphaned blob, never a dangling index
// reference.
func (v *Vault) DeleteItem(ctx context.Context, item Item) error {
	items, err := v.indexes.loadItems(item.CollectionID)
	if err != nil {
		return err
	}

	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ID != item.ID {
			kept = append(kept, it)
		}
	}
	if err := v.indexes.saveItems(item.CollectionID, kept); err != nil {
		return err
	}

	return v.blobs.Delete(ctx, item.StorageRef)
}

// DeleteCollection removes a collection and cascades to its items and
// their blobs. The collection disappears from the index before anything
// else, keeping the dangerous direction (visible entry, missing data)
// impossible.
func (v *Vault) DeleteCollection(ctx context.Context, collectionID uuid.UUID) error {
	collections, err := v.indexes.loadCollections()
	if err != nil {
		return err
	}

	kept := make([]Collection, 0, len(collections))
	for _, c := range collections {
		if c.ID != collectionID {
			kept = append(kept, c)
		}
	}
	if err := v.indexes.saveCollections(kept); err != nil {
		return err
	}

	items, err := v.indexes.loadItems(collectionID)
	if err != nil {
		return err
	}
	if err := v.indexes.deleteItemIndex(collectionID); err != nil {
		return err
	}
	for _, it := range items {
		if err := v.blobs.Delete(ctx, it.StorageRef); err != nil {
			return err
		}
	}

	v.log.Info(ctx, "collection deleted", "collection", collectionID, "items", len(items))
	return nil
}

// EraseEverything deletes all indices, all blobs, and the master key,
// then recreates the empty containers so subsequent operations behave as
// a first run. Every previously sealed blob becomes permanently
// unreadable once the key is gone.
func (v *Vault) EraseEverything(ctx context.Context) error {
	if err := v.blobs.DeleteAll(ctx); err != nil {
		return err
	}
	if err := v.indexes.eraseAll(); err != nil {
		return err
	}
	if err := v.keys.Erase(); err != nil {
		return err
	}
	v.log.Info(ctx, "vault erased")
	return nil
}
