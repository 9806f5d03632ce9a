package vault

import (
	"context"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/logging"
)

// fakeKeys is an in-memory KeyProvider.
type fakeKeys struct {
	key []byte
	err error
}

func newFakeKeys(t *testing.T) *fakeKeys {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return &fakeKeys{key: key}
}

func (f *fakeKeys) GetOrCreate() ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.key, nil
}

func (f *fakeKeys) Erase() error {
	if f.err != nil {
		return f.err
	}
	f.key = nil
	return nil
}

func newTestVault(t *testing.T) (*Vault, *fakeKeys, string) {
	t.Helper()
	dir := t.TempDir()
	keys := newFakeKeys(t)

	v, err := New(Options{DataDir: dir}, keys, logging.NewDiscardLogger())
	require.NoError(t, err)
	return v, keys, dir
}

func TestListCollections_EmptyOnFirstRun(t *testing.T) {
	v, _, _ := newTestVault(t)

	list, err := v.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveCollections_Roundtrip(t *testing.T) {
	v, _, _ := newTestVault(t)
	ctx := context.Background()

	c1 := NewCollection("Landscape", "Landscape")
	c2 := NewCollection("Food", "Food")
	require.NoError(t, c2.SetPassword("secret"))

	require.NoError(t, v.SaveCollections(ctx, []Collection{c1, c2}))

	got, err := v.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, c1.ID, got[0].ID)
	assert.Equal(t, "Landscape", got[0].Name)
	assert.Nil(t, got[0].Password)
	require.NotNil(t, got[1].Password)
	assert.True(t, got[1].VerifyPassword("secret"))
}

func TestListItems_EmptyOnMissingIndex(t *testing.T) {
	v, _, _ := newTestVault(t)

	items, err := v.ListItems(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStoreAndLoadEncryptedItem(t *testing.T) {
	v, _, _ := newTestVault(t)
	ctx := context.Background()

	raw := []byte("jpeg bytes of a photo")
	itemID := uuid.New()

	ref, err := v.StoreEncryptedItem(ctx, raw, itemID)
	require.NoError(t, err)
	assert.Equal(t, itemID.String()+".enc", ref)

	got, err := v.LoadDecryptedItem(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestStoreEncryptedItem_BlobIsNotPlaintext(t *testing.T) {
	v, _, dir := newTestVault(t)
	ctx := context.Background()

	raw := []byte("recognizable plaintext content")
	ref, err := v.StoreEncryptedItem(ctx, raw, uuid.New())
	require.NoError(t, err)

	onDisk, err := os.ReadFile(filepath.Join(dir, "items", ref))
	require.NoError(t, err)
	assert.NotContains(t, string(onDisk), "recognizable")
}

func TestLoadDecryptedItem_MissingBlob(t *testing.T) {
	v, _, _ := newTestVault(t)

	_, err := v.LoadDecryptedItem(context.Background(), uuid.New().String()+".enc")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLoadDecryptedItem_TamperedBlob(t *testing.T) {
	v, _, dir := newTestVault(t)
	ctx := context.Background()

	ref, err := v.StoreEncryptedItem(ctx, []byte("payload"), uuid.New())
	require.NoError(t, err)

	path := filepath.Join(dir, "items", ref)
	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	blob[len(blob)/2] ^= 0x01
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	_, err = v.LoadDecryptedItem(ctx, ref)
	assert.ErrorIs(t, err, common.ErrAuthentication)
}

func TestLoadDecryptedItem_KeyStoreFailure(t *testing.T) {
	v, keys, _ := newTestVault(t)
	ctx := context.Background()

	ref, err := v.StoreEncryptedItem(ctx, []byte("payload"), uuid.New())
	require.NoError(t, err)

	keys.err = common.ErrKeyStore

	_, err = v.LoadDecryptedItem(ctx, ref)
	assert.ErrorIs(t, err, common.ErrKeyStore)

	_, err = v.StoreEncryptedItem(ctx, []byte("more"), uuid.New())
	assert.ErrorIs(t, err, common.ErrKeyStore)
}

func TestDeleteEncryptedItem_Idempotent(t *testing.T) {
	v, _, _ := newTestVault(t)
	ctx := context.Background()

	ref, err := v.StoreEncryptedItem(ctx, []byte("payload"), uuid.New())
	require.NoError(t, err)

	require.NoError(t, v.DeleteEncryptedItem(ctx, ref))
	// deleting an already-absent blob is not an error
	require.NoError(t, v.DeleteEncryptedItem(ctx, ref))
	require.NoError(t, v.DeleteEncryptedItem(ctx, uuid.New().String()+".enc"))
}

func storeTestItem(t *testing.T, v *Vault, collectionID uuid.UUID) Item {
	t.Helper()
	ctx := context.Background()

	itemID := uuid.New()
	ref, err := v.StoreEncryptedItem(ctx, []byte("photo "+itemID.String()), itemID)
	require.NoError(t, err)

	item := Item{ID: itemID, StorageRef: ref, CollectionID: collectionID}
	items, err := v.ListItems(ctx, collectionID)
	require.NoError(t, err)
	require.NoError(t, v.SaveItems(ctx, collectionID, append(items, item)))
	return item
}

func TestDeleteItem_RemovesIndexEntryAndBlob(t *testing.T) {
	v, _, _ := newTestVault(t)
	ctx := context.Background()

	c := NewCollection("Pets", "Pets")
	require.NoError(t, v.SaveCollections(ctx, []Collection{c}))

	item1 := storeTestItem(t, v, c.ID)
	item2 := storeTestItem(t, v, c.ID)

	require.NoError(t, v.DeleteItem(ctx, item1))

	items, err := v.ListItems(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item2.ID, items[0].ID)

	_, err = v.LoadDecryptedItem(ctx, item1.StorageRef)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = v.LoadDecryptedItem(ctx, item2.StorageRef)
	assert.NoError(t, err)
}

func TestDeleteCollection_Cascades(t *testing.T) {
	v, _, _ := newTestVault(t)
	ctx := context.Background()

	keep := NewCollection("Keep", "Keep")
	drop := NewCollection("Drop", "Drop")
	require.NoError(t, v.SaveCollections(ctx, []Collection{keep, drop}))

	kept := storeTestItem(t, v, keep.ID)
	dropped := storeTestItem(t, v, drop.ID)

	require.NoError(t, v.DeleteCollection(ctx, drop.ID))

	collections, err := v.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, keep.ID, collections[0].ID)

	items, err := v.ListItems(ctx, drop.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = v.LoadDecryptedItem(ctx, dropped.StorageRef)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = v.LoadDecryptedItem(ctx, kept.StorageRef)
	assert.NoError(t, err)
}

func TestOpenCollection_SessionGate(t *testing.T) {
	v, _, _ := newTestVault(t)
	ctx := context.Background()

	c := NewCollection("Private", "Private")
	require.NoError(t, c.SetPassword("secret"))
	require.NoError(t, v.SaveCollections(ctx, []Collection{c}))
	storeTestItem(t, v, c.ID)

	_, err := v.OpenCollection(ctx, c, "")
	assert.ErrorIs(t, err, common.ErrLocked)

	_, err = v.Unlock(c, "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidPassword)

	token, err := v.Unlock(c, "secret")
	require.NoError(t, err)

	items, err := v.OpenCollection(ctx, c, token)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestOpenCollection_UnprotectedNeedsNoToken(t *testing.T) {
	v, _, _ := newTestVault(t)
	ctx := context.Background()

	c := NewCollection("Public", "Public")
	require.NoError(t, v.SaveCollections(ctx, []Collection{c}))

	items, err := v.OpenCollection(ctx, c, "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEraseEverything_ResetsToFirstRun(t *testing.T) {
	v, keys, _ := newTestVault(t)
	ctx := context.Background()

	c := NewCollection("Stuff", "Stuff")
	require.NoError(t, v.SaveCollections(ctx, []Collection{c}))
	item := storeTestItem(t, v, c.ID)

	require.NoError(t, v.EraseEverything(ctx))

	collections, err := v.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, collections)

	items, err := v.ListItems(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.Nil(t, keys.key)
	_, err = v.LoadDecryptedItem(ctx, item.StorageRef)
	assert.Error(t, err)

	// the vault keeps working as a fresh installation
	require.NoError(t, v.SaveCollections(ctx, []Collection{NewCollection("New", "New")}))
}

func TestSaveItems_AtomicReplaceVisibleToReaders(t *testing.T) {
	v, _, _ := newTestVault(t)
	ctx := context.Background()

	collectionID := uuid.New()

	// every save publishes a complete document; a reader between saves
	// sees one full list or the other, never a torn one
	for n := 1; n <= 5; n++ {
		list := make([]Item, n)
		for i := range list {
			list[i] = Item{ID: uuid.New(), CollectionID: collectionID, StorageRef: "x.enc"}
		}
		require.NoError(t, v.SaveItems(ctx, collectionID, list))

		got, err := v.ListItems(ctx, collectionID)
		require.NoError(t, err)
		require.Len(t, got, n)
	}
}

func TestNew_MissingDataDirIsCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "vault")

	v, err := New(Options{DataDir: dir}, newFakeKeys(t), logging.NewDiscardLogger())
	require.NoError(t, err)

	_, err = v.ListCollections(context.Background())
	assert.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "collections"))
	assert.False(t, errors.Is(statErr, os.ErrNotExist))
}
