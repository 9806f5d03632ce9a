package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/photovault/internal/filex"
)

const (
	collectionsDirName  = "collections"
	itemsDirName        = "items"
	collectionsFileName = "collections.json"
	itemIndexSuffix     = "_items.json"
)

// indexStore persists the collection-list index and the per-collection
// item indices as whole JSON documents. Every save replaces the full
// document through an atomic rename, so a concurrent reader sees either
// the previous complete list or the new one.
type indexStore struct {
	dir string
}

func newIndexStore(dir string) (*indexStore, error) {
	s := &indexStore{dir: dir}
	if err := s.ensureDirs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *indexStore) ensureDirs() error {
	if err := filex.EnsureDir(filepath.Join(s.dir, collectionsDirName)); err != nil {
		return err
	}
	return filex.EnsureDir(filepath.Join(s.dir, itemsDirName))
}

func (s *indexStore) collectionsPath() string {
	return filepath.Join(s.dir, collectionsDirName, collectionsFileName)
}

func (s *indexStore) itemsPath(collectionID uuid.UUID) string {
	return filepath.Join(s.dir, itemsDirName, collectionID.String()+itemIndexSuffix)
}

// loadCollections returns the last successfully persisted collection list,
// or an empty list when no index exists yet (first run).
func (s *indexStore) loadCollections() ([]Collection, error) {
	return loadIndex[Collection](s.collectionsPath())
}

func (s *indexStore) saveCollections(list []Collection) error {
	return saveIndex(s.collectionsPath(), list)
}

func (s *indexStore) loadItems(collectionID uuid.UUID) ([]Item, error) {
	return loadIndex[Item](s.itemsPath(collectionID))
}

func (s *indexStore) saveItems(collectionID uuid.UUID, list []Item) error {
	return saveIndex(s.itemsPath(collectionID), list)
}

func (s *indexStore) deleteItemIndex(collectionID uuid.UUID) error {
	return filex.RemoveIfExists(s.itemsPath(collectionID))
}

// eraseAll removes both index directories and recreates them empty, so
// subsequent operations behave as a first run.
func (s *indexStore) eraseAll() error {
	if err := os.RemoveAll(filepath.Join(s.dir, collectionsDirName)); err != nil {
		return fmt.Errorf("remove collections dir: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(s.dir, itemsDirName)); err != nil {
		return fmt.Errorf("remove items dir: %w", err)
	}
	return s.ensureDirs()
}

func loadIndex[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}

	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	return list, nil
}

func saveIndex[T any](path string, list []T) error {
	if list == nil {
		list = []T{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode index %s: %w", path, err)
	}
	return filex.AtomicWrite(path, data)
}
