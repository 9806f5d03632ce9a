package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/filex"
)

// blobSuffix marks encrypted item blobs in both backends.
const blobSuffix = ".enc"

// BlobStore holds the opaque encrypted envelopes, one per item, addressed
// by the storage reference recorded in the item index.
//
// Delete must be idempotent: deleting an already-absent blob is not an
// error. Get returns common.ErrorNotFound for a missing blob.
type BlobStore interface {
	Put(ctx context.Context, ref string, data []byte) error
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
	// DeleteAll removes every blob and leaves the backend ready for new
	// writes, as if freshly initialized.
	DeleteAll(ctx context.Context) error
}

// FileBlobStore keeps blobs as individual files under dir.
type FileBlobStore struct {
	dir string
}

func NewFileBlobStore(dir string) (*FileBlobStore, error) {
	if err := filex.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FileBlobStore{dir: dir}, nil
}

// path resolves ref inside the store directory. References are generated
// by the vault itself (uuid-derived), but reject anything trying to
// escape the directory anyway.
func (s *FileBlobStore) path(ref string) (string, error) {
	if ref == "" || strings.Contains(ref, "/") || strings.Contains(ref, "..") {
		return "", fmt.Errorf("invalid storage ref %q", ref)
	}
	return filepath.Join(s.dir, ref), nil
}

func (s *FileBlobStore) Put(ctx context.Context, ref string, data []byte) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return fmt.Errorf("write blob %s: %w", ref, err)
	}
	return nil
}

func (s *FileBlobStore) Get(ctx context.Context, ref string) ([]byte, error) {
	p, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: blob %s", common.ErrorNotFound, ref)
		}
		return nil, fmt.Errorf("read blob %s: %w", ref, err)
	}
	return data, nil
}

func (s *FileBlobStore) Delete(ctx context.Context, ref string) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	return filex.RemoveIfExists(p)
}

func (s *FileBlobStore) DeleteAll(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return filex.EnsureDir(s.dir)
		}
		return fmt.Errorf("read blob dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), blobSuffix) {
			continue
		}
		if err := filex.RemoveIfExists(filepath.Join(s.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
