// Package vault implements the durable, consistent storage engine for
// collections and items: whole-document JSON indices published atomically,
// plus an encrypted blob store for photo bytes.
package vault

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a named, optionally password-protected group of items.
// Collection metadata is stored in the clear; only item payloads are
// encrypted.
type Collection struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	IsEncrypted bool              `json:"is_encrypted"`
	Password    *PasswordVerifier `json:"password,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CoverItemID *uuid.UUID        `json:"cover_item_id,omitempty"`
}

// NewCollection creates an unprotected collection. The ingestion pipeline
// uses the category string for both name and category.
func NewCollection(name, category string) Collection {
	return Collection{
		ID:        uuid.New(),
		Name:      name,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
}

// Item is one stored photo: a reference to its encrypted blob plus a
// clear-text thumbnail kept small for fast gallery rendering. The
// thumbnail is a deliberate low-resolution leak for UX, not a security
// boundary.
type Item struct {
	ID               uuid.UUID `json:"id"`
	StorageRef       string    `json:"storage_ref"`
	Thumbnail        []byte    `json:"thumbnail,omitempty"`
	CollectionID     uuid.UUID `json:"collection_id"`
	UploadedAt       time.Time `json:"uploaded_at"`
	OriginalFileName string    `json:"original_file_name"`
}
