// Package ingest implements the classification-driven ingestion pipeline:
// a batch of raw images plus an external categorization result is turned
// into vault mutations. The classifier call is the single all-or-nothing
// boundary; everything after it degrades per item.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/vault"
)

// Classifier maps a batch of images to category names and member indices.
// Each index is zero-based into the input slice; out-of-range indices are
// tolerated by the pipeline. The key set defines collection names
// verbatim.
type Classifier func(ctx context.Context, images [][]byte) (map[string][]int, error)

// Store is the slice of the vault the pipeline drives. *vault.Vault
// satisfies it.
type Store interface {
	ListItems(ctx context.Context, collectionID uuid.UUID) ([]vault.Item, error)
	SaveItems(ctx context.Context, collectionID uuid.UUID, list []vault.Item) error
	SaveCollections(ctx context.Context, list []vault.Collection) error
	StoreEncryptedItem(ctx context.Context, raw []byte, itemID uuid.UUID) (string, error)
}

// State names the phases of one in-memory batch run.
type State string

const (
	StateStarted             State = "started"
	StateClassified          State = "classified"
	StateCollectionsResolved State = "collections_resolved"
	StateItemsPersisted      State = "items_persisted"
	StateIndicesUpdated      State = "indices_updated"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

// ItemFailure records one image that could not be stored.
type ItemFailure struct {
	Index int
	Err   error
}

// PartialError reports that some images of a batch were not saved while
// the rest of the batch went through.
type PartialError struct {
	Failures []ItemFailure
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d image(s) were not saved", len(e.Failures))
}

// Pipeline orchestrates classification and storage. Construct once and
// share; each batch keeps its own state.
type Pipeline struct {
	store    Store
	classify Classifier
	log      logging.Logger
}

func New(store Store, classify Classifier, log logging.Logger) *Pipeline {
	return &Pipeline{store: store, classify: classify, log: log}
}

// batch tracks the state machine of a single run.
type batch struct {
	state    State
	failures []ItemFailure
}

func (b *batch) transition(ctx context.Context, log logging.Logger, next State) {
	b.state = next
	log.Debug(ctx, "batch state", "state", next)
}

func (b *batch) fail(ctx context.Context, log logging.Logger, reason error) {
	b.state = StateFailed
	log.Error(ctx, "batch failed", "reason", reason)
}

// ClassifyAndStore runs the full ingestion algorithm over images and the
// current collection list, returning the updated list.
//
// A classifier failure aborts the whole batch before any vault state is
// touched and is reported as common.ErrClassifier. After that point,
// individual images that cannot be decoded or stored are dropped and
// reported together as a *PartialError once the rest of the batch has
// been persisted. Index-save failures remain fatal.
func (p *Pipeline) ClassifyAndStore(ctx context.Context, images [][]byte, existing []vault.Collection) ([]vault.Collection, error) {
	b := &batch{state: StateStarted}
	p.log.Info(ctx, "ingestion started", "images", len(images))

	mapping, err := p.classify(ctx, images)
	if err != nil {
		if !errors.Is(err, common.ErrClassifier) {
			err = fmt.Errorf("%w: %v", common.ErrClassifier, err)
		}
		b.fail(ctx, p.log, err)
		return nil, err
	}
	b.transition(ctx, p.log, StateClassified)

	updated := make([]vault.Collection, len(existing))
	copy(updated, existing)

	// Deterministic category order keeps runs reproducible; the mapping
	// key set itself carries no order.
	categories := make([]string, 0, len(mapping))
	for category := range mapping {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	// A collection may receive images from multiple classifier entries
	// when the mapping legitimately repeats a category name: merge.
	newItems := make(map[uuid.UUID][]vault.Item)

	for _, category := range categories {
		col, created := resolveCollection(updated, category)
		if created {
			updated = append(updated, col)
		}

		for _, idx := range mapping[category] {
			if idx < 0 || idx >= len(images) {
				// defensive bound check: a malformed classifier
				// response must not crash ingestion
				p.log.Warn(ctx, "classifier index out of range", "index", idx, "batch", len(images))
				continue
			}

			item, err := p.storeOne(ctx, images[idx], col.ID)
			if err != nil {
				b.failures = append(b.failures, ItemFailure{Index: idx, Err: err})
				p.log.Warn(ctx, "image not saved", "index", idx, "error", err)
				continue
			}
			newItems[col.ID] = append(newItems[col.ID], *item)
		}
	}
	b.transition(ctx, p.log, StateCollectionsResolved)
	b.transition(ctx, p.log, StateItemsPersisted)

	// Append the accumulated items per collection and assign covers.
	ids := make([]uuid.UUID, 0, len(newItems))
	for id := range newItems {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, collectionID := range ids {
		items := newItems[collectionID]

		existingItems, err := p.store.ListItems(ctx, collectionID)
		if err != nil {
			b.fail(ctx, p.log, err)
			return nil, err
		}
		if err := p.store.SaveItems(ctx, collectionID, append(existingItems, items...)); err != nil {
			b.fail(ctx, p.log, err)
			return nil, err
		}

		for n := range updated {
			if updated[n].ID == collectionID && updated[n].CoverItemID == nil {
				cover := items[0].ID
				updated[n].CoverItemID = &cover
			}
		}
	}
	b.transition(ctx, p.log, StateIndicesUpdated)

	if err := p.store.SaveCollections(ctx, updated); err != nil {
		b.fail(ctx, p.log, err)
		return nil, err
	}
	b.transition(ctx, p.log, StateDone)
	p.log.Info(ctx, "ingestion done", "collections", len(updated), "failures", len(b.failures))

	if len(b.failures) > 0 {
		return updated, &PartialError{Failures: b.failures}
	}
	return updated, nil
}

// AddToCollection stores images straight into one collection, without
// classification or resolution, with the same per-item failure semantics.
// Cover assignment is left to the caller, matching explicit user intent.
func (p *Pipeline) AddToCollection(ctx context.Context, images [][]byte, c vault.Collection) ([]vault.Item, error) {
	var added []vault.Item
	var failures []ItemFailure

	for idx, raw := range images {
		item, err := p.storeOne(ctx, raw, c.ID)
		if err != nil {
			failures = append(failures, ItemFailure{Index: idx, Err: err})
			p.log.Warn(ctx, "image not saved", "index", idx, "error", err)
			continue
		}
		added = append(added, *item)
	}

	if len(added) > 0 {
		existingItems, err := p.store.ListItems(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if err := p.store.SaveItems(ctx, c.ID, append(existingItems, added...)); err != nil {
			return nil, err
		}
	}

	if len(failures) > 0 {
		return added, &PartialError{Failures: failures}
	}
	return added, nil
}

// storeOne turns one raw image into a persisted item: thumbnail in the
// clear, full-quality bytes sealed and written blob-first so the index
// never references a blob that does not exist.
func (p *Pipeline) storeOne(ctx context.Context, raw []byte, collectionID uuid.UUID) (*vault.Item, error) {
	img, err := decodeImage(raw)
	if err != nil {
		return nil, err
	}

	thumb, err := makeThumbnail(img)
	if err != nil {
		return nil, err
	}

	full, err := encodeJPEG(img, fullQuality)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	itemID := uuid.New()

	ref, err := p.store.StoreEncryptedItem(ctx, full, itemID)
	if err != nil {
		return nil, err
	}

	return &vault.Item{
		ID:               itemID,
		StorageRef:       ref,
		Thumbnail:        thumb,
		CollectionID:     collectionID,
		UploadedAt:       now,
		OriginalFileName: fmt.Sprintf("photo_%d.jpg", now.Unix()),
	}, nil
}

// resolveCollection finds the first collection whose name or category
// equals category (case-sensitive, list order), or creates a new
// unencrypted one named after it.
func resolveCollection(list []vault.Collection, category string) (vault.Collection, bool) {
	for _, c := range list {
		if c.Name == category || c.Category == category {
			return c, false
		}
	}
	return vault.NewCollection(category, category), true
}
