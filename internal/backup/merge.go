package backup

import (
	"context"
	"fmt"

	"photokeep/internal/model"
)

// ImportMode selects how incoming snapshot data is reconciled with the
// local catalog.
type ImportMode int

const (
	// MergeLatestWins keeps, per entity, whichever side has the strictly
	// greater UpdatedAt. Equal timestamps mean no update, which makes
	// re-importing an unchanged snapshot a no-op.
	MergeLatestWins ImportMode = iota

	// ReplaceAll clears the local catalog first and applies the snapshot
	// wholesale.
	ReplaceAll
)

func (m ImportMode) String() string {
	switch m {
	case MergeLatestWins:
		return "merge_latest_wins"
	case ReplaceAll:
		return "replace_all"
	default:
		return fmt.Sprintf("ImportMode(%d)", int(m))
	}
}

// mergeOutcome is the per-item result of a reconcile step. Batch operations
// accumulate outcomes into their reports instead of aborting on one bad row.
type mergeOutcome int

const (
	mergeSkipped mergeOutcome = iota
	mergeInserted
	mergeUpdated
)

// reconcileAlbum applies the insert-or-update-if-newer rule for one album.
// force (REPLACE_ALL) updates regardless of timestamps.
//
// UpdatedAt comparison is wall-clock based: a device with a skewed clock can
// write a "future" timestamp that permanently wins over newer edits. Known
// limitation, carried over deliberately.
func reconcileAlbum(ctx context.Context, cat Catalog, sa SnapshotAlbum, force bool) (mergeOutcome, error) {
	existing, err := cat.GetAlbum(ctx, sa.ID)
	if err != nil {
		return mergeSkipped, fmt.Errorf("looking up album %d: %w", sa.ID, err)
	}

	if existing == nil {
		if err := cat.UpsertAlbum(ctx, albumFromSnapshot(sa)); err != nil {
			return mergeSkipped, fmt.Errorf("inserting album %d: %w", sa.ID, err)
		}
		return mergeInserted, nil
	}

	if sa.UpdatedAt > millis(existing.UpdatedAt) || force {
		if err := cat.UpdateAlbum(ctx, albumFromSnapshot(sa)); err != nil {
			return mergeSkipped, fmt.Errorf("updating album %d: %w", sa.ID, err)
		}
		return mergeUpdated, nil
	}

	return mergeSkipped, nil
}

// reconcilePhoto applies the insert-or-update-if-newer rule for one photo.
// build maps the snapshot photo plus the existing row (nil on insert) to the
// row to write; callers use it to rewrite device-local fields (path,
// thumbPath, sizeBytes) which must never be taken from the snapshot as-is.
func reconcilePhoto(ctx context.Context, cat Catalog, sp SnapshotPhoto, force bool, build func(existing *model.Photo) *model.Photo) (mergeOutcome, error) {
	existing, err := cat.GetPhoto(ctx, sp.ID)
	if err != nil {
		return mergeSkipped, fmt.Errorf("looking up photo %d: %w", sp.ID, err)
	}

	if existing == nil {
		if err := cat.UpsertPhoto(ctx, build(nil)); err != nil {
			return mergeSkipped, fmt.Errorf("inserting photo %d: %w", sp.ID, err)
		}
		return mergeInserted, nil
	}

	if sp.UpdatedAt > millis(existing.UpdatedAt) || force {
		if err := cat.UpdatePhoto(ctx, build(existing)); err != nil {
			return mergeSkipped, fmt.Errorf("updating photo %d: %w", sp.ID, err)
		}
		return mergeUpdated, nil
	}

	return mergeSkipped, nil
}

// albumFromSnapshot maps a snapshot album back to a catalog row.
// The id is preserved verbatim; identity is never remapped.
func albumFromSnapshot(sa SnapshotAlbum) *model.Album {
	return &model.Album{
		ID:           sa.ID,
		Name:         sa.Name,
		CoverPhotoID: sa.CoverPhotoID,
		PhotoCount:   sa.PhotoCount,
		Favorite:     sa.Favorite,
		Emoji:        sa.Emoji,
		UpdatedAt:    fromMillis(sa.UpdatedAt),
	}
}

// photoFromSnapshot maps the snapshot-carried fields of a photo back to a
// catalog row, leaving the device-local fields (Path, ThumbPath, SizeBytes)
// zeroed for the caller to fill in.
func photoFromSnapshot(sp SnapshotPhoto) *model.Photo {
	return &model.Photo{
		ID:        sp.ID,
		AlbumID:   sp.AlbumID,
		Filename:  sp.Filename,
		Width:     sp.Width,
		Height:    sp.Height,
		Caption:   sp.Caption,
		Tags:      sp.Tags,
		Favorite:  sp.Favorite,
		TakenAt:   fromMillis(sp.TakenAt),
		CreatedAt: fromMillis(sp.CreatedAt),
		UpdatedAt: fromMillis(sp.UpdatedAt),
	}
}

// refreshAlbumCounts recomputes the denormalized photo count for each album id.
// Count maintenance failures are logged by callers, never fatal.
func refreshAlbumCounts(ctx context.Context, cat Catalog, albumIDs map[int64]bool) error {
	for id := range albumIDs {
		count, err := cat.CountPhotosInAlbum(ctx, id)
		if err != nil {
			return fmt.Errorf("counting photos in album %d: %w", id, err)
		}
		if err := cat.UpdateAlbumPhotoCount(ctx, id, count); err != nil {
			return fmt.Errorf("updating photo count of album %d: %w", id, err)
		}
	}
	return nil
}
