package backup

import (
	"context"
	"fmt"
)

// AppVersion is recorded in every snapshot for diagnostics. Informational only.
const AppVersion = "1.0"

// SnapshotBuilder produces snapshots from the current catalog state.
// Building is a pure read of the store at call time; any store error surfaces
// to the caller unmodified, since a partial snapshot is worse than none.
type SnapshotBuilder struct {
	catalog Catalog
	clock   Clock
}

// NewSnapshotBuilder creates a builder reading from the given catalog.
func NewSnapshotBuilder(catalog Catalog, clock Clock) *SnapshotBuilder {
	return &SnapshotBuilder{catalog: catalog, clock: clock}
}

// Build reads the entire catalog in a single pass and returns its snapshot.
func (b *SnapshotBuilder) Build(ctx context.Context) (*Snapshot, error) {
	albums, err := b.catalog.GetAllAlbums(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading albums: %w", err)
	}

	photos, err := b.catalog.GetAllPhotos(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading photos: %w", err)
	}

	snap := b.newSnapshot()
	for _, a := range albums {
		snap.Albums = append(snap.Albums, snapshotAlbum(a))
	}
	for _, p := range photos {
		snap.Photos = append(snap.Photos, snapshotPhoto(p))
	}

	if err := b.fillSettings(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// BuildForAlbums returns a snapshot restricted to the given albums and their
// photos. Unknown album ids are skipped silently, matching export semantics.
func (b *SnapshotBuilder) BuildForAlbums(ctx context.Context, albumIDs []int64) (*Snapshot, error) {
	snap := b.newSnapshot()

	for _, id := range albumIDs {
		album, err := b.catalog.GetAlbum(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reading album %d: %w", id, err)
		}
		if album == nil {
			continue
		}
		snap.Albums = append(snap.Albums, snapshotAlbum(album))

		photos, err := b.catalog.GetPhotosInAlbum(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reading photos of album %d: %w", id, err)
		}
		for _, p := range photos {
			snap.Photos = append(snap.Photos, snapshotPhoto(p))
		}
	}

	if err := b.fillSettings(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (b *SnapshotBuilder) newSnapshot() *Snapshot {
	return &Snapshot{
		SchemaVersion: SchemaVersion,
		CreatedAt:     millis(b.clock.Now()),
		AppVersion:    AppVersion,
		Albums:        []SnapshotAlbum{},
		Photos:        []SnapshotPhoto{},
	}
}

func (b *SnapshotBuilder) fillSettings(ctx context.Context, snap *Snapshot) error {
	settings, err := b.catalog.Settings(ctx)
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	snap.Settings = SnapshotSettings{
		ThemeMode:   settings.ThemeMode,
		DefaultSort: settings.DefaultSort,
		LastSearch:  settings.LastSearch,
	}
	return nil
}
