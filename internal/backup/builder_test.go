package backup_test

import (
	"context"
	"testing"
	"time"

	"photokeep/internal/backup"
	"photokeep/internal/model"
	"photokeep/internal/storage"
	"photokeep/internal/testutil"
)

// seedAlbum inserts an album row with a fixed id.
func seedAlbum(t *testing.T, cat backup.Catalog, id int64, name string, updatedAt time.Time) {
	t.Helper()
	err := cat.UpsertAlbum(context.Background(), &model.Album{
		ID:        id,
		Name:      name,
		UpdatedAt: updatedAt,
	})
	if err != nil {
		t.Fatalf("UpsertAlbum(%d) error = %v", id, err)
	}
}

// seedPhoto inserts a photo row with a fixed id. Path points at the photo's
// conventional location in media; the file itself is written separately.
func seedPhoto(t *testing.T, cat backup.Catalog, media backup.MediaStore, id, albumID int64, filename string, updatedAt time.Time) {
	t.Helper()
	err := cat.UpsertPhoto(context.Background(), &model.Photo{
		ID:        id,
		AlbumID:   albumID,
		Filename:  filename,
		Path:      media.PhotoPath(albumID, id),
		Tags:      []string{},
		TakenAt:   updatedAt,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	})
	if err != nil {
		t.Fatalf("UpsertPhoto(%d) error = %v", id, err)
	}
}

// seedPhotoFile writes a photo's original into local media storage.
func seedPhotoFile(t *testing.T, media *storage.DirMediaStore, albumID, id int64, content []byte) {
	t.Helper()
	testutil.WriteFile(t, media, media.PhotoPath(albumID, id), content)
}

func TestSnapshotBuilder_Build(t *testing.T) {
	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("captures the whole catalog and settings", func(t *testing.T) {
		cat := testutil.NewTestCatalog(t)
		media := testutil.NewTestMediaStore(t)
		clock := testutil.FixedClock()

		seedAlbum(t, cat, 1, "Vacation", base)
		seedAlbum(t, cat, 2, "Family", base)
		seedPhoto(t, cat, media, 10, 1, "a.jpg", base)
		seedPhoto(t, cat, media, 11, 2, "b.jpg", base)

		if err := cat.SetSettings(context.Background(), &model.Settings{ThemeMode: "dark", DefaultSort: "name", LastSearch: "dog"}); err != nil {
			t.Fatalf("SetSettings() error = %v", err)
		}

		snap, err := backup.NewSnapshotBuilder(cat, clock).Build(context.Background())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		if snap.SchemaVersion != backup.SchemaVersion {
			t.Errorf("schemaVersion = %d, want %d", snap.SchemaVersion, backup.SchemaVersion)
		}
		if snap.CreatedAt != clock.Now().UnixMilli() {
			t.Errorf("createdAt = %d, want %d", snap.CreatedAt, clock.Now().UnixMilli())
		}
		if len(snap.Albums) != 2 || len(snap.Photos) != 2 {
			t.Fatalf("albums = %d, photos = %d, want 2 and 2", len(snap.Albums), len(snap.Photos))
		}
		if snap.Settings.ThemeMode != "dark" || snap.Settings.LastSearch != "dog" {
			t.Errorf("settings = %+v", snap.Settings)
		}
		if snap.Photos[0].RelativePath != "photos/1/10.jpg" {
			t.Errorf("relativePath = %q, want photos/1/10.jpg", snap.Photos[0].RelativePath)
		}
	})

	t.Run("empty catalog yields empty snapshot with default settings", func(t *testing.T) {
		cat := testutil.NewTestCatalog(t)
		clock := testutil.FixedClock()

		snap, err := backup.NewSnapshotBuilder(cat, clock).Build(context.Background())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if len(snap.Albums) != 0 || len(snap.Photos) != 0 {
			t.Errorf("albums = %d, photos = %d, want 0 and 0", len(snap.Albums), len(snap.Photos))
		}
		if snap.Settings.ThemeMode != "system" {
			t.Errorf("themeMode = %q, want system default", snap.Settings.ThemeMode)
		}
	})
}

func TestSnapshotBuilder_BuildForAlbums(t *testing.T) {
	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("restricts to the requested albums", func(t *testing.T) {
		cat := testutil.NewTestCatalog(t)
		media := testutil.NewTestMediaStore(t)
		clock := testutil.FixedClock()

		seedAlbum(t, cat, 1, "In", base)
		seedAlbum(t, cat, 2, "Out", base)
		seedPhoto(t, cat, media, 10, 1, "in.jpg", base)
		seedPhoto(t, cat, media, 11, 2, "out.jpg", base)

		snap, err := backup.NewSnapshotBuilder(cat, clock).BuildForAlbums(context.Background(), []int64{1})
		if err != nil {
			t.Fatalf("BuildForAlbums() error = %v", err)
		}
		if len(snap.Albums) != 1 || snap.Albums[0].ID != 1 {
			t.Fatalf("albums = %+v, want only album 1", snap.Albums)
		}
		if len(snap.Photos) != 1 || snap.Photos[0].ID != 10 {
			t.Fatalf("photos = %+v, want only photo 10", snap.Photos)
		}
	})

	t.Run("skips unknown album ids silently", func(t *testing.T) {
		cat := testutil.NewTestCatalog(t)
		clock := testutil.FixedClock()

		seedAlbum(t, cat, 1, "Only", base)

		snap, err := backup.NewSnapshotBuilder(cat, clock).BuildForAlbums(context.Background(), []int64{1, 42})
		if err != nil {
			t.Fatalf("BuildForAlbums() error = %v", err)
		}
		if len(snap.Albums) != 1 {
			t.Errorf("albums = %d, want 1", len(snap.Albums))
		}
	})
}
