package backup

import (
	"context"
	"time"

	"photokeep/internal/model"
)

// Catalog provides an interface for the relational catalog store.
// Point lookups return nil (not an error) when no row exists.
// Implementations must support safe concurrent reads and serialized writes.
type Catalog interface {
	// Album operations

	// GetAlbum returns the album with the given id, or nil.
	GetAlbum(ctx context.Context, id int64) (*model.Album, error)

	// GetAllAlbums returns every album in the catalog.
	GetAllAlbums(ctx context.Context) ([]*model.Album, error)

	// UpsertAlbum inserts the album, preserving a non-zero ID verbatim.
	// A zero ID is assigned by the store and written back.
	UpsertAlbum(ctx context.Context, album *model.Album) error

	// UpdateAlbum updates an existing album row.
	UpdateAlbum(ctx context.Context, album *model.Album) error

	// CountPhotosInAlbum returns the number of photo rows referencing the album.
	CountPhotosInAlbum(ctx context.Context, albumID int64) (int, error)

	// UpdateAlbumPhotoCount rewrites an album's denormalized photo count.
	UpdateAlbumPhotoCount(ctx context.Context, albumID int64, count int) error

	// Photo operations

	// GetPhoto returns the photo with the given id, or nil.
	GetPhoto(ctx context.Context, id int64) (*model.Photo, error)

	// GetAllPhotos returns every photo in the catalog.
	GetAllPhotos(ctx context.Context) ([]*model.Photo, error)

	// GetPhotosInAlbum returns all photos belonging to the album.
	GetPhotosInAlbum(ctx context.Context, albumID int64) ([]*model.Photo, error)

	// GetPhotosChangedSince returns photos with UpdatedAt strictly after since.
	GetPhotosChangedSince(ctx context.Context, since time.Time) ([]*model.Photo, error)

	// UpsertPhoto inserts the photo, preserving a non-zero ID verbatim.
	UpsertPhoto(ctx context.Context, photo *model.Photo) error

	// UpdatePhoto updates an existing photo row.
	UpdatePhoto(ctx context.Context, photo *model.Photo) error

	// ClearAll deletes every album and photo row. Settings are kept.
	ClearAll(ctx context.Context) error

	// Settings and engine-owned scalars

	// Settings returns the user preferences, with defaults when unset.
	Settings(ctx context.Context) (*model.Settings, error)

	// SetSettings replaces the stored user preferences.
	SetSettings(ctx context.Context, s *model.Settings) error

	// WifiOnly reports whether sync may only run on unmetered networks.
	// Defaults to true when never set.
	WifiOnly(ctx context.Context) (bool, error)

	// SetWifiOnly stores the Wi-Fi-only preference.
	SetWifiOnly(ctx context.Context, wifiOnly bool) error

	// LastSyncedAt returns the end time of the last fully successful sync,
	// or the zero time when no sync has completed.
	LastSyncedAt(ctx context.Context) (time.Time, error)

	// SetLastSyncedAt persists the last successful sync time.
	SetLastSyncedAt(ctx context.Context, t time.Time) error

	// Close closes the underlying store.
	Close() error
}
