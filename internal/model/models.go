package model

import "time"

// Album groups photos in the local catalog.
// The ID is assigned once by the catalog store (autoincrement) and is
// preserved verbatim through every export/import/sync/restore round-trip.
type Album struct {
	ID           int64
	Name         string
	CoverPhotoID *int64 // references a photo id, nil when unset
	PhotoCount   int
	Favorite     bool
	Emoji        *string
	UpdatedAt    time.Time // monotonic mutation timestamp, conflict-resolution key
}

// Photo is a single photo row in the local catalog.
type Photo struct {
	ID        int64
	AlbumID   int64 // references an Album on the same device
	Filename  string
	Path      string // absolute local path; valid only on the originating device
	ThumbPath string // absolute local thumbnail path, empty when no thumbnail exists
	Width     int
	Height    int
	SizeBytes int64
	Caption   string
	Tags      []string // emoji glyph strings
	Favorite  bool
	TakenAt   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time // conflict-resolution key
}

// Settings are the user preferences that travel with a backup.
type Settings struct {
	ThemeMode   string // "system" | "light" | "dark"
	DefaultSort string // "name_asc" | "name_desc" | "date_new" | "date_old" | "fav_first"
	LastSearch  string
}
