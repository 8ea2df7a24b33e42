package backup

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"photokeep/internal/model"
)

// SchemaVersion is the snapshot schema this engine reads and writes.
// A snapshot with any other version is rejected on import/restore.
const SchemaVersion = 1

// SnapshotName is the well-known file/object name of the serialized snapshot,
// both inside a local backup folder and in the remote store.
const SnapshotName = "backup.json"

// Snapshot is the portable, versioned representation of the whole catalog.
// It is built fresh on every export/upload and discarded after reconciliation.
// All timestamps are Unix milliseconds.
type Snapshot struct {
	SchemaVersion int              `json:"schemaVersion"`
	CreatedAt     int64            `json:"createdAt"`
	AppVersion    string           `json:"appVersion"`
	Settings      SnapshotSettings `json:"settings"`
	Albums        []SnapshotAlbum  `json:"albums"`
	Photos        []SnapshotPhoto  `json:"photos"`
}

type SnapshotSettings struct {
	ThemeMode   string `json:"themeMode"`
	DefaultSort string `json:"defaultSort"`
	LastSearch  string `json:"lastSearch"`
}

type SnapshotAlbum struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	CoverPhotoID *int64  `json:"coverPhotoId"`
	PhotoCount   int     `json:"photoCount"`
	Favorite     bool    `json:"favorite"`
	Emoji        *string `json:"emoji"`
	UpdatedAt    int64   `json:"updatedAt"`
}

type SnapshotPhoto struct {
	ID        int64    `json:"id"`
	AlbumID   int64    `json:"albumId"`
	Filename  string   `json:"filename"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	SizeBytes int64    `json:"sizeBytes"`
	Caption   string   `json:"caption"`
	Tags      []string `json:"tags"`
	Favorite  bool     `json:"favorite"`
	TakenAt   int64    `json:"takenAt"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	// Path and ThumbPath are the originating device's local paths. They are
	// recorded for debugging but never trusted on import.
	Path      string `json:"path"`
	ThumbPath string `json:"thumbPath"`
	// RelativePath is the deterministic media location, "photos/{albumId}/{id}.jpg".
	RelativePath string `json:"relativePath"`
}

// PhotoRelPath returns the deterministic media path for a photo's original.
// It is a function of identity only and is the join key between snapshot
// metadata and binary content across every storage backend.
func PhotoRelPath(albumID, photoID int64) string {
	return fmt.Sprintf("photos/%d/%d.jpg", albumID, photoID)
}

// ThumbRelPath returns the deterministic media path for a photo's thumbnail.
func ThumbRelPath(albumID, photoID int64) string {
	return fmt.Sprintf("thumbs/%d/%d.jpg", albumID, photoID)
}

// EncodeSnapshot writes the snapshot as pretty-printed JSON.
func EncodeSnapshot(w io.Writer, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot parses a snapshot document and validates its schema version.
// Unknown fields are tolerated so newer minor additions do not break older
// readers; a schema version mismatch is a hard failure.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snap.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported snapshot schema version %d (supported: %d)", snap.SchemaVersion, SchemaVersion)
	}

	return &snap, nil
}

// millis converts a time to Unix milliseconds for the snapshot wire form.
func millis(t time.Time) int64 { return t.UnixMilli() }

// fromMillis converts snapshot Unix milliseconds back to a time.
func fromMillis(ms int64) time.Time { return time.UnixMilli(ms) }

// snapshotAlbum maps a catalog album to its snapshot form.
func snapshotAlbum(a *model.Album) SnapshotAlbum {
	return SnapshotAlbum{
		ID:           a.ID,
		Name:         a.Name,
		CoverPhotoID: a.CoverPhotoID,
		PhotoCount:   a.PhotoCount,
		Favorite:     a.Favorite,
		Emoji:        a.Emoji,
		UpdatedAt:    millis(a.UpdatedAt),
	}
}

// snapshotPhoto maps a catalog photo to its snapshot form.
func snapshotPhoto(p *model.Photo) SnapshotPhoto {
	return SnapshotPhoto{
		ID:           p.ID,
		AlbumID:      p.AlbumID,
		Filename:     p.Filename,
		Width:        p.Width,
		Height:       p.Height,
		SizeBytes:    p.SizeBytes,
		Caption:      p.Caption,
		Tags:         p.Tags,
		Favorite:     p.Favorite,
		TakenAt:      millis(p.TakenAt),
		CreatedAt:    millis(p.CreatedAt),
		UpdatedAt:    millis(p.UpdatedAt),
		Path:         p.Path,
		ThumbPath:    p.ThumbPath,
		RelativePath: PhotoRelPath(p.AlbumID, p.ID),
	}
}
