package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"photokeep/internal/backup"
)

// DirMediaStore is the app-private media directory on local disk. Originals
// and thumbnails live under fixed subtrees keyed by album and photo id:
//
//	<root>/photos/<albumId>/<photoId>.jpg
//	<root>/thumbs/<albumId>/<photoId>.jpg
type DirMediaStore struct {
	root string
}

// NewDirMediaStore creates a media store rooted at root, creating the
// directory if needed.
func NewDirMediaStore(root string) (*DirMediaStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &DirMediaStore{root: root}, nil
}

func (m *DirMediaStore) PhotoPath(albumID, photoID int64) string {
	return filepath.Join(m.root, "photos", fmt.Sprintf("%d", albumID), fmt.Sprintf("%d.jpg", photoID))
}

func (m *DirMediaStore) ThumbPath(albumID, photoID int64) string {
	return filepath.Join(m.root, "thumbs", fmt.Sprintf("%d", albumID), fmt.Sprintf("%d.jpg", photoID))
}

func (m *DirMediaStore) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (m *DirMediaStore) Create(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating media file: %w", err)
	}
	return f, nil
}

func (m *DirMediaStore) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Root returns the media root directory.
func (m *DirMediaStore) Root() string {
	return m.root
}

// Compile-time check that DirMediaStore implements the backup.MediaStore interface
var _ backup.MediaStore = (*DirMediaStore)(nil)
