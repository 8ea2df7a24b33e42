package backup

import "io"

// MediaStore provides an interface for the app-private binary file store that
// holds original photos and thumbnails, laid out by convention:
//
//	<root>/photos/{albumId}/{photoId}.jpg
//	<root>/thumbs/{albumId}/{photoId}.jpg
type MediaStore interface {
	// PhotoPath returns the absolute local path for a photo's original.
	PhotoPath(albumID, photoID int64) string

	// ThumbPath returns the absolute local path for a photo's thumbnail.
	ThumbPath(albumID, photoID int64) string

	// Open opens the file at an absolute path for reading.
	// Missing files are reported with an error satisfying errors.Is(err, fs.ErrNotExist).
	Open(path string) (io.ReadCloser, error)

	// Create creates (or truncates) the file at an absolute path for writing,
	// creating parent directories as needed.
	Create(path string) (io.WriteCloser, error)

	// Size returns the size in bytes of the file at an absolute path.
	// Missing files are reported with an error satisfying errors.Is(err, fs.ErrNotExist).
	Size(path string) (int64, error)
}
