package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"photokeep/internal/backup"
)

// DirRemoteStore is a directory-backed implementation of the RemoteStore
// interface: an "application-private cloud folder" that happens to be a
// mounted directory. Object names map directly onto relative paths, so the
// layout mirrors the remote convention:
//
//	<root>/
//	  backup.json
//	  photos/<albumId>/<photoId>.jpg
//	  thumbs/<albumId>/<photoId>.jpg
//
// Object ids are the names themselves.
type DirRemoteStore struct {
	name string
	root string
}

// NewDirRemoteStore creates a directory-backed remote store rooted at root.
func NewDirRemoteStore(name, root string) (*DirRemoteStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create remote root: %w", err)
	}
	return &DirRemoteStore{name: name, root: root}, nil
}

func (s *DirRemoteStore) FindLatestByName(ctx context.Context, name string) (*backup.RemoteObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(s.objectPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}

	return &backup.RemoteObject{
		ID:           name,
		Name:         name,
		ModifiedTime: info.ModTime(),
	}, nil
}

func (s *DirRemoteStore) Download(ctx context.Context, id string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(s.objectPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("object not found: %s", id)
		}
		return fmt.Errorf("opening object %s: %w", id, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading object %s: %w", id, err)
	}
	return nil
}

func (s *DirRemoteStore) CreateOrUpdate(ctx context.Context, name string, r io.Reader, size int64, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	destPath := s.objectPath(name)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}

	// Temp file + rename so a concurrent reader never sees a torn object.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		os.Remove(tmpPath)
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	return name, nil
}

// ValidateSetup verifies that the root directory is accessible.
func (s *DirRemoteStore) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("remote root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("remote root is not a directory: %s", s.root)
	}
	return nil
}

func (s *DirRemoteStore) objectPath(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Compile-time check that DirRemoteStore implements the backup.RemoteStore interface
var _ backup.RemoteStore = (*DirRemoteStore)(nil)
