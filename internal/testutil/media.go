package testutil

import (
	"io"
	"os"
	"testing"

	"photokeep/internal/storage"
)

// NewTestMediaStore creates a media store rooted in a test temp directory.
func NewTestMediaStore(t *testing.T) *storage.DirMediaStore {
	t.Helper()

	m, err := storage.NewDirMediaStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create media store: %v", err)
	}
	return m
}

// WriteFile writes content to an absolute path, creating parent directories.
func WriteFile(t *testing.T, m *storage.DirMediaStore, path string, content []byte) {
	t.Helper()

	w, err := m.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close %s: %v", path, err)
	}
}

// ReadFile reads a file at an absolute path, failing the test on error.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}
