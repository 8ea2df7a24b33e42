package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"photokeep/internal/backup"
)

// MemoryRemoteStore keeps objects in process memory. Useful for tests and
// for exercising the sync pipeline without any real remote.
type MemoryRemoteStore struct {
	name  string
	clock backup.Clock

	mu      sync.Mutex
	objects map[string]*memoryObject
}

type memoryObject struct {
	name     string
	data     []byte
	modified time.Time
}

func NewMemoryRemoteStore(name string, clock backup.Clock) *MemoryRemoteStore {
	return &MemoryRemoteStore{
		name:    name,
		clock:   clock,
		objects: make(map[string]*memoryObject),
	}
}

func (s *MemoryRemoteStore) FindLatestByName(ctx context.Context, name string) (*backup.RemoteObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[name]
	if !ok {
		return nil, nil
	}
	return &backup.RemoteObject{
		ID:           obj.name,
		Name:         obj.name,
		ModifiedTime: obj.modified,
	}, nil
}

func (s *MemoryRemoteStore) Download(ctx context.Context, id string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	obj, ok := s.objects[id]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("object not found: %s", id)
	}
	if _, err := io.Copy(w, bytes.NewReader(obj.data)); err != nil {
		return fmt.Errorf("reading object %s: %w", id, err)
	}
	return nil
}

func (s *MemoryRemoteStore) CreateOrUpdate(ctx context.Context, name string, r io.Reader, size int64, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read object: %w", err)
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = &memoryObject{
		name:     name,
		data:     data,
		modified: s.clock.Now(),
	}
	return name, nil
}

func (s *MemoryRemoteStore) ValidateSetup(ctx context.Context) error {
	return nil
}

// ObjectCount reports the number of stored objects.
func (s *MemoryRemoteStore) ObjectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// ObjectBytes returns a copy of an object's contents, or nil when absent.
func (s *MemoryRemoteStore) ObjectBytes(name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out
}

// Compile-time check that MemoryRemoteStore implements the backup.RemoteStore interface
var _ backup.RemoteStore = (*MemoryRemoteStore)(nil)
