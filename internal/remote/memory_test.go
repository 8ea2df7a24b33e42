package remote

import (
	"bytes"
	"context"
	"testing"

	"photokeep/internal/backup"
)

func TestMemoryRemoteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips an object", func(t *testing.T) {
		s := NewMemoryRemoteStore("test", backup.RealClock{})

		data := []byte("content")
		id, err := s.CreateOrUpdate(ctx, "backup.json", bytes.NewReader(data), int64(len(data)), "application/json")
		if err != nil {
			t.Fatalf("CreateOrUpdate() error = %v", err)
		}

		obj, err := s.FindLatestByName(ctx, "backup.json")
		if err != nil {
			t.Fatalf("FindLatestByName() error = %v", err)
		}
		if obj == nil || obj.ID != id {
			t.Fatalf("obj = %+v, want id %q", obj, id)
		}

		var buf bytes.Buffer
		if err := s.Download(ctx, obj.ID, &buf); err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if buf.String() != "content" {
			t.Errorf("downloaded = %q, want content", buf.String())
		}
	})

	t.Run("returns nil for a missing object", func(t *testing.T) {
		s := NewMemoryRemoteStore("test", backup.RealClock{})

		obj, err := s.FindLatestByName(ctx, "nope")
		if err != nil {
			t.Fatalf("FindLatestByName() error = %v", err)
		}
		if obj != nil {
			t.Errorf("obj = %+v, want nil", obj)
		}
	})

	t.Run("rejects a size mismatch", func(t *testing.T) {
		s := NewMemoryRemoteStore("test", backup.RealClock{})

		if _, err := s.CreateOrUpdate(ctx, "x", bytes.NewReader([]byte("abc")), 99, "text/plain"); err == nil {
			t.Fatal("CreateOrUpdate() error = nil, want size mismatch")
		}
	})

	t.Run("overwrite replaces content", func(t *testing.T) {
		s := NewMemoryRemoteStore("test", backup.RealClock{})

		for _, v := range []string{"v1", "v2"} {
			if _, err := s.CreateOrUpdate(ctx, "obj", bytes.NewReader([]byte(v)), 2, "text/plain"); err != nil {
				t.Fatalf("CreateOrUpdate(%s) error = %v", v, err)
			}
		}

		if got := s.ObjectBytes("obj"); string(got) != "v2" {
			t.Errorf("object = %q, want v2", got)
		}
		if s.ObjectCount() != 1 {
			t.Errorf("objectCount = %d, want 1", s.ObjectCount())
		}
	})
}
