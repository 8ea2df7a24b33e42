package remote

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDirRemoteStore(t *testing.T) {
	t.Run("creates the root directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "remote")

		s, err := NewDirRemoteStore("test", root)
		if err != nil {
			t.Fatalf("NewDirRemoteStore() error = %v", err)
		}
		if _, err := os.Stat(root); err != nil {
			t.Errorf("root directory not created: %v", err)
		}
		if s.name != "test" {
			t.Errorf("name = %q, want test", s.name)
		}
	})

	t.Run("works with an existing directory", func(t *testing.T) {
		if _, err := NewDirRemoteStore("test", t.TempDir()); err != nil {
			t.Fatalf("NewDirRemoteStore() error = %v", err)
		}
	})
}

func TestDirRemoteStore_CreateOrUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("stores an object and returns its name as id", func(t *testing.T) {
		s, _ := NewDirRemoteStore("test", t.TempDir())

		data := []byte("snapshot content")
		id, err := s.CreateOrUpdate(ctx, "backup.json", bytes.NewReader(data), int64(len(data)), "application/json")
		if err != nil {
			t.Fatalf("CreateOrUpdate() error = %v", err)
		}
		if id != "backup.json" {
			t.Errorf("id = %q, want backup.json", id)
		}
	})

	t.Run("creates nested directories for media names", func(t *testing.T) {
		s, _ := NewDirRemoteStore("test", t.TempDir())

		data := []byte("jpeg")
		if _, err := s.CreateOrUpdate(ctx, "photos/1/10.jpg", bytes.NewReader(data), int64(len(data)), "image/jpeg"); err != nil {
			t.Fatalf("CreateOrUpdate() error = %v", err)
		}

		var buf bytes.Buffer
		if err := s.Download(ctx, "photos/1/10.jpg", &buf); err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if buf.String() != "jpeg" {
			t.Errorf("downloaded = %q, want jpeg", buf.String())
		}
	})

	t.Run("overwrites an existing object", func(t *testing.T) {
		s, _ := NewDirRemoteStore("test", t.TempDir())

		first := []byte("v1")
		if _, err := s.CreateOrUpdate(ctx, "backup.json", bytes.NewReader(first), int64(len(first)), "application/json"); err != nil {
			t.Fatalf("first CreateOrUpdate() error = %v", err)
		}
		second := []byte("v2 longer")
		if _, err := s.CreateOrUpdate(ctx, "backup.json", bytes.NewReader(second), int64(len(second)), "application/json"); err != nil {
			t.Fatalf("second CreateOrUpdate() error = %v", err)
		}

		var buf bytes.Buffer
		if err := s.Download(ctx, "backup.json", &buf); err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if buf.String() != "v2 longer" {
			t.Errorf("downloaded = %q, want v2 longer", buf.String())
		}
	})

	t.Run("rejects a size mismatch", func(t *testing.T) {
		s, _ := NewDirRemoteStore("test", t.TempDir())

		if _, err := s.CreateOrUpdate(ctx, "backup.json", strings.NewReader("short"), 100, "application/json"); err == nil {
			t.Fatal("CreateOrUpdate() error = nil, want size mismatch")
		}
	})
}

func TestDirRemoteStore_FindLatestByName(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil for a missing object", func(t *testing.T) {
		s, _ := NewDirRemoteStore("test", t.TempDir())

		obj, err := s.FindLatestByName(ctx, "backup.json")
		if err != nil {
			t.Fatalf("FindLatestByName() error = %v", err)
		}
		if obj != nil {
			t.Errorf("obj = %+v, want nil", obj)
		}
	})

	t.Run("returns id, name and modified time for an existing object", func(t *testing.T) {
		s, _ := NewDirRemoteStore("test", t.TempDir())

		data := []byte("x")
		if _, err := s.CreateOrUpdate(ctx, "backup.json", bytes.NewReader(data), 1, "application/json"); err != nil {
			t.Fatalf("CreateOrUpdate() error = %v", err)
		}

		obj, err := s.FindLatestByName(ctx, "backup.json")
		if err != nil {
			t.Fatalf("FindLatestByName() error = %v", err)
		}
		if obj == nil {
			t.Fatal("obj = nil, want object")
		}
		if obj.ID != "backup.json" || obj.Name != "backup.json" {
			t.Errorf("obj = %+v", obj)
		}
		if obj.ModifiedTime.IsZero() {
			t.Error("modifiedTime is zero")
		}
	})
}

func TestDirRemoteStore_Download(t *testing.T) {
	t.Run("fails for an unknown id", func(t *testing.T) {
		s, _ := NewDirRemoteStore("test", t.TempDir())

		var buf bytes.Buffer
		if err := s.Download(context.Background(), "missing.json", &buf); err == nil {
			t.Fatal("Download() error = nil, want not-found error")
		}
	})
}

func TestDirRemoteStore_ValidateSetup(t *testing.T) {
	t.Run("passes for an accessible root", func(t *testing.T) {
		s, _ := NewDirRemoteStore("test", t.TempDir())
		if err := s.ValidateSetup(context.Background()); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})

	t.Run("fails when the root has gone away", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "remote")
		s, _ := NewDirRemoteStore("test", root)
		if err := os.RemoveAll(root); err != nil {
			t.Fatalf("removing root: %v", err)
		}
		if err := s.ValidateSetup(context.Background()); err == nil {
			t.Error("ValidateSetup() error = nil, want error")
		}
	})
}
