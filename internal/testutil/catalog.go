package testutil

import (
	"testing"

	"photokeep/internal/backup"
	"photokeep/internal/catalog"
)

// NewTestCatalog creates a new in-memory SQLite catalog with the schema
// applied. The catalog is automatically closed when the test completes.
func NewTestCatalog(t *testing.T) backup.Catalog {
	t.Helper()

	cat, err := catalog.NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}

	t.Cleanup(func() {
		cat.Close()
	})

	return cat
}
