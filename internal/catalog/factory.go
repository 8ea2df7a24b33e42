package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"photokeep/internal/backup"
	"photokeep/internal/config"
)

// NewCatalogFromConfig creates a Catalog implementation based on the catalog config type.
func NewCatalogFromConfig(cfg config.CatalogConfig) (backup.Catalog, error) {
	switch cfg.Type {
	case "memory":
		// Same implementation, sqlite in-memory. There is no separate pure-Go
		// store; the driver's :memory: mode covers tests and throwaway runs.
		return NewSQLiteCatalog(":memory:")
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("sqlite catalog requires data_dir to be set")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating catalog data dir: %w", err)
		}
		return NewSQLiteCatalog(filepath.Join(cfg.DataDir, "catalog.db"))
	default:
		return nil, fmt.Errorf("unknown catalog type: %s", cfg.Type)
	}
}
