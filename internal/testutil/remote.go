package testutil

import (
	"photokeep/internal/backup"
	"photokeep/internal/remote"
)

// NewTestRemote creates a new in-memory remote store for testing.
func NewTestRemote(clock backup.Clock) *remote.MemoryRemoteStore {
	return remote.NewMemoryRemoteStore("test-remote", clock)
}
