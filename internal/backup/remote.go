package backup

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrRemoteUnavailable is returned by a RemoteResolver when the remote store
// cannot be used yet (for example, the user has not authenticated). It is a
// recoverable condition: a sync job hitting it reports retry, not failure.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// RemoteObject describes an object in the remote store.
type RemoteObject struct {
	ID           string
	Name         string
	ModifiedTime time.Time
}

// RemoteStore provides an interface for name-addressed remote object storage.
// Names may contain slashes; the store treats them as opaque keys.
type RemoteStore interface {
	// FindLatestByName returns the most recently modified object with the
	// given name, or nil when none exists.
	FindLatestByName(ctx context.Context, name string) (*RemoteObject, error)

	// Download streams the object with the given id to w.
	Download(ctx context.Context, id string, w io.Writer) error

	// CreateOrUpdate stores size bytes from r under name, creating the object
	// if absent or overwriting the existing one. Returns the object id.
	CreateOrUpdate(ctx context.Context, name string, r io.Reader, size int64, mimeType string) (string, error)

	// ValidateSetup verifies that the store is reachable and configured.
	ValidateSetup(ctx context.Context) error
}

// RemoteResolver lazily resolves the remote store. Resolution happens at job
// run time rather than construction time because availability can change
// between enqueue and execution.
type RemoteResolver func(ctx context.Context) (RemoteStore, error)
