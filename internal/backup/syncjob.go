package backup

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrentUploads caps how many media uploads run at once during
// a sync job, bounding peak memory and connection use.
const DefaultMaxConcurrentUploads = 3

// JobNotifier receives the terminal outcome of a sync job.
type JobNotifier interface {
	OnJobFinished(ok bool)
}

// SyncJob is the unit of work executed by the external job runner. One run
// uploads a fresh full-catalog snapshot, then every photo changed since the
// last successful sync. Cancellation is cooperative: the context is checked
// before and after every remote call, and a cancelled run reports a terminal
// failure rather than a retry, since cancellation is intentional.
type SyncJob struct {
	catalog       Catalog
	media         MediaStore
	resolve       RemoteResolver
	builder       *SnapshotBuilder
	notifier      JobNotifier
	logger        Logger
	clock         Clock
	maxConcurrent int
}

// NewSyncJob creates a sync job. A non-positive maxConcurrent falls back to
// DefaultMaxConcurrentUploads.
func NewSyncJob(catalog Catalog, media MediaStore, resolve RemoteResolver, builder *SnapshotBuilder, notifier JobNotifier, logger Logger, clock Clock, maxConcurrent int) *SyncJob {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	return &SyncJob{
		catalog:       catalog,
		media:         media,
		resolve:       resolve,
		builder:       builder,
		notifier:      notifier,
		logger:        logger,
		clock:         clock,
		maxConcurrent: maxConcurrent,
	}
}

// Run executes one sync pass. The snapshot upload always precedes media
// uploads so a partially failed run still leaves a consistent, if slightly
// stale, remote snapshot.
func (j *SyncJob) Run(ctx context.Context) JobResult {
	if ctx.Err() != nil {
		return j.cancelled()
	}

	remote, err := j.resolve(ctx)
	if err != nil {
		if errors.Is(err, ErrRemoteUnavailable) {
			// Precondition not met yet (e.g. not authenticated). Recoverable:
			// let the runner re-attempt once it is.
			j.logger.Warn("remote store unavailable, retrying later", "error", err)
			return ResultRetry
		}
		j.logger.Error("resolving remote store", "error", err)
		j.notifier.OnJobFinished(false)
		return ResultRetry
	}

	if ctx.Err() != nil {
		return j.cancelled()
	}

	if err := j.uploadSnapshot(ctx, remote); err != nil {
		if ctx.Err() != nil {
			return j.cancelled()
		}
		j.logger.Error("snapshot upload failed", "error", err)
		j.notifier.OnJobFinished(false)
		return ResultRetry
	}

	if err := j.uploadChangedMedia(ctx, remote); err != nil {
		if ctx.Err() != nil {
			return j.cancelled()
		}
		j.logger.Error("media upload failed", "error", err)
		j.notifier.OnJobFinished(false)
		return ResultRetry
	}

	if ctx.Err() != nil {
		return j.cancelled()
	}

	now := j.clock.Now()
	if err := j.catalog.SetLastSyncedAt(ctx, now); err != nil {
		j.logger.Error("persisting last-synced time", "error", err)
		j.notifier.OnJobFinished(false)
		return ResultRetry
	}

	j.logger.Info("sync finished", "last_synced_at", now)
	j.notifier.OnJobFinished(true)
	return ResultSuccess
}

// uploadSnapshot builds a fresh snapshot of the entire catalog and overwrites
// the single always-current remote snapshot object.
func (j *SyncJob) uploadSnapshot(ctx context.Context, remote RemoteStore) error {
	snap, err := j.builder.Build(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, snap); err != nil {
		return err
	}

	j.logger.Debug("uploading snapshot", "bytes", buf.Len(), "albums", len(snap.Albums), "photos", len(snap.Photos))
	_, err = remote.CreateOrUpdate(ctx, SnapshotName, &buf, int64(buf.Len()), "application/json")
	return err
}

// uploadChangedMedia uploads the originals of every photo changed since the
// last successful sync, at most maxConcurrent at a time. One photo's failure
// is logged and skipped; cancellation aborts the whole batch.
func (j *SyncJob) uploadChangedMedia(ctx context.Context, remote RemoteStore) error {
	lastSynced, err := j.catalog.LastSyncedAt(ctx)
	if err != nil {
		return err
	}

	changed, err := j.catalog.GetPhotosChangedSince(ctx, lastSynced)
	if err != nil {
		return err
	}
	j.logger.Debug("changed photos since last sync", "count", len(changed), "since", lastSynced)

	var skipped atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(j.maxConcurrent)

	for _, p := range changed {
		p := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := j.uploadPhoto(ctx, remote, p.AlbumID, p.ID); err != nil {
				if ctx.Err() != nil {
					return err
				}
				j.logger.Warn("photo upload skipped", "photo", p.ID, "error", err)
				skipped.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if n := skipped.Load(); n > 0 {
		j.logger.Info("media upload finished with skips", "uploaded", int64(len(changed))-n, "skipped", n)
	}
	return nil
}

// uploadPhoto streams one photo's original to its deterministic remote name.
// A photo whose local file has gone missing is a skip, not a failure.
func (j *SyncJob) uploadPhoto(ctx context.Context, remote RemoteStore, albumID, photoID int64) error {
	path := j.media.PhotoPath(albumID, photoID)

	size, err := j.media.Size(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			j.logger.Warn("photo file missing locally, not uploaded", "photo", photoID, "path", path)
			return nil
		}
		return err
	}

	f, err := j.media.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := PhotoRelPath(albumID, photoID)
	if _, err := remote.CreateOrUpdate(ctx, name, f, size, "image/jpeg"); err != nil {
		return err
	}
	j.logger.Debug("photo uploaded", "name", name, "bytes", size)
	return nil
}

// cancelled reports the clean, non-retried stop a cancellation maps to.
func (j *SyncJob) cancelled() JobResult {
	j.logger.Info("sync cancelled")
	j.notifier.OnJobFinished(false)
	return ResultFailure
}
