package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"photokeep/internal/model"
)

// Progress reports a restore step to the caller: a human-readable step name
// plus done/total for a determinate indicator. Invoked after each meaningful
// unit (snapshot download, each album, each photo).
type Progress func(step string, done, total int)

// RestoreReport summarizes a remote restore.
type RestoreReport struct {
	AlbumsAffected int // inserted + updated
	PhotosAffected int
	FilesMissing   int // photos restored metadata-only
}

// RemoteRestoreEngine downloads the latest remote snapshot and media and
// reconciles them into the local catalog. Restore is a rare, user-initiated
// operation: downloads are strictly sequential and progress-tracked.
type RemoteRestoreEngine struct {
	catalog Catalog
	media   MediaStore
	remote  RemoteStore
	logger  Logger
	idgen   IDGenerator
}

// NewRemoteRestoreEngine creates a restore engine reading from remote.
func NewRemoteRestoreEngine(catalog Catalog, media MediaStore, remote RemoteStore, logger Logger, idgen IDGenerator) *RemoteRestoreEngine {
	return &RemoteRestoreEngine{
		catalog: catalog,
		media:   media,
		remote:  remote,
		logger:  logger,
		idgen:   idgen,
	}
}

// RestoreLatest finds the current remote snapshot and reconciles it locally.
// No remote snapshot is not an error: the report is all zeros. Failures while
// fetching or parsing the snapshot are fatal (nothing has been mutated yet);
// failures on individual albums, photos or media downloads are skipped and
// counted so one bad record cannot abort the whole restore.
func (e *RemoteRestoreEngine) RestoreLatest(ctx context.Context, mode ImportMode, onProgress Progress) (*RestoreReport, error) {
	if onProgress == nil {
		onProgress = func(string, int, int) {}
	}
	e.logger.Info("restore started", "mode", mode.String())

	onProgress("Checking for backup", 0, 1)
	latest, err := e.remote.FindLatestByName(ctx, SnapshotName)
	if err != nil {
		return nil, fmt.Errorf("finding remote snapshot: %w", err)
	}
	if latest == nil {
		e.logger.Info("no remote snapshot found")
		return &RestoreReport{}, nil
	}

	onProgress("Downloading backup", 0, 1)
	snap, err := e.downloadSnapshot(ctx, latest.ID)
	if err != nil {
		return nil, err
	}
	onProgress("Downloading backup", 1, 1)

	if mode == ReplaceAll {
		if err := e.catalog.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clearing catalog: %w", err)
		}
		if err := e.catalog.SetSettings(ctx, &model.Settings{
			ThemeMode:   snap.Settings.ThemeMode,
			DefaultSort: snap.Settings.DefaultSort,
			LastSearch:  snap.Settings.LastSearch,
		}); err != nil {
			return nil, fmt.Errorf("applying settings: %w", err)
		}
	}

	report := &RestoreReport{}
	force := mode == ReplaceAll

	// Albums before photos so album references resolve.
	for i, sa := range snap.Albums {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome, err := reconcileAlbum(ctx, e.catalog, sa, force)
		if err != nil {
			e.logger.Warn("album not restored", "album", sa.ID, "error", err)
		} else if outcome != mergeSkipped {
			report.AlbumsAffected++
		}
		onProgress("Restoring albums", i+1, len(snap.Albums))
	}

	touched := make(map[int64]bool)
	for i, sp := range snap.Photos {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		e.restorePhoto(ctx, sp, force, report, touched)
		onProgress("Restoring photos", i+1, len(snap.Photos))
	}

	if err := refreshAlbumCounts(ctx, e.catalog, touched); err != nil {
		e.logger.Warn("album counts not refreshed", "error", err)
	}

	e.logger.Info("restore finished",
		"albums", report.AlbumsAffected, "photos", report.PhotosAffected,
		"missing_files", report.FilesMissing)
	return report, nil
}

// downloadSnapshot fetches the snapshot object into a temp file and parses it.
func (e *RemoteRestoreEngine) downloadSnapshot(ctx context.Context, objectID string) (*Snapshot, error) {
	tmpPath := filepath.Join(os.TempDir(), "photokeep-restore-"+e.idgen.New()+".json")
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmpPath)

	if err := e.remote.Download(ctx, objectID, tmp); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("downloading snapshot: %w", err)
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("rewinding snapshot: %w", err)
	}

	snap, err := DecodeSnapshot(tmp)
	tmp.Close()
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// restorePhoto downloads one photo's original by its deterministic name and
// reconciles the metadata row. A failed download leaves a metadata-only photo
// (the row exists, the file may be absent) and bumps the missing counter.
// Thumbnails are not restored; the app regenerates them on demand.
func (e *RemoteRestoreEngine) restorePhoto(ctx context.Context, sp SnapshotPhoto, force bool, report *RestoreReport, touched map[int64]bool) {
	dst := e.media.PhotoPath(sp.AlbumID, sp.ID)

	if err := e.downloadMedia(ctx, PhotoRelPath(sp.AlbumID, sp.ID), dst); err != nil {
		if ctx.Err() != nil {
			return
		}
		e.logger.Warn("photo file not downloaded", "photo", sp.ID, "error", err)
		report.FilesMissing++
	}

	outcome, err := reconcilePhoto(ctx, e.catalog, sp, force, func(existing *model.Photo) *model.Photo {
		row := photoFromSnapshot(sp)
		row.Path = dst
		row.SizeBytes = sp.SizeBytes
		if existing != nil {
			row.ThumbPath = existing.ThumbPath
		}
		return row
	})
	if err != nil {
		e.logger.Warn("photo not restored", "photo", sp.ID, "error", err)
		return
	}

	if outcome != mergeSkipped {
		report.PhotosAffected++
		touched[sp.AlbumID] = true
	}
}

// downloadMedia looks up a media object by its deterministic name and streams
// it to a local file. Each photo is an individual remote request.
func (e *RemoteRestoreEngine) downloadMedia(ctx context.Context, name, dstPath string) error {
	obj, err := e.remote.FindLatestByName(ctx, name)
	if err != nil {
		return fmt.Errorf("finding %s: %w", name, err)
	}
	if obj == nil {
		return fmt.Errorf("object not found: %s", name)
	}

	dst, err := e.media.Create(dstPath)
	if err != nil {
		return fmt.Errorf("creating local file: %w", err)
	}

	if err := e.remote.Download(ctx, obj.ID, dst); err != nil {
		dst.Close()
		return fmt.Errorf("downloading %s: %w", name, err)
	}
	return dst.Close()
}
