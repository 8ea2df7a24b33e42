package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"photokeep/internal/model"
)

// ExportReport summarizes a folder export.
type ExportReport struct {
	Albums       int
	Photos       int
	FilesCopied  int
	FilesMissing int
	SnapshotPath string
}

// ImportReport summarizes a folder import.
type ImportReport struct {
	AlbumsInserted           int
	AlbumsUpdated            int
	PhotosInserted           int
	PhotosUpdated            int
	PhotosSkippedMissingFile int
}

// LocalBackupEngine exports the catalog to a user-chosen folder and imports
// a previously written folder back. Both operations are synchronous and
// caller-driven; per-item failures are counted, never fatal.
type LocalBackupEngine struct {
	catalog Catalog
	media   MediaStore
	builder *SnapshotBuilder
	logger  Logger
}

// NewLocalBackupEngine creates a local backup engine.
func NewLocalBackupEngine(catalog Catalog, media MediaStore, builder *SnapshotBuilder, logger Logger) *LocalBackupEngine {
	return &LocalBackupEngine{
		catalog: catalog,
		media:   media,
		builder: builder,
		logger:  logger,
	}
}

// Export writes the requested albums, their photos and the media tree into
// targetDir:
//
//	<targetDir>/backup.json
//	<targetDir>/media/photos/{albumId}/{photoId}.jpg
//	<targetDir>/media/thumbs/{albumId}/{photoId}.jpg   (when a thumbnail exists)
//
// Originals are copied from each photo's recorded path, not a path derived
// from convention. A missing original increments FilesMissing and the batch
// continues; a missing thumbnail is benign.
func (e *LocalBackupEngine) Export(ctx context.Context, targetDir string, albumIDs []int64) (*ExportReport, error) {
	e.logger.Info("export started", "target", targetDir, "albums", len(albumIDs))

	info, err := os.Stat(targetDir)
	if err != nil {
		return nil, fmt.Errorf("target folder not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("target is not a directory: %s", targetDir)
	}

	// Clear any pre-existing snapshot so a torn write never mixes versions.
	snapshotPath := filepath.Join(targetDir, SnapshotName)
	if err := os.Remove(snapshotPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("removing previous snapshot: %w", err)
	}

	// An empty id list exports the whole library.
	var snap *Snapshot
	if len(albumIDs) == 0 {
		snap, err = e.builder.Build(ctx)
	} else {
		snap, err = e.builder.BuildForAlbums(ctx, albumIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("building snapshot: %w", err)
	}

	if err := writeSnapshotFile(snapshotPath, snap); err != nil {
		return nil, err
	}

	report := &ExportReport{
		Albums:       len(snap.Albums),
		Photos:       len(snap.Photos),
		SnapshotPath: snapshotPath,
	}

	for _, sp := range snap.Photos {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		dst := filepath.Join(targetDir, "media", filepath.FromSlash(sp.RelativePath))
		if err := e.copyOut(sp.Path, dst); err != nil {
			e.logger.Warn("photo file not exported", "photo", sp.ID, "path", sp.Path, "error", err)
			report.FilesMissing++
			continue
		}
		report.FilesCopied++

		// Thumbnail is best-effort and never counted as missing.
		if sp.ThumbPath != "" {
			thumbDst := filepath.Join(targetDir, "media", filepath.FromSlash(ThumbRelPath(sp.AlbumID, sp.ID)))
			if err := e.copyOut(sp.ThumbPath, thumbDst); err != nil {
				e.logger.Debug("thumbnail not exported", "photo", sp.ID, "error", err)
			}
		}
	}

	e.logger.Info("export finished",
		"albums", report.Albums, "photos", report.Photos,
		"copied", report.FilesCopied, "missing", report.FilesMissing)
	return report, nil
}

// Import reads a backup folder written by Export and reconciles it into the
// local catalog. An unreadable snapshot or unsupported schema version aborts
// before anything is mutated; everything after that is per-item.
func (e *LocalBackupEngine) Import(ctx context.Context, sourceDir string, mode ImportMode) (*ImportReport, error) {
	e.logger.Info("import started", "source", sourceDir, "mode", mode.String())

	f, err := os.Open(filepath.Join(sourceDir, SnapshotName))
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	snap, err := DecodeSnapshot(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	if mode == ReplaceAll {
		if err := e.catalog.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clearing catalog: %w", err)
		}
		// Snapshot settings only replace local preferences when the user asked
		// for a wholesale replace; a merge leaves local preferences alone.
		if err := e.catalog.SetSettings(ctx, &model.Settings{
			ThemeMode:   snap.Settings.ThemeMode,
			DefaultSort: snap.Settings.DefaultSort,
			LastSearch:  snap.Settings.LastSearch,
		}); err != nil {
			return nil, fmt.Errorf("applying settings: %w", err)
		}
	}

	report := &ImportReport{}
	force := mode == ReplaceAll

	// Albums before photos so album references resolve.
	for _, sa := range snap.Albums {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome, err := reconcileAlbum(ctx, e.catalog, sa, force)
		if err != nil {
			e.logger.Warn("album not imported", "album", sa.ID, "error", err)
			continue
		}
		switch outcome {
		case mergeInserted:
			report.AlbumsInserted++
		case mergeUpdated:
			report.AlbumsUpdated++
		}
	}

	touched := make(map[int64]bool)
	for _, sp := range snap.Photos {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		e.importPhoto(ctx, sourceDir, sp, force, report, touched)
	}

	if err := refreshAlbumCounts(ctx, e.catalog, touched); err != nil {
		e.logger.Warn("album counts not refreshed", "error", err)
	}

	e.logger.Info("import finished",
		"albums_inserted", report.AlbumsInserted, "albums_updated", report.AlbumsUpdated,
		"photos_inserted", report.PhotosInserted, "photos_updated", report.PhotosUpdated,
		"missing_files", report.PhotosSkippedMissingFile)
	return report, nil
}

// importPhoto copies one photo's binary files out of the backup folder and
// reconciles its metadata row. The local path and thumbPath are always
// rewritten to point at local storage, never at snapshot-recorded paths.
func (e *LocalBackupEngine) importPhoto(ctx context.Context, sourceDir string, sp SnapshotPhoto, force bool, report *ImportReport, touched map[int64]bool) {
	dst := e.media.PhotoPath(sp.AlbumID, sp.ID)
	src := filepath.Join(sourceDir, "media", filepath.FromSlash(PhotoRelPath(sp.AlbumID, sp.ID)))

	filePresent := false
	if err := e.copyIn(src, dst); err != nil {
		e.logger.Warn("photo file missing from backup", "photo", sp.ID, "error", err)
		report.PhotosSkippedMissingFile++
	} else {
		filePresent = true
	}

	thumbDst := e.media.ThumbPath(sp.AlbumID, sp.ID)
	thumbSrc := filepath.Join(sourceDir, "media", filepath.FromSlash(ThumbRelPath(sp.AlbumID, sp.ID)))
	thumbPresent := e.copyIn(thumbSrc, thumbDst) == nil

	outcome, err := reconcilePhoto(ctx, e.catalog, sp, force, func(existing *model.Photo) *model.Photo {
		row := photoFromSnapshot(sp)
		row.Path = dst
		switch {
		case thumbPresent:
			row.ThumbPath = thumbDst
		case existing != nil:
			row.ThumbPath = existing.ThumbPath
		}
		row.SizeBytes = sp.SizeBytes
		if filePresent {
			if size, err := e.media.Size(dst); err == nil {
				row.SizeBytes = size
			}
		} else if existing != nil {
			row.SizeBytes = existing.SizeBytes
		}
		return row
	})
	if err != nil {
		e.logger.Warn("photo not imported", "photo", sp.ID, "error", err)
		return
	}

	switch outcome {
	case mergeInserted:
		report.PhotosInserted++
		touched[sp.AlbumID] = true
	case mergeUpdated:
		report.PhotosUpdated++
		touched[sp.AlbumID] = true
	}
}

// copyOut copies a file from local storage into the backup folder.
func (e *LocalBackupEngine) copyOut(srcPath, dstPath string) error {
	src, err := e.media.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("creating media directory: %w", err)
	}
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return fmt.Errorf("copying file: %w", err)
	}
	return dst.Close()
}

// copyIn copies a file from the backup folder into local storage.
func (e *LocalBackupEngine) copyIn(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := e.media.Create(dstPath)
	if err != nil {
		return fmt.Errorf("creating local file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copying file: %w", err)
	}
	return dst.Close()
}

// writeSnapshotFile writes the snapshot using a temp file and atomic rename
// so readers never observe a half-written document.
func writeSnapshotFile(destPath string, snap *Snapshot) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-snapshot-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if err := EncodeSnapshot(tmp, snap); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	return nil
}
