package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"photokeep/internal/backup"
	"photokeep/internal/catalog"
	"photokeep/internal/config"
	"photokeep/internal/remote"
	"photokeep/internal/runner"
	"photokeep/internal/storage"
)

// App is the application layer between the CLI and the backup engine. It
// constructs all dependencies from config, exposes high-level operations, and
// manages the catalog lifecycle on Close.
type App struct {
	cfg         *config.Config
	catalog     backup.Catalog
	media       backup.MediaStore
	builder     *backup.SnapshotBuilder
	local       *backup.LocalBackupEngine
	coordinator *backup.SyncCoordinator
	runner      *runner.LocalRunner
	logger      backup.Logger
	logFile     *os.File

	remoteMu sync.Mutex
	remote   backup.RemoteStore
}

// Status is a point-in-time view of the engine for the status command.
type Status struct {
	SyncState    backup.SyncState
	LastSyncedAt time.Time
	WifiOnly     bool
	Albums       int
	Photos       int
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Export", "Sync").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	cat, err := catalog.NewCatalogFromConfig(cfg.Catalog)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating catalog: %w", err)
	}

	media, err := storage.NewDirMediaStore(cfg.MediaDir)
	if err != nil {
		cat.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating media store: %w", err)
	}

	clock := backup.RealClock{}
	builder := backup.NewSnapshotBuilder(cat, clock)
	local := backup.NewLocalBackupEngine(cat, media, builder, logger)

	jr := runner.NewLocalRunner(logger, runner.Options{
		InitialBackoff: time.Duration(cfg.Sync.BackoffSeconds) * time.Second,
		MaxAttempts:    cfg.Sync.MaxAttempts,
	})

	a := &App{
		cfg:     cfg,
		catalog: cat,
		media:   media,
		builder: builder,
		local:   local,
		runner:  jr,
		logger:  logger,
		logFile: logFile,
	}

	debounce := time.Duration(cfg.Sync.DebounceSeconds) * time.Second
	newJob := func() backup.Job {
		return backup.NewSyncJob(cat, media, a.resolveRemote, builder, a.coordinator, logger, clock, cfg.Sync.MaxConcurrentUploads)
	}
	a.coordinator = backup.NewSyncCoordinator(jr, newJob, cat, clock, logger, debounce)

	logger.Info("app starting", "operation", operation, "device", cfg.DeviceID)
	return a, nil
}

// resolveRemote builds the configured remote store on first use and validates
// it is reachable on every call. Unreachable remotes are reported with
// backup.ErrRemoteUnavailable so the sync job retries instead of failing.
func (a *App) resolveRemote(ctx context.Context) (backup.RemoteStore, error) {
	a.remoteMu.Lock()
	defer a.remoteMu.Unlock()

	if a.remote == nil {
		r, err := remote.NewRemoteFromConfig(ctx, a.cfg.Remote, backup.RealClock{})
		if err != nil {
			return nil, fmt.Errorf("creating remote store: %w", err)
		}
		a.remote = r
	}

	if err := a.remote.ValidateSetup(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", backup.ErrRemoteUnavailable, err)
	}
	return a.remote, nil
}

// Export writes a snapshot plus media files into targetDir. An empty albumIDs
// slice exports the whole library.
func (a *App) Export(ctx context.Context, targetDir string, albumIDs []int64) (*backup.ExportReport, error) {
	return a.local.Export(ctx, targetDir, albumIDs)
}

// Import reads a previously exported backup folder into the catalog.
func (a *App) Import(ctx context.Context, sourceDir string, mode backup.ImportMode) (*backup.ImportReport, error) {
	return a.local.Import(ctx, sourceDir, mode)
}

// RestoreLatest downloads the newest remote snapshot and applies it.
func (a *App) RestoreLatest(ctx context.Context, mode backup.ImportMode, onProgress backup.Progress) (*backup.RestoreReport, error) {
	r, err := a.resolveRemote(ctx)
	if err != nil {
		return nil, err
	}
	engine := backup.NewRemoteRestoreEngine(a.catalog, a.media, r, a.logger, backup.UUIDGenerator{})
	return engine.RestoreLatest(ctx, mode, onProgress)
}

// RequestSync asks the coordinator for a sync; requests inside the debounce
// window are dropped.
func (a *App) RequestSync(ctx context.Context, reason string) {
	a.coordinator.RequestSync(ctx, reason)
}

// WaitForSync blocks until all enqueued sync jobs finish. Used by the CLI,
// which exits right after requesting a sync.
func (a *App) WaitForSync() {
	a.runner.Wait()
}

// SyncState returns the coordinator's current state.
func (a *App) SyncState() backup.SyncState {
	return a.coordinator.State()
}

// SetWifiOnly persists the unmetered-network preference for sync jobs.
func (a *App) SetWifiOnly(ctx context.Context, wifiOnly bool) error {
	return a.catalog.SetWifiOnly(ctx, wifiOnly)
}

// GetStatus collects the engine's current state for display.
func (a *App) GetStatus(ctx context.Context) (*Status, error) {
	albums, err := a.catalog.GetAllAlbums(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	photos, err := a.catalog.GetAllPhotos(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	wifiOnly, err := a.catalog.WifiOnly(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading wifi-only setting: %w", err)
	}
	lastSynced, err := a.catalog.LastSyncedAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading last sync time: %w", err)
	}

	return &Status{
		SyncState:    a.coordinator.State(),
		LastSyncedAt: lastSynced,
		WifiOnly:     wifiOnly,
		Albums:       len(albums),
		Photos:       len(photos),
	}, nil
}

// Catalog exposes the underlying catalog for commands that seed or inspect it.
func (a *App) Catalog() backup.Catalog {
	return a.catalog
}

// Close shuts down the runner and closes all resources.
func (a *App) Close() error {
	var firstErr error

	a.runner.Shutdown()

	if err := a.catalog.Close(); err != nil {
		firstErr = fmt.Errorf("closing catalog: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
