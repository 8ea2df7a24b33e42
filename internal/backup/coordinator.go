package backup

import (
	"context"
	"sync"
	"time"
)

// SyncState is the coordinator's externally visible state.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncSyncing
	SyncDone
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncSyncing:
		return "syncing"
	case SyncDone:
		return "done"
	case SyncError:
		return "error"
	default:
		return "unknown"
	}
}

// SyncJobName is the unique job name under which sync work is enqueued.
// Rapid successive requests replace the queued job instead of stacking up.
const SyncJobName = "photokeep-sync"

// DefaultDebounceInterval bounds how often bursty local writes can
// (re-)trigger the remote job.
const DefaultDebounceInterval = 2 * time.Second

// SyncCoordinator is the public entry point invoked on every local mutation.
// It debounces requests, tracks sync state, and keeps at most one outstanding
// remote job enqueued. It is safe for concurrent use from any goroutine: the
// debounce check-and-update and the state transition happen under one mutex,
// so two near-simultaneous callers cannot both pass the debounce window.
type SyncCoordinator struct {
	runner   JobRunner
	newJob   func() Job
	catalog  Catalog
	clock    Clock
	logger   Logger
	interval time.Duration

	mu          sync.Mutex
	state       SyncState
	lastRequest time.Time
}

// NewSyncCoordinator creates a coordinator submitting jobs built by newJob to
// runner. A non-positive interval falls back to DefaultDebounceInterval.
func NewSyncCoordinator(runner JobRunner, newJob func() Job, catalog Catalog, clock Clock, logger Logger, interval time.Duration) *SyncCoordinator {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	return &SyncCoordinator{
		runner:   runner,
		newJob:   newJob,
		catalog:  catalog,
		clock:    clock,
		logger:   logger,
		interval: interval,
	}
}

// RequestSync is called on any catalog mutation. Calls inside the debounce
// window are silent no-ops; an accepted call reads the Wi-Fi-only preference,
// enqueues one uniquely-named job (replacing any not-yet-started one) and
// moves the state to Syncing. Failures to enqueue surface as the Error state.
func (c *SyncCoordinator) RequestSync(ctx context.Context, reason string) {
	c.mu.Lock()
	now := c.clock.Now()
	if elapsed := now.Sub(c.lastRequest); c.lastRequest != (time.Time{}) && elapsed < c.interval {
		c.mu.Unlock()
		c.logger.Debug("sync request debounced", "reason", reason, "elapsed", elapsed)
		return
	}
	c.lastRequest = now
	c.state = SyncSyncing
	c.mu.Unlock()

	c.logger.Debug("sync requested", "reason", reason)

	// Preference read failure is not worth losing the sync over; default to
	// the conservative Wi-Fi-only setting.
	wifiOnly, err := c.catalog.WifiOnly(ctx)
	if err != nil {
		c.logger.Warn("wifi-only preference unavailable, defaulting to true", "error", err)
		wifiOnly = true
	}

	constraints := Constraints{
		NetworkUnmetered: wifiOnly,
		BatteryNotLow:    true,
	}

	if err := c.runner.EnqueueUnique(SyncJobName, true, constraints, c.newJob()); err != nil {
		c.logger.Error("sync job not enqueued", "error", err)
		c.setState(SyncError)
		return
	}

	c.logger.Debug("sync job enqueued", "wifi_only", wifiOnly)
}

// OnJobFinished is called by the sync job once it reaches a terminal outcome.
func (c *SyncCoordinator) OnJobFinished(ok bool) {
	if ok {
		c.setState(SyncDone)
	} else {
		c.setState(SyncError)
	}
	c.logger.Debug("sync job finished", "ok", ok)
}

// ResetToIdle returns the state to Idle. Caller-driven: the UI invokes this
// after displaying Done or Error for a while.
func (c *SyncCoordinator) ResetToIdle() {
	c.setState(SyncIdle)
}

// State returns the current sync state.
func (c *SyncCoordinator) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *SyncCoordinator) setState(s SyncState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
