package backup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"photokeep/internal/backup"
	"photokeep/internal/testutil"
)

// nopJob satisfies backup.Job for coordinator tests that never run the job.
type nopJob struct{}

func (nopJob) Run(context.Context) backup.JobResult { return backup.ResultSuccess }

func newCoordinator(t *testing.T, runner backup.JobRunner, clock backup.Clock) (*backup.SyncCoordinator, backup.Catalog) {
	t.Helper()
	cat := testutil.NewTestCatalog(t)
	c := backup.NewSyncCoordinator(runner, func() backup.Job { return nopJob{} }, cat, clock, backup.NewNopLogger(), 2*time.Second)
	return c, cat
}

func TestSyncCoordinator_RequestSync(t *testing.T) {
	t.Run("enqueues a replacing unique job and moves to syncing", func(t *testing.T) {
		runner := testutil.NewRecordingRunner()
		clock := testutil.FixedClock()
		c, _ := newCoordinator(t, runner, clock)

		c.RequestSync(context.Background(), "photo added")

		jobs := runner.Enqueued()
		if len(jobs) != 1 {
			t.Fatalf("enqueued = %d, want 1", len(jobs))
		}
		if jobs[0].Name != backup.SyncJobName {
			t.Errorf("name = %q, want %q", jobs[0].Name, backup.SyncJobName)
		}
		if !jobs[0].Replace {
			t.Error("replace = false, want true")
		}
		if c.State() != backup.SyncSyncing {
			t.Errorf("state = %v, want syncing", c.State())
		}
	})

	t.Run("carries the wifi-only preference into job constraints", func(t *testing.T) {
		runner := testutil.NewRecordingRunner()
		clock := testutil.FixedClock()
		c, cat := newCoordinator(t, runner, clock)

		// Defaults to wifi-only.
		c.RequestSync(context.Background(), "first")
		jobs := runner.Enqueued()
		if !jobs[0].Constraints.NetworkUnmetered {
			t.Error("networkUnmetered = false, want true by default")
		}
		if !jobs[0].Constraints.BatteryNotLow {
			t.Error("batteryNotLow = false, want true")
		}

		if err := cat.SetWifiOnly(context.Background(), false); err != nil {
			t.Fatalf("SetWifiOnly() error = %v", err)
		}
		clock.Advance(3 * time.Second)
		c.RequestSync(context.Background(), "second")

		jobs = runner.Enqueued()
		if len(jobs) != 2 {
			t.Fatalf("enqueued = %d, want 2", len(jobs))
		}
		if jobs[1].Constraints.NetworkUnmetered {
			t.Error("networkUnmetered = true, want false after preference change")
		}
	})

	t.Run("drops requests inside the debounce window", func(t *testing.T) {
		runner := testutil.NewRecordingRunner()
		clock := testutil.FixedClock()
		c, _ := newCoordinator(t, runner, clock)

		c.RequestSync(context.Background(), "burst 1")
		clock.Advance(500 * time.Millisecond)
		c.RequestSync(context.Background(), "burst 2")
		clock.Advance(500 * time.Millisecond)
		c.RequestSync(context.Background(), "burst 3")

		if got := runner.Count(); got != 1 {
			t.Errorf("enqueued = %d, want 1 (burst debounced)", got)
		}
	})

	t.Run("accepts again once the window has passed", func(t *testing.T) {
		runner := testutil.NewRecordingRunner()
		clock := testutil.FixedClock()
		c, _ := newCoordinator(t, runner, clock)

		c.RequestSync(context.Background(), "first")
		clock.Advance(2 * time.Second)
		c.RequestSync(context.Background(), "second")

		if got := runner.Count(); got != 2 {
			t.Errorf("enqueued = %d, want 2", got)
		}
	})

	t.Run("enqueue failure moves state to error", func(t *testing.T) {
		runner := testutil.NewRecordingRunner()
		runner.Err = errors.New("scheduler down")
		clock := testutil.FixedClock()
		c, _ := newCoordinator(t, runner, clock)

		c.RequestSync(context.Background(), "doomed")

		if c.State() != backup.SyncError {
			t.Errorf("state = %v, want error", c.State())
		}
	})
}

func TestSyncCoordinator_StateTransitions(t *testing.T) {
	runner := testutil.NewRecordingRunner()
	clock := testutil.FixedClock()
	c, _ := newCoordinator(t, runner, clock)

	if c.State() != backup.SyncIdle {
		t.Errorf("initial state = %v, want idle", c.State())
	}

	c.RequestSync(context.Background(), "go")
	if c.State() != backup.SyncSyncing {
		t.Errorf("state = %v, want syncing", c.State())
	}

	c.OnJobFinished(true)
	if c.State() != backup.SyncDone {
		t.Errorf("state = %v, want done", c.State())
	}

	c.OnJobFinished(false)
	if c.State() != backup.SyncError {
		t.Errorf("state = %v, want error", c.State())
	}

	c.ResetToIdle()
	if c.State() != backup.SyncIdle {
		t.Errorf("state = %v, want idle after reset", c.State())
	}
}
