package backup_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"photokeep/internal/backup"
	"photokeep/internal/remote"
	"photokeep/internal/storage"
	"photokeep/internal/testutil"
)

// recordingNotifier captures job outcome notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	outcomes []bool
}

func (n *recordingNotifier) OnJobFinished(ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, ok)
}

func (n *recordingNotifier) calls() []bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]bool, len(n.outcomes))
	copy(out, n.outcomes)
	return out
}

func staticResolver(r backup.RemoteStore) backup.RemoteResolver {
	return func(context.Context) (backup.RemoteStore, error) { return r, nil }
}

func failingResolver(err error) backup.RemoteResolver {
	return func(context.Context) (backup.RemoteStore, error) { return nil, err }
}

type syncJobFixture struct {
	cat      backup.Catalog
	media    *storage.DirMediaStore
	remote   *remote.MemoryRemoteStore
	notifier *recordingNotifier
	clock    *testutil.StubClock
}

func newSyncJob(t *testing.T, resolve backup.RemoteResolver) (*backup.SyncJob, *syncJobFixture) {
	t.Helper()
	f := &syncJobFixture{
		cat:      testutil.NewTestCatalog(t),
		media:    testutil.NewTestMediaStore(t),
		notifier: &recordingNotifier{},
		clock:    testutil.FixedClock(),
	}
	f.remote = testutil.NewTestRemote(f.clock)
	if resolve == nil {
		resolve = staticResolver(f.remote)
	}
	builder := backup.NewSnapshotBuilder(f.cat, f.clock)
	job := backup.NewSyncJob(f.cat, f.media, resolve, builder, f.notifier, backup.NewNopLogger(), f.clock, 3)
	return job, f
}

func TestSyncJob_Run(t *testing.T) {
	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("uploads snapshot and changed media then records the sync time", func(t *testing.T) {
		job, f := newSyncJob(t, nil)

		seedAlbum(t, f.cat, 1, "Vacation", base)
		seedPhoto(t, f.cat, f.media, 10, 1, "a.jpg", base)
		seedPhotoFile(t, f.media, 1, 10, []byte("jpeg bytes"))

		result := job.Run(context.Background())
		if result != backup.ResultSuccess {
			t.Fatalf("Run() = %v, want success", result)
		}

		snapBytes := f.remote.ObjectBytes(backup.SnapshotName)
		if snapBytes == nil {
			t.Fatal("remote snapshot object missing")
		}
		if got := f.remote.ObjectBytes("photos/1/10.jpg"); string(got) != "jpeg bytes" {
			t.Errorf("remote media = %q, want jpeg bytes", got)
		}

		lastSynced, err := f.cat.LastSyncedAt(context.Background())
		if err != nil {
			t.Fatalf("LastSyncedAt() error = %v", err)
		}
		if !lastSynced.Equal(f.clock.Now()) {
			t.Errorf("lastSyncedAt = %v, want %v", lastSynced, f.clock.Now())
		}

		if calls := f.notifier.calls(); len(calls) != 1 || !calls[0] {
			t.Errorf("notifier calls = %v, want [true]", calls)
		}
	})

	t.Run("uploads only photos changed since the last sync", func(t *testing.T) {
		job, f := newSyncJob(t, nil)

		seedAlbum(t, f.cat, 1, "Vacation", base)
		seedPhoto(t, f.cat, f.media, 10, 1, "old.jpg", base)
		seedPhoto(t, f.cat, f.media, 11, 1, "new.jpg", base.Add(2*time.Hour))
		seedPhotoFile(t, f.media, 1, 10, []byte("old"))
		seedPhotoFile(t, f.media, 1, 11, []byte("new"))

		if err := f.cat.SetLastSyncedAt(context.Background(), base.Add(time.Hour)); err != nil {
			t.Fatalf("SetLastSyncedAt() error = %v", err)
		}

		if result := job.Run(context.Background()); result != backup.ResultSuccess {
			t.Fatalf("Run() = %v, want success", result)
		}

		if got := f.remote.ObjectBytes("photos/1/10.jpg"); got != nil {
			t.Error("unchanged photo was uploaded")
		}
		if got := f.remote.ObjectBytes("photos/1/11.jpg"); string(got) != "new" {
			t.Errorf("changed photo = %q, want new", got)
		}
	})

	t.Run("retries without notifying when the remote is unavailable", func(t *testing.T) {
		resolveErr := fmt.Errorf("%w: not signed in", backup.ErrRemoteUnavailable)
		job, f := newSyncJob(t, failingResolver(resolveErr))

		if result := job.Run(context.Background()); result != backup.ResultRetry {
			t.Fatalf("Run() = %v, want retry", result)
		}
		if calls := f.notifier.calls(); len(calls) != 0 {
			t.Errorf("notifier calls = %v, want none", calls)
		}
	})

	t.Run("other resolve errors notify failure and retry", func(t *testing.T) {
		job, f := newSyncJob(t, failingResolver(errors.New("bad credentials file")))

		if result := job.Run(context.Background()); result != backup.ResultRetry {
			t.Fatalf("Run() = %v, want retry", result)
		}
		if calls := f.notifier.calls(); len(calls) != 1 || calls[0] {
			t.Errorf("notifier calls = %v, want [false]", calls)
		}
	})

	t.Run("cancelled context is a terminal failure", func(t *testing.T) {
		job, f := newSyncJob(t, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if result := job.Run(ctx); result != backup.ResultFailure {
			t.Fatalf("Run() = %v, want failure", result)
		}
		if calls := f.notifier.calls(); len(calls) != 1 || calls[0] {
			t.Errorf("notifier calls = %v, want [false]", calls)
		}
	})

	t.Run("missing local file is skipped and the job still succeeds", func(t *testing.T) {
		job, f := newSyncJob(t, nil)

		seedAlbum(t, f.cat, 1, "Vacation", base)
		seedPhoto(t, f.cat, f.media, 10, 1, "ghost.jpg", base)
		// no file on disk for photo 10

		if result := job.Run(context.Background()); result != backup.ResultSuccess {
			t.Fatalf("Run() = %v, want success", result)
		}
		if got := f.remote.ObjectBytes("photos/1/10.jpg"); got != nil {
			t.Error("missing photo produced a remote object")
		}
		if f.remote.ObjectBytes(backup.SnapshotName) == nil {
			t.Error("snapshot not uploaded")
		}
	})

	t.Run("remote holds exactly the snapshot plus media objects", func(t *testing.T) {
		job, f := newSyncJob(t, nil)

		seedAlbum(t, f.cat, 1, "Vacation", base)
		seedPhoto(t, f.cat, f.media, 10, 1, "a.jpg", base)
		seedPhotoFile(t, f.media, 1, 10, []byte("x"))

		if result := job.Run(context.Background()); result != backup.ResultSuccess {
			t.Fatalf("Run() = %v, want success", result)
		}

		// Both objects present; 1 snapshot + 1 media.
		if got := f.remote.ObjectCount(); got != 2 {
			t.Errorf("object count = %d, want 2", got)
		}
	})
}
