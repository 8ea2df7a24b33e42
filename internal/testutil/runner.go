package testutil

import (
	"context"
	"sync"

	"photokeep/internal/backup"
)

// EnqueuedJob records one EnqueueUnique call.
type EnqueuedJob struct {
	Name        string
	Replace     bool
	Constraints backup.Constraints
	Job         backup.Job
}

// RecordingRunner captures enqueued jobs without running them. Tests can run
// a captured job explicitly with RunLast.
type RecordingRunner struct {
	mu   sync.Mutex
	jobs []EnqueuedJob

	// Err, when set, is returned from EnqueueUnique.
	Err error
}

func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{}
}

func (r *RecordingRunner) EnqueueUnique(name string, replace bool, constraints backup.Constraints, job backup.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.jobs = append(r.jobs, EnqueuedJob{Name: name, Replace: replace, Constraints: constraints, Job: job})
	return nil
}

// Enqueued returns a copy of all recorded calls.
func (r *RecordingRunner) Enqueued() []EnqueuedJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EnqueuedJob, len(r.jobs))
	copy(out, r.jobs)
	return out
}

// Count returns the number of recorded calls.
func (r *RecordingRunner) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// RunLast runs the most recently enqueued job and returns its result.
func (r *RecordingRunner) RunLast(ctx context.Context) backup.JobResult {
	r.mu.Lock()
	if len(r.jobs) == 0 {
		r.mu.Unlock()
		return backup.ResultFailure
	}
	job := r.jobs[len(r.jobs)-1].Job
	r.mu.Unlock()
	return job.Run(ctx)
}

// Compile-time check that RecordingRunner implements the backup.JobRunner interface
var _ backup.JobRunner = (*RecordingRunner)(nil)
