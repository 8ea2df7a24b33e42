// Package runner provides an in-process implementation of the background job
// scheduler contract. The engine is written against backup.JobRunner so a
// platform scheduler can be swapped in; this runner gives the CLI and tests
// real at-least-once execution with retry backoff.
package runner

import (
	"context"
	"sync"
	"time"

	"photokeep/internal/backup"
)

// Options control retry behavior of the runner.
type Options struct {
	// InitialBackoff is the delay before the first retry. Each subsequent
	// retry doubles it.
	InitialBackoff time.Duration

	// MaxAttempts caps the total number of executions of a single enqueued
	// job, including the first.
	MaxAttempts int
}

// LocalRunner runs jobs on goroutines, one at a time per unique name.
// Enqueueing under a name whose job has not started yet replaces the pending
// job; a running job is never interrupted by a replacement, the replacement
// runs after it finishes.
type LocalRunner struct {
	logger backup.Logger
	opts   Options

	mu      sync.Mutex
	pending map[string]*pendingJob
	running map[string]bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

type pendingJob struct {
	job         backup.Job
	constraints backup.Constraints
}

func NewLocalRunner(logger backup.Logger, opts Options) *LocalRunner {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalRunner{
		logger:  logger,
		opts:    opts,
		pending: make(map[string]*pendingJob),
		running: make(map[string]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (r *LocalRunner) EnqueueUnique(name string, replace bool, constraints backup.Constraints, job backup.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[name]; ok {
		if !replace {
			return nil
		}
		// Replace the not-yet-started job in place; its goroutine picks up
		// the new one.
		r.pending[name] = &pendingJob{job: job, constraints: constraints}
		return nil
	}

	r.pending[name] = &pendingJob{job: job, constraints: constraints}
	if !r.running[name] {
		r.running[name] = true
		r.wg.Add(1)
		go r.drain(name)
	}
	return nil
}

// drain runs jobs for a unique name until none are pending.
func (r *LocalRunner) drain(name string) {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		p, ok := r.pending[name]
		if !ok {
			r.running[name] = false
			r.mu.Unlock()
			return
		}
		delete(r.pending, name)
		r.mu.Unlock()

		r.execute(name, p.job)
	}
}

// execute runs one job to completion, re-attempting with exponential backoff
// while the job reports retry.
func (r *LocalRunner) execute(name string, job backup.Job) {
	backoff := r.opts.InitialBackoff
	for attempt := 1; ; attempt++ {
		if r.ctx.Err() != nil {
			return
		}

		result := job.Run(r.ctx)
		r.logger.Info("job finished", "name", name, "attempt", attempt, "result", result.String())

		if result != backup.ResultRetry {
			return
		}
		if attempt >= r.opts.MaxAttempts {
			r.logger.Error("job exhausted retries", "name", name, "attempts", attempt)
			return
		}

		select {
		case <-r.ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// Wait blocks until all enqueued jobs have drained. Intended for the CLI and
// tests; a long-lived host would not call it.
func (r *LocalRunner) Wait() {
	r.wg.Wait()
}

// Shutdown cancels running jobs and waits for them to exit.
func (r *LocalRunner) Shutdown() {
	r.cancel()
	r.wg.Wait()
}

// Compile-time check that LocalRunner implements the backup.JobRunner interface
var _ backup.JobRunner = (*LocalRunner)(nil)
