package backup

import "context"

// JobResult is the outcome a job reports to its runner.
type JobResult int

const (
	// ResultSuccess means the job completed; it is not re-run.
	ResultSuccess JobResult = iota

	// ResultRetry means a recoverable condition was hit; the runner re-attempts
	// the job later with exponential backoff.
	ResultRetry

	// ResultFailure means the job stopped for good (including cancellation);
	// the runner does not re-attempt it.
	ResultFailure
)

func (r JobResult) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultRetry:
		return "retry"
	case ResultFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Constraints describe the conditions a job needs before it may run.
// The runner is external; how it evaluates them is its business.
type Constraints struct {
	// NetworkUnmetered requires an unmetered (Wi-Fi) connection; when false,
	// any connection is acceptable.
	NetworkUnmetered bool

	// BatteryNotLow requires the device battery to not be low.
	BatteryNotLow bool
}

// Job is a unit of work handed to the external job runner. The runner
// guarantees at-least-once execution; cancellation arrives through ctx and is
// cooperative only.
type Job interface {
	Run(ctx context.Context) JobResult
}

// JobRunner is the engine's contract with the platform's background scheduler.
type JobRunner interface {
	// EnqueueUnique submits a job under a unique name. When replace is true, a
	// job with the same name that has not started yet is replaced by this one
	// instead of queuing both.
	EnqueueUnique(name string, replace bool, constraints Constraints, job Job) error
}
