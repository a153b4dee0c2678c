package job

import "time"

// Job represents one shell command managed by the queue store.
//
// Id is opaque and caller-supplied; it uniquely identifies the job for
// its entire lifetime. Command is never interpreted by the core, only
// handed to a runner.
//
// CreatedAt and UpdatedAt are monotonically non-decreasing per job.
// Status, Attempts, LockedBy/LockedAt, and NextRetryAt are maintained
// by the store and the executor; a Job value returned by the store is
// a snapshot and must be mutated only through store operations.
type Job struct {
	Id      string
	Command string

	Status      Status
	Attempts    int
	MaxRetries  int
	Timeout     *time.Duration
	Priority    Priority
	ErrorMessage *string

	LockedBy *string
	LockedAt *time.Time

	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt *time.Time
}

// Eligible reports whether the job's Status and NextRetryAt allow a
// worker to acquire it at now. Lock state is not consulted: a
// Processing job is always reported ineligible, including one whose
// lock has gone stale, which Store.Acquire does reclaim.
func (j *Job) Eligible(now time.Time) bool {
	switch j.Status {
	case Pending:
		return true
	case Failed:
		return j.NextRetryAt == nil || !j.NextRetryAt.After(now)
	default:
		return false
	}
}
