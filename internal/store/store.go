// Package store defines the storage-agnostic contract for durable job
// persistence and the atomic acquire-dispatch protocol, collapsed into
// one interface since every caller here (the control surface and the
// worker loop) needs the full set.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/queuectl/queuectl/internal/job"
	"github.com/queuectl/queuectl/internal/queuecfg"
)

var (
	// ErrNotFound is returned by operations addressing a job id that
	// does not exist in the store.
	ErrNotFound = errors.New("store: job not found")

	// ErrDuplicateID reports that a job with the given id already
	// exists. Put never returns it (Put inserts or replaces); the
	// enqueue command returns it when Get finds the id before Put.
	ErrDuplicateID = errors.New("store: duplicate job id")
)

// StaleLockWindow is the hard-coded reclamation threshold: a lock older
// than this is treated as abandoned by a crashed worker.
const StaleLockWindow = 5 * time.Minute

// Store is the durable, transactional job and configuration store.
//
// Acquire is the only operation requiring serializability with respect
// to itself: implementations must ensure no two concurrent Acquire
// calls ever return the same job id, short of the stale-lock window
// lapsing on an abandoned lock.
type Store interface {
	// Put inserts or replaces a job by Id, refreshing UpdatedAt and
	// releasing any lock the job currently holds. Every save releases
	// the lock; the lock is held only between Acquire and Put.
	Put(ctx context.Context, j *job.Job) error

	// Get returns the job identified by id, or ErrNotFound if absent.
	Get(ctx context.Context, id string) (*job.Job, error)

	// ListByState returns every job in the given state, ordered by
	// (priority ASC, created_at ASC).
	ListByState(ctx context.Context, state job.Status) ([]*job.Job, error)

	// ListAll returns every job ordered by (priority ASC, created_at DESC).
	ListAll(ctx context.Context) ([]*job.Job, error)

	// CountsByState returns a count per defined state, including a
	// zero entry for states with no matching jobs.
	CountsByState(ctx context.Context) (map[job.Status]int, error)

	// Delete removes the job identified by id. Deleting a job that
	// does not exist is not an error.
	Delete(ctx context.Context, id string) error

	// Acquire atomically selects the single highest-priority eligible
	// job and transitions it to Processing under workerID's lock.
	// A job is eligible if it is Pending, or Failed with an elapsed or
	// unset NextRetryAt (either unlocked or locked past
	// StaleLockWindow), or still Processing under a lock stale past
	// StaleLockWindow. Candidates are ordered by
	// (priority ASC, created_at ASC, id ASC). Acquire returns
	// (nil, nil) when no job is eligible.
	Acquire(ctx context.Context, workerID string) (*job.Job, error)

	// Release clears a job's lock without changing its Status. The
	// worker calls it when it cannot run a job it acquired. A released
	// Processing job has no locked_at, so Acquire's stale-lock clause
	// does not match it; it stays Processing until a worker's startup
	// ReapStuckProcessing moves it to Failed.
	Release(ctx context.Context, id string) error

	// ReapStuckProcessing transitions every job currently Processing to
	// Failed with its lock cleared. Called once at worker startup to
	// recover from an abrupt previous termination.
	ReapStuckProcessing(ctx context.Context) (int64, error)

	// GetConfig returns the configuration singleton, seeding defaults
	// on first use.
	GetConfig(ctx context.Context) (queuecfg.Config, error)

	// PutConfig overwrites the configuration singleton.
	PutConfig(ctx context.Context, cfg queuecfg.Config) error

	// Close releases underlying resources (the database handle).
	Close() error
}
