// Package sqlite implements internal/store.Store over SQLite using
// uptrace/bun and the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"

	"github.com/queuectl/queuectl/internal/job"
	"github.com/queuectl/queuectl/internal/store"
)

// Store is a SQLite-backed store.Store.
type Store struct {
	db *bun.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// initializes its schema. A single connection is used: SQLite
// serializes writers regardless, and a pool only invites
// SQLITE_BUSY races.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := InitDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store, for tests.
func OpenMemory(ctx context.Context) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := InitDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a job by Id. Every save clears the job's
// lock; the lock is held only between Acquire and Put.
func (s *Store) Put(ctx context.Context, j *job.Job) error {
	j.UpdatedAt = time.Now().UTC()
	j.LockedBy = nil
	j.LockedAt = nil
	m, err := toModel(j)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().
		Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("command = EXCLUDED.command").
		Set("state = EXCLUDED.state").
		Set("attempts = EXCLUDED.attempts").
		Set("max_retries = EXCLUDED.max_retries").
		Set("timeout = EXCLUDED.timeout").
		Set("priority = EXCLUDED.priority").
		Set("error_message = EXCLUDED.error_message").
		Set("locked_by = EXCLUDED.locked_by").
		Set("locked_at = EXCLUDED.locked_at").
		Set("updated_at = EXCLUDED.updated_at").
		Set("next_retry_at = EXCLUDED.next_retry_at").
		Exec(ctx)
	return err
}

// Get returns the job identified by id, or store.ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, id string) (*job.Job, error) {
	var m jobModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return m.toJob()
}

func scanJobs(ctx context.Context, q *bun.SelectQuery) ([]*job.Job, error) {
	var models []jobModel
	if err := q.Scan(ctx, &models); err != nil {
		return nil, err
	}
	jobs := make([]*job.Job, 0, len(models))
	for i := range models {
		j, err := models[i].toJob()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// ListByState returns every job in the given state, ordered by
// (priority ASC, created_at ASC).
func (s *Store) ListByState(ctx context.Context, state job.Status) ([]*job.Job, error) {
	q := s.db.NewSelect().Model((*jobModel)(nil)).
		Where("state = ?", string(state)).
		Order("priority ASC", "created_at ASC")
	return scanJobs(ctx, q)
}

// ListAll returns every job ordered by (priority ASC, created_at DESC).
func (s *Store) ListAll(ctx context.Context) ([]*job.Job, error) {
	q := s.db.NewSelect().Model((*jobModel)(nil)).
		Order("priority ASC", "created_at DESC")
	return scanJobs(ctx, q)
}

// CountsByState returns a count per defined state, with a zero entry
// for states that currently have no jobs.
func (s *Store) CountsByState(ctx context.Context) (map[job.Status]int, error) {
	counts := make(map[job.Status]int, len(job.AllStates()))
	for _, st := range job.AllStates() {
		counts[st] = 0
	}
	type row struct {
		Status string `bun:"state"`
		N      int    `bun:"n"`
	}
	var rows []row
	err := s.db.NewSelect().
		Model((*jobModel)(nil)).
		ColumnExpr("state").
		ColumnExpr("count(*) AS n").
		Group("state").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		st, err := job.ParseStatus(r.Status)
		if err != nil {
			continue
		}
		counts[st] = r.N
	}
	return counts, nil
}

// Delete removes the job identified by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().Model((*jobModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// Acquire atomically selects and locks the single highest-priority
// eligible job for workerID: one UPDATE ... WHERE id IN (subquery)
// RETURNING statement, which SQLite executes under its single writer
// lock, making the selection and the mutation atomic with respect to
// every other connection.
//
// A job is eligible when it is pending, or failed with an elapsed or
// unset next_retry_at (in either case unlocked or locked past the
// stale window), or still processing under a lock older than the
// stale window, abandoned by a worker that died mid-attempt.
func (s *Store) Acquire(ctx context.Context, workerID string) (*job.Job, error) {
	now := time.Now().UTC()
	staleCutoff := formatTime(now.Add(-store.StaleLockWindow))

	subQuery := s.db.NewSelect().
		Model((*jobModel)(nil)).
		Column("id").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("state = ?", string(job.Pending)).
				WhereOr("state = ? AND (next_retry_at IS NULL OR next_retry_at <= ?)", string(job.Failed), formatTime(now)).
				WhereOr("state = ? AND locked_at < ?", string(job.Processing), staleCutoff)
		}).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("locked_by IS NULL").
				WhereOr("locked_at < ?", staleCutoff)
		}).
		Order("priority ASC", "created_at ASC", "id ASC").
		Limit(1)

	var models []jobModel
	err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", string(job.Processing)).
		Set("locked_by = ?", workerID).
		Set("locked_at = ?", formatTime(now)).
		Set("updated_at = ?", formatTime(now)).
		Where("id IN (?)", subQuery).
		Returning("*").
		Scan(ctx, &models)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	return models[0].toJob()
}

// Release clears a job's lock without changing its Status.
func (s *Store) Release(ctx context.Context, id string) error {
	_, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("locked_by = NULL").
		Set("locked_at = NULL").
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ReapStuckProcessing transitions every job currently Processing to
// Failed with its lock cleared, recovering from an abrupt previous
// worker termination.
func (s *Store) ReapStuckProcessing(ctx context.Context) (int64, error) {
	now := formatTime(time.Now().UTC())
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", string(job.Failed)).
		Set("locked_by = NULL").
		Set("locked_at = NULL").
		Set("updated_at = ?", now).
		Where("state = ?", string(job.Processing)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ store.Store = (*Store)(nil)
