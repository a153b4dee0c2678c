package sqlite

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

func createJobsTable(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*jobModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func createConfigTable(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*configModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func createStateIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_state").
		Column("state").
		IfNotExists().
		Exec(ctx)
	return err
}

func createNextRetryIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_next_retry").
		Column("next_retry_at").
		Where("next_retry_at IS NOT NULL").
		IfNotExists().
		Exec(ctx)
	return err
}

// ensureColumns additively migrates a store created by an older binary:
// a jobs table missing timeout or priority gains them with their
// documented defaults, instead of failing to open.
func ensureColumns(ctx context.Context, db bun.IDB) error {
	type col struct {
		CID       int    `bun:"cid"`
		Name      string `bun:"name"`
		Type      string `bun:"type"`
		NotNull   int    `bun:"notnull"`
		DfltValue any    `bun:"dflt_value"`
		PK        int    `bun:"pk"`
	}
	var cols []col
	if err := db.NewRaw("PRAGMA table_info(jobs)").Scan(ctx, &cols); err != nil {
		return err
	}
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c.Name] = true
	}
	if !have["timeout"] {
		if _, err := db.ExecContext(ctx, "ALTER TABLE jobs ADD COLUMN timeout INTEGER"); err != nil {
			return err
		}
	}
	if !have["priority"] {
		if _, err := db.ExecContext(ctx, "ALTER TABLE jobs ADD COLUMN priority INTEGER NOT NULL DEFAULT 2"); err != nil {
			return err
		}
	}
	return nil
}

func initDB(ctx context.Context, db *bun.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := createJobsTable(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createConfigTable(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := ensureColumns(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createStateIndex(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createNextRetryIndex(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// InitDB initializes the jobs and config tables and their indexes
// inside a single transaction. InitDB is idempotent: it creates only
// missing objects and additively migrates older schemas.
func InitDB(ctx context.Context, db *bun.DB) error {
	return initDB(ctx, db)
}
