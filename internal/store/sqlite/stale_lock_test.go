package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/queuectl/queuectl/internal/job"
)

// TestAcquireReclaimsStaleLock lives in package sqlite (white-box) because
// backdating locked_at to simulate a crashed worker requires reaching
// past Store's public API, which always stamps locked_at with time.Now.
func TestAcquireReclaimsStaleLock(t *testing.T) {
	ctx := context.Background()
	s, err := OpenMemory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	now := time.Now().UTC()
	j := &job.Job{
		Id:         "j1",
		Command:    "true",
		Status:     job.Processing,
		MaxRetries: 3,
		Priority:   job.PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m, err := toModel(j)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	stale := now.Add(-10 * time.Minute)
	owner := "worker-1"
	_, err = s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("locked_by = ?", owner).
		Set("locked_at = ?", formatTime(stale)).
		Where("id = ?", "j1").
		Exec(ctx)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Acquire(ctx, "worker-2")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected stale lock to be reclaimed")
	}
	if got.LockedBy == nil || *got.LockedBy != "worker-2" {
		t.Fatalf("expected reclaim by worker-2, got %+v", got.LockedBy)
	}
}
