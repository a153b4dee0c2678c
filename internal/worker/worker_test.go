package worker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/queuectl/queuectl/internal/executor"
	"github.com/queuectl/queuectl/internal/job"
	"github.com/queuectl/queuectl/internal/runner"
	"github.com/queuectl/queuectl/internal/store/sqlite"
	"github.com/queuectl/queuectl/internal/worker"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.OpenMemory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerCompletesAcquiredJob(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Now().UTC()
	j := &job.Job{
		Id:         "j1",
		Command:    "true",
		Status:     job.Pending,
		MaxRetries: 3,
		Priority:   job.PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Put(ctx, j); err != nil {
		t.Fatal(err)
	}

	exec := executor.New(discardLogger()).WithRunner(
		func(ctx context.Context, command string) (runner.Result, error) {
			return runner.Result{ExitCode: 0}, nil
		},
	)
	w := worker.New("worker-1", s, exec, discardLogger())

	runDone := make(chan error, 1)
	go func() { runDone <- w.Start(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for {
		got, err := s.Get(ctx, "j1")
		if err != nil {
			t.Fatal(err)
		}
		if got.Status == job.Completed {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job did not complete in time, last status=%v", got.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := w.Stop(time.Second); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	<-runDone
}

func TestWorkerReapsStuckProcessingOnStartThenRetries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Simulate a job abandoned mid-attempt by a crashed worker: acquire
	// it directly through the store so it ends up Processing and locked,
	// without going through this test's own Worker.
	now := time.Now().UTC()
	if err := s.Put(ctx, &job.Job{
		Id:         "j1",
		Command:    "true",
		Status:     job.Pending,
		MaxRetries: 3,
		Priority:   job.PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Acquire(ctx, "crashed-worker"); err != nil {
		t.Fatal(err)
	}

	exec := executor.New(discardLogger()).WithRunner(
		func(ctx context.Context, command string) (runner.Result, error) {
			return runner.Result{ExitCode: 0}, nil
		},
	)
	w := worker.New("worker-1", s, exec, discardLogger())

	runDone := make(chan error, 1)
	go func() { runDone <- w.Start(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for {
		got, err := s.Get(ctx, "j1")
		if err != nil {
			t.Fatal(err)
		}
		if got.Status == job.Completed {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job did not reach Completed in time, last status=%v", got.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := w.Stop(time.Second); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	<-runDone
}
