package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/queuectl/queuectl/internal/job"
	"github.com/queuectl/queuectl/internal/store/sqlite"
)

func seedJob(t *testing.T, dbPath string, j *job.Job) {
	t.Helper()
	ctx := context.Background()
	st, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if err := st.Put(ctx, j); err != nil {
		t.Fatal(err)
	}
}

func readJob(t *testing.T, dbPath, id string) *job.Job {
	t.Helper()
	ctx := context.Background()
	st, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	got, err := st.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCmd()
	root.SetArgs(args)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	return root.ExecuteContext(context.Background())
}

func TestDLQRetryResetsDeadJob(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "queuectl.db")

	now := time.Now().UTC()
	msg := "Exit code: 1"
	seedJob(t, dbPath, &job.Job{
		Id:           "j1",
		Command:      "false",
		Status:       job.Dead,
		Attempts:     3,
		MaxRetries:   3,
		Priority:     job.PriorityMedium,
		ErrorMessage: &msg,
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	if err := runCommand(t, "--db", dbPath, "dlq", "retry", "j1", "--reset-attempts"); err != nil {
		t.Fatalf("dlq retry: %v", err)
	}

	got := readJob(t, dbPath, "j1")
	if got.Status != job.Pending {
		t.Fatalf("expected Pending, got %v", got.Status)
	}
	if got.Attempts != 0 {
		t.Fatalf("expected attempts reset to 0, got %d", got.Attempts)
	}
	if got.ErrorMessage != nil {
		t.Fatalf("expected nil error_message, got %q", *got.ErrorMessage)
	}
	if got.NextRetryAt != nil {
		t.Fatal("expected nil next_retry_at")
	}
}

func TestDLQRetryKeepsAttemptsWithoutReset(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "queuectl.db")

	now := time.Now().UTC()
	seedJob(t, dbPath, &job.Job{
		Id:         "j1",
		Command:    "false",
		Status:     job.Dead,
		Attempts:   3,
		MaxRetries: 3,
		Priority:   job.PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	})

	if err := runCommand(t, "--db", dbPath, "dlq", "retry", "j1"); err != nil {
		t.Fatalf("dlq retry: %v", err)
	}

	got := readJob(t, dbPath, "j1")
	if got.Status != job.Pending || got.Attempts != 3 {
		t.Fatalf("expected Pending with attempts=3, got %v attempts=%d", got.Status, got.Attempts)
	}
}

func TestDLQRetryRejectsNonDeadJob(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "queuectl.db")

	now := time.Now().UTC()
	seedJob(t, dbPath, &job.Job{
		Id:         "j1",
		Command:    "true",
		Status:     job.Pending,
		MaxRetries: 3,
		Priority:   job.PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	})

	if err := runCommand(t, "--db", dbPath, "dlq", "retry", "j1"); err == nil {
		t.Fatal("expected error retrying a non-dead job")
	}
}

func TestDLQRetryUnknownIDFails(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "queuectl.db")
	if err := runCommand(t, "--db", dbPath, "dlq", "retry", "nope"); err == nil {
		t.Fatal("expected error for unknown job id")
	}
}
