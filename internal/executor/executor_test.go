package executor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/queuectl/queuectl/internal/executor"
	"github.com/queuectl/queuectl/internal/job"
	"github.com/queuectl/queuectl/internal/queuecfg"
	"github.com/queuectl/queuectl/internal/runner"
)

func newExecutor(r executor.Runner) *executor.Executor {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return executor.New(log).WithRunner(r)
}

func newJob() *job.Job {
	now := time.Now().UTC()
	return &job.Job{
		Id:         "j1",
		Command:    "irrelevant",
		Status:     job.Processing,
		MaxRetries: 3,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestExecuteSuccess(t *testing.T) {
	e := newExecutor(func(ctx context.Context, command string) (runner.Result, error) {
		return runner.Result{ExitCode: 0}, nil
	})
	j := newJob()

	e.Execute(context.Background(), j, queuecfg.Default())

	if j.Status != job.Completed {
		t.Fatalf("expected Completed, got %v", j.Status)
	}
	if j.Attempts != 1 {
		t.Fatalf("expected attempts=1, got %d", j.Attempts)
	}
	if j.ErrorMessage != nil {
		t.Fatalf("expected nil error_message, got %v", *j.ErrorMessage)
	}
	if j.NextRetryAt != nil {
		t.Fatal("expected nil next_retry_at")
	}
}

func TestExecuteFailureSchedulesRetry(t *testing.T) {
	e := newExecutor(func(ctx context.Context, command string) (runner.Result, error) {
		return runner.Result{ExitCode: 1, Stderr: "boom"}, nil
	})
	j := newJob()
	j.MaxRetries = 3

	e.Execute(context.Background(), j, queuecfg.Default())

	if j.Status != job.Failed {
		t.Fatalf("expected Failed, got %v", j.Status)
	}
	if j.ErrorMessage == nil || *j.ErrorMessage != "boom" {
		t.Fatalf("unexpected error_message: %+v", j.ErrorMessage)
	}
	if j.NextRetryAt == nil {
		t.Fatal("expected next_retry_at to be set")
	}
}

func TestExecuteDeadLettersAtMaxRetries(t *testing.T) {
	e := newExecutor(func(ctx context.Context, command string) (runner.Result, error) {
		return runner.Result{ExitCode: 1}, nil
	})
	j := newJob()
	j.MaxRetries = 1
	j.Attempts = 0

	e.Execute(context.Background(), j, queuecfg.Default())

	if j.Status != job.Dead {
		t.Fatalf("expected Dead, got %v", j.Status)
	}
	if j.Attempts < j.MaxRetries {
		t.Fatalf("expected attempts >= max_retries, got attempts=%d max_retries=%d", j.Attempts, j.MaxRetries)
	}
	if j.NextRetryAt != nil {
		t.Fatal("expected nil next_retry_at at dead")
	}
}

func TestExecuteTimeout(t *testing.T) {
	e := newExecutor(func(ctx context.Context, command string) (runner.Result, error) {
		return runner.Result{TimedOut: true, ExitCode: -1}, nil
	})
	j := newJob()
	j.MaxRetries = 0

	e.Execute(context.Background(), j, queuecfg.Default())

	if j.Status != job.Dead {
		t.Fatalf("expected Dead, got %v", j.Status)
	}
	if j.ErrorMessage == nil {
		t.Fatal("expected error_message to be set")
	}
	want := "Job timed out after"
	if len(*j.ErrorMessage) < len(want) || (*j.ErrorMessage)[:len(want)] != want {
		t.Fatalf("unexpected error_message: %q", *j.ErrorMessage)
	}
}

func TestExecuteRunnerError(t *testing.T) {
	e := newExecutor(func(ctx context.Context, command string) (runner.Result, error) {
		return runner.Result{}, errors.New("exec: no such file")
	})
	j := newJob()
	j.MaxRetries = 3

	e.Execute(context.Background(), j, queuecfg.Default())

	if j.Status != job.Failed {
		t.Fatalf("expected Failed, got %v", j.Status)
	}
	if j.ErrorMessage == nil || *j.ErrorMessage != "exec: no such file" {
		t.Fatalf("unexpected error_message: %+v", j.ErrorMessage)
	}
}

func TestExecuteUsesJobTimeoutOverConfig(t *testing.T) {
	var sawDeadline time.Time
	e := newExecutor(func(ctx context.Context, command string) (runner.Result, error) {
		dl, _ := ctx.Deadline()
		sawDeadline = dl
		return runner.Result{ExitCode: 0}, nil
	})
	j := newJob()
	d := 5 * time.Second
	j.Timeout = &d

	before := time.Now().Add(4 * time.Second)
	e.Execute(context.Background(), j, queuecfg.Default())
	after := time.Now().Add(6 * time.Second)

	if sawDeadline.Before(before) || sawDeadline.After(after) {
		t.Fatalf("expected deadline derived from job timeout, got %v", sawDeadline)
	}
}
