// Package executor runs a single acquired job to a terminal outcome:
// completed, retried with backoff, or dead-lettered.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/queuectl/queuectl/internal/backoff"
	"github.com/queuectl/queuectl/internal/job"
	"github.com/queuectl/queuectl/internal/queuecfg"
	"github.com/queuectl/queuectl/internal/runner"
)

// Runner is the black-box shell command runner the executor drives.
// Satisfied by runner.Run; a function type here only to let tests
// substitute a fake without spawning real processes.
type Runner func(ctx context.Context, command string) (runner.Result, error)

// Executor runs one job per Execute call, mutating the job in place
// to its resulting state, ready for the caller to persist.
type Executor struct {
	run Runner
	log *slog.Logger
}

// New constructs an Executor backed by runner.Run. Pass a fake Runner
// in tests to avoid spawning real shells.
func New(log *slog.Logger) *Executor {
	return &Executor{run: runner.Run, log: log}
}

// WithRunner overrides the Runner, for tests.
func (e *Executor) WithRunner(r Runner) *Executor {
	e.run = r
	return e
}

// Execute runs j.Command once, classifies the outcome, and mutates j
// in place to its resulting terminal-or-retry state. The caller
// persists j via store.Store.Put; Execute never touches the store.
func (e *Executor) Execute(ctx context.Context, j *job.Job, cfg queuecfg.Config) {
	attemptID := uuid.NewString()
	log := e.log.With("job_id", j.Id, "attempt_id", attemptID, "attempt", j.Attempts+1)

	j.Attempts++

	effectiveTimeout := time.Duration(cfg.JobTimeout) * time.Second
	if j.Timeout != nil {
		effectiveTimeout = *j.Timeout
	}

	runCtx, cancel := context.WithTimeout(ctx, effectiveTimeout)
	defer cancel()

	log.Info("executing job", "command", j.Command, "timeout", effectiveTimeout)
	res, err := e.run(runCtx, j.Command)

	switch {
	case err != nil:
		log.Warn("runner raised", "err", err)
		e.fail(j, cfg, err.Error())
	case res.TimedOut:
		msg := fmt.Sprintf("Job timed out after %d seconds", int(effectiveTimeout.Seconds()))
		log.Warn("job timed out")
		e.fail(j, cfg, msg)
	case res.ExitCode == 0:
		log.Info("job completed")
		e.succeed(j)
	default:
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("Exit code: %d", res.ExitCode)
		}
		log.Warn("job exited non-zero", "exit_code", res.ExitCode)
		e.fail(j, cfg, msg)
	}
}

func (e *Executor) succeed(j *job.Job) {
	j.Status = job.Completed
	j.ErrorMessage = nil
	j.NextRetryAt = nil
}

// fail applies the retry rule: dead-letter once attempts reaches
// max_retries, otherwise schedule a retry at now + backoff_base^attempts.
func (e *Executor) fail(j *job.Job, cfg queuecfg.Config, msg string) {
	j.ErrorMessage = &msg
	if j.Attempts >= j.MaxRetries {
		j.Status = job.Dead
		j.NextRetryAt = nil
		return
	}
	j.Status = job.Failed
	next := time.Now().UTC().Add(backoff.Next(cfg.BackoffBase, j.Attempts))
	j.NextRetryAt = &next
}
