// Package runner executes a job's command line in a shell, the
// execution primitive the executor drives per attempt.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result captures the outcome of a single command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Run shells out to `sh -c command` and waits for it to complete or
// for ctx to be canceled. The caller is responsible for attaching a
// deadline to ctx derived from the job's effective timeout; Run
// itself has no timeout opinion of its own.
//
// exec.CommandContext kills the child process (SIGKILL) the instant
// ctx is done. Run then checks ctx.Err() for DeadlineExceeded and
// reports it as TimedOut, which the executor classifies as a timeout
// rather than an ordinary non-zero exit.
func Run(ctx context.Context, command string) (Result, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	// Once the shell is killed, stop waiting on output pipes that its
	// descendants may still hold open.
	cmd.WaitDelay = 100 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}

	if runErr == nil {
		res.ExitCode = 0
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return res, runErr
}
