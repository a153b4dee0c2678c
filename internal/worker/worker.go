// Package worker runs the poll → acquire → execute → release loop: a
// single long-running process that repeatedly asks the store for
// eligible work and drives it through the executor until told to stop.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/queuectl/queuectl/internal/executor"
	"github.com/queuectl/queuectl/internal/lifecycle"
	"github.com/queuectl/queuectl/internal/store"
)

// Worker polls a Store for eligible jobs and runs them to completion
// through an Executor, honoring graceful shutdown.
//
// Worker has a strict lifecycle: Start may only be called once; Stop
// waits for the current iteration (including any in-flight job) to
// finish or the timeout to expire.
type Worker struct {
	lifecycle.Base

	id    string
	store store.Store
	exec  *executor.Executor
	log   *slog.Logger

	done chan struct{}
	stop chan struct{}
}

// New constructs a Worker identified by id, backed by s and exec.
func New(id string, s store.Store, exec *executor.Executor, log *slog.Logger) *Worker {
	return &Worker{
		id:    id,
		store: s,
		exec:  exec,
		log:   log.With("worker_id", id),
		done:  make(chan struct{}),
		stop:  make(chan struct{}),
	}
}

// Start begins the poll loop in the current goroutine, blocking until
// ctx is canceled or Stop is called. Start returns ErrDoubleStarted if
// the worker has already been started.
//
// Before polling begins, Start reaps jobs left `processing` by a prior
// worker that died mid-attempt.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.TryStart(); err != nil {
		return err
	}
	if n, err := w.store.ReapStuckProcessing(ctx); err != nil {
		w.log.Error("reap stuck processing failed", "err", err)
	} else if n > 0 {
		w.log.Info("reaped stuck jobs", "count", n)
	}
	w.loop(ctx)
	close(w.done)
	return nil
}

// Stop requests graceful shutdown: the loop finishes its current
// iteration (including any in-flight job, which is never canceled by
// shutdown) and exits. Stop returns ErrStopTimeout if shutdown does
// not complete within timeout.
func (w *Worker) Stop(timeout time.Duration) error {
	return w.TryStop(timeout, func() lifecycle.DoneChan {
		close(w.stop)
		return lifecycle.DoneChan(w.done)
	})
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		acquired, err := w.acquireAndExecute(ctx)
		if err != nil {
			w.log.Error("iteration failed", "err", err)
		}
		if acquired {
			continue
		}

		interval, err := w.pollInterval(ctx)
		if err != nil {
			w.log.Error("read config failed", "err", err)
			interval = time.Second
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-w.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (w *Worker) pollInterval(ctx context.Context) (time.Duration, error) {
	cfg, err := w.store.GetConfig(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(cfg.WorkerPollInterval * float64(time.Second)), nil
}

// acquireAndExecute performs one poll→acquire→execute→release cycle.
// It reports whether a job was acquired, so the caller can skip the
// idle sleep and poll again immediately.
func (w *Worker) acquireAndExecute(ctx context.Context) (bool, error) {
	j, err := w.store.Acquire(ctx, w.id)
	if err != nil {
		return false, err
	}
	if j == nil {
		return false, nil
	}

	cfg, err := w.store.GetConfig(ctx)
	if err != nil {
		// Release the lock. The job stays Processing with no lock,
		// which Acquire does not reclaim; the next worker's startup
		// reap moves it to Failed.
		if relErr := w.store.Release(ctx, j.Id); relErr != nil {
			w.log.Error("release after config read failure", "job_id", j.Id, "err", relErr)
		}
		return true, err
	}

	w.exec.Execute(ctx, j, cfg)

	if err := w.store.Put(ctx, j); err != nil {
		// The job stays Processing with a live lock; the stale-lock
		// window and the next reaper reclaim it.
		w.log.Error("persist job after execution failed", "job_id", j.Id, "err", err)
	}
	return true, nil
}
