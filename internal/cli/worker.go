package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/executor"
	"github.com/queuectl/queuectl/internal/worker"
)

// shutdownWait is how long "worker run" gives an in-flight job to finish
// once a termination signal arrives. It is intentionally generous:
// shutdown waits for the job, it never cancels it.
const shutdownWait = 24 * time.Hour

func newWorkerCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start, stop, or inspect worker processes",
	}
	cmd.AddCommand(
		newWorkerStartCmd(g),
		newWorkerStopCmd(g),
		newWorkerStatusCmd(g),
		newWorkerRunCmd(g),
	)
	return cmd
}

func newWorkerStartCmd(g *globals) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Spawn worker processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("invalid worker count %d: must be >= 1", count)
			}
			sv, err := g.newSupervisor()
			if err != nil {
				return err
			}
			workers, err := sv.Start(count)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "started %d worker(s)\n", len(workers))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "number of worker processes to start")
	return cmd
}

func newWorkerStopCmd(g *globals) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop running worker processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sv, err := g.newSupervisor()
			if err != nil {
				return err
			}
			n, err := sv.Stop(!force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stopped %d worker(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "kill immediately instead of a graceful stop")
	return cmd
}

func newWorkerStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report OS-level status of worker processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sv, err := g.newSupervisor()
			if err != nil {
				return err
			}
			statuses, err := sv.Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(statuses) == 0 {
				fmt.Fprintln(out, "no workers running")
				return nil
			}
			for _, st := range statuses {
				fmt.Fprintf(out, "%-10s pid=%d status=%s cpu=%.1f%% mem=%.1fMiB started=%s\n",
					st.ID, st.PID, st.State, st.CPUPercent, st.MemoryMiB,
					st.StartedAt.Format(timestampLayout))
			}
			return nil
		},
	}
}

// newWorkerRunCmd drives a single worker loop to completion. It is not
// meant to be invoked by an operator directly; the supervisor re-execs
// the queuectl binary with this hidden subcommand to spawn each child.
func newWorkerRunCmd(g *globals) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:    "run",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("worker run requires --id")
			}

			ctx := cmd.Context()
			st, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			log := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("worker_id", id)
			exec := executor.New(log)
			w := worker.New(id, st, exec, log)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
			defer signal.Stop(sigCh)

			done := make(chan error, 1)
			go func() { done <- w.Start(context.Background()) }()

			select {
			case <-sigCh:
				log.Info("shutdown signal received")
				if err := w.Stop(shutdownWait); err != nil {
					log.Error("graceful stop failed", "err", err)
				}
				<-done
			case err := <-done:
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "stable worker identifier")
	_ = cmd.Flags().MarkHidden("id")
	return cmd
}
