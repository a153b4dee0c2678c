package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/store"
	"github.com/queuectl/queuectl/internal/store/sqlite"
	"github.com/queuectl/queuectl/internal/supervisor"
)

const (
	defaultDBPath      = "queuectl.db"
	defaultSidecarPath = supervisor.DefaultSidecarPath
)

// globals holds the persistent flags shared by every subcommand: the
// store path and the supervisor's sidecar path, resolved to absolute
// paths against the working directory at process start.
type globals struct {
	dbPath      string
	sidecarPath string
}

func (g *globals) openStore(ctx context.Context) (store.Store, error) {
	return sqlite.Open(ctx, g.dbPath)
}

func (g *globals) newSupervisor() (*supervisor.Supervisor, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve queuectl binary path: %w", err)
	}
	return supervisor.New(g.sidecarPath, exe, g.dbPath), nil
}

// NewRootCmd builds the queuectl command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	var dbFlag, sidecarFlag string

	root := &cobra.Command{
		Use:   "queuectl",
		Short: "A local, durable background job queue with retries and a DLQ",
		Long: `queuectl is a local, durable background job queue: jobs are shell
commands persisted to a SQLite database, executed by a pool of worker
processes with priority-ordered dispatch, exponential-backoff retries,
and a dead-letter queue for jobs that exhaust their retries.

Execution is at-least-once, not exactly-once: if a worker crashes after
a command ran but before its outcome was persisted, the job will run
again once its lock goes stale. Commands must be idempotent, or the
operator must accept replays.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dbAbs, err := filepath.Abs(dbFlag)
			if err != nil {
				return err
			}
			sidecarAbs, err := filepath.Abs(sidecarFlag)
			if err != nil {
				return err
			}
			g.dbPath = dbAbs
			g.sidecarPath = sidecarAbs
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dbFlag, "db", defaultDBPath, "path to the queuectl database file")
	root.PersistentFlags().StringVar(&sidecarFlag, "sidecar", defaultSidecarPath, "path to the worker-tracking sidecar file")

	root.AddCommand(
		newEnqueueCmd(g),
		newListCmd(g),
		newGetCmd(g),
		newStatusCmd(g),
		newClearCmd(g),
		newDLQCmd(g),
		newConfigCmd(g),
		newWorkerCmd(g),
	)
	return root
}

// Execute runs the queuectl command tree against os.Args and returns the
// process exit code: 0 on success, 130 on interrupt, 1 on any other error.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	root.SetContext(ctx)
	err := root.ExecuteContext(ctx)
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case isInterrupt(err):
		fmt.Fprintln(os.Stderr, "Interrupted")
		return 130
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
}
