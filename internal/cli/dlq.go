package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/job"
)

func newDLQCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect and manage the dead-letter queue",
	}
	cmd.AddCommand(
		newDLQListCmd(g),
		newDLQRetryCmd(g),
		newDLQClearCmd(g),
	)
	return cmd
}

func newDLQListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dead-lettered jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			jobs, err := st.ListByState(ctx, job.Dead)
			if err != nil {
				return err
			}
			printJobsTable(cmd, jobs)
			return nil
		},
	}
}

func newDLQRetryCmd(g *globals) *cobra.Command {
	var resetAttempts bool

	cmd := &cobra.Command{
		Use:   "retry JOB_ID",
		Short: "Move a dead-lettered job back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			j, err := st.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get job %q: %w", args[0], err)
			}
			if j.Status != job.Dead {
				return fmt.Errorf("job %q is %s, not dead", j.Id, j.Status)
			}

			j.Status = job.Pending
			j.ErrorMessage = nil
			j.NextRetryAt = nil
			if resetAttempts {
				j.Attempts = 0
			}

			if err := st.Put(ctx, j); err != nil {
				return fmt.Errorf("retry job %q: %w", j.Id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s is now pending\n", j.Id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&resetAttempts, "reset-attempts", false, "reset attempts to 0")
	return cmd
}

func newDLQClearCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all dead-lettered jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			dead, err := st.ListByState(ctx, job.Dead)
			if err != nil {
				return err
			}
			for _, j := range dead {
				if err := st.Delete(ctx, j.Id); err != nil {
					return fmt.Errorf("delete job %q: %w", j.Id, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d dead job(s)\n", len(dead))
			return nil
		},
	}
}
