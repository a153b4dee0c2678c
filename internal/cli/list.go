package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/job"
)

func newListCmd(g *globals) *cobra.Command {
	var stateFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var jobs []*job.Job
			if stateFlag != "" {
				status, err := job.ParseStatus(stateFlag)
				if err != nil {
					return err
				}
				jobs, err = st.ListByState(ctx, status)
				if err != nil {
					return err
				}
			} else {
				jobs, err = st.ListAll(ctx)
				if err != nil {
					return err
				}
			}

			if limit > 0 && len(jobs) > limit {
				jobs = jobs[:limit]
			}

			printJobsTable(cmd, jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&stateFlag, "state", "", "filter by state")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to print")
	return cmd
}

func printJobsTable(cmd *cobra.Command, jobs []*job.Job) {
	out := cmd.OutOrStdout()
	table := tablewriter.NewWriter(out)
	table.Header("ID", "STATE", "PRIORITY", "ATTEMPTS/MAX", "CREATED", "NEXT RETRY")
	for _, j := range jobs {
		nextRetry := "-"
		if j.NextRetryAt != nil {
			nextRetry = j.NextRetryAt.Format("2006-01-02T15:04:05Z")
		}
		_ = table.Append(
			j.Id,
			colorizeState(j.Status),
			j.Priority.String(),
			fmt.Sprintf("%d/%d", j.Attempts, j.MaxRetries),
			j.CreatedAt.Format("2006-01-02T15:04:05Z"),
			nextRetry,
		)
	}
	_ = table.Render()
}

func colorizeState(s job.Status) string {
	if os.Getenv("NO_COLOR") != "" {
		return s.String()
	}
	switch s {
	case job.Completed:
		return color.New(color.FgGreen).Sprint(s.String())
	case job.Dead:
		return color.New(color.FgRed).Sprint(s.String())
	case job.Failed:
		return color.New(color.FgYellow).Sprint(s.String())
	case job.Processing:
		return color.New(color.FgCyan).Sprint(s.String())
	default:
		return s.String()
	}
}
