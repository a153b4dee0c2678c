package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/job"
)

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show aggregate job counts, worker count, and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			counts, err := st.CountsByState(ctx)
			if err != nil {
				return err
			}
			cfg, err := st.GetConfig(ctx)
			if err != nil {
				return err
			}

			sv, err := g.newSupervisor()
			if err != nil {
				return err
			}
			workers, err := sv.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Jobs:")
			for _, state := range job.AllStates() {
				fmt.Fprintf(out, "  %-10s %d\n", state, counts[state])
			}
			fmt.Fprintf(out, "Workers: %d running\n", len(workers))
			fmt.Fprintln(out, "Configuration:")
			fmt.Fprintf(out, "  max-retries:          %d\n", cfg.MaxRetries)
			fmt.Fprintf(out, "  backoff-base:         %d\n", cfg.BackoffBase)
			fmt.Fprintf(out, "  worker-poll-interval: %g\n", cfg.WorkerPollInterval)
			fmt.Fprintf(out, "  job-timeout:          %d\n", cfg.JobTimeout)
			return nil
		},
	}
}
