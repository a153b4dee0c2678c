package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/store"
)

func newEnqueueCmd(g *globals) *cobra.Command {
	var priorityFlag string
	var timeoutFlag int
	var timeoutSet bool

	cmd := &cobra.Command{
		Use:   "enqueue JOB_SPEC",
		Short: "Add a job to the queue",
		Long: `JOB_SPEC is either a literal JSON object or @path to a JSON file.
Required fields: id, command. Optional: priority (1-3 or high/medium/low),
timeout (seconds), max_retries.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if timeoutSet && timeoutFlag <= 0 {
				return fmt.Errorf("invalid timeout %d: must be a positive number of seconds", timeoutFlag)
			}
			spec, err := parseJobSpec(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if _, err := st.Get(ctx, spec.ID); err == nil {
				return fmt.Errorf("job %q: %w", spec.ID, store.ErrDuplicateID)
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			cfg, err := st.GetConfig(ctx)
			if err != nil {
				return err
			}

			var timeoutPtr *int
			if timeoutSet {
				timeoutPtr = &timeoutFlag
			}
			j, err := spec.toJob(cfg, priorityFlag, timeoutPtr)
			if err != nil {
				return err
			}

			if err := st.Put(ctx, j); err != nil {
				return fmt.Errorf("enqueue job %q: %w", j.Id, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "enqueued job %s\n", j.Id)
			return nil
		},
	}

	cmd.Flags().StringVar(&priorityFlag, "priority", "", "priority: high, medium, or low")
	cmd.Flags().IntVar(&timeoutFlag, "timeout", 0, "timeout in seconds")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		timeoutSet = cmd.Flags().Changed("timeout")
		return nil
	}
	return cmd
}
