package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/job"
)

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func newClearCmd(g *globals) *cobra.Command {
	var stateFlag string
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete jobs, optionally filtered by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var status job.Status
			if stateFlag != "" {
				s, err := job.ParseStatus(stateFlag)
				if err != nil {
					return err
				}
				status = s
			}

			if !assumeYes {
				prompt := "Delete all jobs?"
				if stateFlag != "" {
					prompt = fmt.Sprintf("Delete all %s jobs?", stateFlag)
				}
				ok, err := confirm(cmd, prompt)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			ctx := cmd.Context()
			st, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var toDelete []*job.Job
			if stateFlag != "" {
				toDelete, err = st.ListByState(ctx, status)
			} else {
				toDelete, err = st.ListAll(ctx)
			}
			if err != nil {
				return err
			}

			for _, j := range toDelete {
				if err := st.Delete(ctx, j.Id); err != nil {
					return fmt.Errorf("delete job %q: %w", j.Id, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d job(s)\n", len(toDelete))
			return nil
		},
	}

	cmd.Flags().StringVar(&stateFlag, "state", "", "only delete jobs in this state")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
