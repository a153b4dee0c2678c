package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/job"
)

// timestampLayout is the fixed ISO-8601 UTC layout queuectl prints on
// every JSON boundary: microsecond precision with a trailing Z.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// jobJSON is the wire shape "get" emits: every Job field with the
// fixed timestamp layout.
type jobJSON struct {
	ID           string  `json:"id"`
	Command      string  `json:"command"`
	State        string  `json:"state"`
	Attempts     int     `json:"attempts"`
	MaxRetries   int     `json:"max_retries"`
	Timeout      *int    `json:"timeout"`
	Priority     int     `json:"priority"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	NextRetryAt  *string `json:"next_retry_at"`
	ErrorMessage *string `json:"error_message"`
	LockedBy     *string `json:"locked_by"`
	LockedAt     *string `json:"locked_at"`
}

func jobToJSON(j *job.Job) jobJSON {
	out := jobJSON{
		ID:           j.Id,
		Command:      j.Command,
		State:        j.Status.String(),
		Attempts:     j.Attempts,
		MaxRetries:   j.MaxRetries,
		Priority:     int(j.Priority),
		CreatedAt:    j.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:    j.UpdatedAt.UTC().Format(timestampLayout),
		ErrorMessage: j.ErrorMessage,
		LockedBy:     j.LockedBy,
	}
	if j.Timeout != nil {
		secs := int(j.Timeout.Seconds())
		out.Timeout = &secs
	}
	if j.NextRetryAt != nil {
		s := j.NextRetryAt.UTC().Format(timestampLayout)
		out.NextRetryAt = &s
	}
	if j.LockedAt != nil {
		s := j.LockedAt.UTC().Format(timestampLayout)
		out.LockedAt = &s
	}
	return out
}

func newGetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get JOB_ID",
		Short: "Print one job as JSON",
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

			b, err := json.MarshalIndent(jobToJSON(j), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
