package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type runJSON struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	Total      int       `json:"total"`
	Pending    int       `json:"pending"`
	Uploaded   int       `json:"uploaded"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
	Retries    int       `json:"retries"`
	Error      string    `json:"error,omitempty"`
	Failed     []string  `json:"failed,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent acquisition runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.openLibrary(nil)
			if err != nil {
				return err
			}
			defer lib.Close()

			runs, err := lib.Runs().List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			if jsonOut {
				items := make([]runJSON, 0, len(runs))
				for _, run := range runs {
					items = append(items, runJSON{
						ID:         run.ID,
						Source:     run.Source,
						Status:     run.Status,
						Total:      run.Total,
						Pending:    run.Pending,
						Uploaded:   run.Uploaded,
						Skipped:    run.Skipped,
						Errors:     run.Errors,
						Retries:    run.Retries,
						Error:      run.Error,
						Failed:     run.Failed,
						StartedAt:  run.StartedAt,
						FinishedAt: run.FinishedAt,
					})
				}
				return writeJSON(cmd, items)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No acquisition runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					formatTimestamp(run.StartedAt),
					run.Source,
					run.Status,
					fmt.Sprintf("%d", run.Uploaded),
					fmt.Sprintf("%d", run.Skipped),
					fmt.Sprintf("%d", run.Errors),
					formatDuration(run.Duration()),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Source", "Status", "Uploaded", "Skipped", "Errors", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
