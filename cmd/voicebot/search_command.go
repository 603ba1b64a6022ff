package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicebot/internal/search"
)

type searchHit struct {
	Identifier string  `json:"identifier"`
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Cached     bool    `json:"cached"`
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var cachedOnly bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank clips against a query the way inline queries are ranked",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.openLibrary(nil)
			if err != nil {
				return err
			}
			defer lib.Close()

			query := strings.Join(args, " ")
			handles := lib.Handles()
			hits := make([]searchHit, 0)
			for _, match := range lib.Index().Search(query, limit) {
				cached := handles.Has(match.Identifier)
				if cachedOnly && !cached {
					continue
				}
				hits = append(hits, searchHit{
					Identifier: match.Identifier,
					Label:      match.Label,
					Score:      match.Score,
					Cached:     cached,
				})
			}

			if jsonOut {
				return writeJSON(cmd, hits)
			}
			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintf(out, "No clips match %q\n", query)
				return nil
			}
			rows := make([][]string, 0, len(hits))
			for _, hit := range hits {
				rows = append(rows, []string{formatScore(hit.Score), yesNo(hit.Cached), hit.Label, hit.Identifier})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Score", "Cached", "Label", "Identifier"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", search.DefaultLimit, "Ranking window before the score floor applies")
	cmd.Flags().BoolVar(&cachedOnly, "cached", false, "Only show clips that inline queries can return")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
