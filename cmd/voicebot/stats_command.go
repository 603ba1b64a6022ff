package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicebot/internal/catalog"
	"voicebot/internal/library"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show clip and handle counts per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.openLibrary(nil)
			if err != nil {
				return err
			}
			defer lib.Close()

			stats := lib.Stats()
			if jsonOut {
				return writeJSON(cmd, statsJSON(stats))
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Library", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Audio root", statusInfo, lib.Catalog().Root(), colorize))
			fmt.Fprintln(out, renderStatusLine("Clips", statusInfo, fmt.Sprintf("%d", stats.Clips), colorize))
			fmt.Fprintln(out, renderStatusLine("Cached", coverageKind(stats.Cached, stats.Clips),
				fmt.Sprintf("%d of %d", stats.Cached, stats.Clips), colorize))
			if stale := stats.Handles - stats.Cached; stale > 0 {
				fmt.Fprintln(out, renderStatusLine("Stale handles", statusWarn, fmt.Sprintf("%d", stale), colorize))
			}
			if len(stats.Categories) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			rows := make([][]string, 0, len(stats.Categories))
			for _, cs := range stats.Categories {
				rows = append(rows, []string{catalog.Title(cs.Name), fmt.Sprintf("%d", cs.Total), fmt.Sprintf("%d", cs.Cached)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Category", "Clips", "Cached"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

type categoryJSON struct {
	Name   string `json:"name"`
	Clips  int    `json:"clips"`
	Cached int    `json:"cached"`
}

type libraryStatsJSON struct {
	Clips      int            `json:"clips"`
	Handles    int            `json:"handles"`
	Cached     int            `json:"cached"`
	Categories []categoryJSON `json:"categories"`
}

func statsJSON(stats library.Stats) libraryStatsJSON {
	out := libraryStatsJSON{
		Clips:      stats.Clips,
		Handles:    stats.Handles,
		Cached:     stats.Cached,
		Categories: make([]categoryJSON, 0, len(stats.Categories)),
	}
	for _, cs := range stats.Categories {
		out.Categories = append(out.Categories, categoryJSON{Name: cs.Name, Clips: cs.Total, Cached: cs.Cached})
	}
	return out
}
