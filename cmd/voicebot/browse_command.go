package main

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"voicebot/internal/catalog"
)

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "browse [category]",
		Short: "List categories, or the clips in one category",
		Long: "Without arguments, list the top-level categories. With a category name, list " +
			"its clips; the name is matched fuzzily, so \"prot\" selects \"protoss\".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.openLibrary(nil)
			if err != nil {
				return err
			}
			defer lib.Close()

			cat := lib.Catalog()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				counts := cat.CategoryCounts()
				if jsonOut {
					return writeJSON(cmd, counts)
				}
				rows := make([][]string, 0, len(counts))
				for _, name := range cat.Categories() {
					rows = append(rows, []string{name, catalog.Title(name), fmt.Sprintf("%d", counts[name])})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Category", "Title", "Clips"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				return nil
			}

			category, err := resolveCategory(args[0], cat.Categories())
			if err != nil {
				return err
			}
			handles := lib.Handles()
			entries := cat.InCategory(category)
			hits := make([]searchHit, 0, len(entries))
			for _, entry := range entries {
				hits = append(hits, searchHit{
					Identifier: entry.Identifier,
					Label:      entry.Label,
					Cached:     handles.Has(entry.Identifier),
				})
			}
			if jsonOut {
				return writeJSON(cmd, hits)
			}

			fmt.Fprintf(out, "Category: %s (%d clips)\n", category, len(hits))
			rows := make([][]string, 0, len(hits))
			for _, hit := range hits {
				rows = append(rows, []string{hit.Label, yesNo(hit.Cached), hit.Identifier})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Label", "Cached", "Identifier"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// resolveCategory prefers an exact (case-insensitive) name and otherwise
// takes the best fuzzy match.
func resolveCategory(query string, categories []string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("category name is required")
	}
	for _, name := range categories {
		if strings.EqualFold(name, query) {
			return name, nil
		}
	}
	matches := fuzzy.Find(query, categories)
	if len(matches) == 0 {
		return "", fmt.Errorf("no category matches %q (available: %s)", query, strings.Join(categories, ", "))
	}
	return matches[0].Str, nil
}
