// Package search ranks catalog entries against inline queries.
package search

import (
	"strings"

	"voicebot/internal/catalog"
	"voicebot/internal/fuzzy"
)

const (
	// DefaultLimit bounds the ranking window before the score floor applies.
	DefaultLimit = 50
	// MinScore is the exclusive score floor for returned matches.
	MinScore = 30.0
)

// Match is a ranked catalog entry.
type Match struct {
	Identifier string
	Label      string
	Score      float64
}

// Index is a read-only fuzzy index over catalog labels.
type Index struct {
	entries  []catalog.Entry
	labels   []string
	minScore float64
}

// NewIndex builds an index over entries. The slice is copied.
func NewIndex(entries []catalog.Entry) *Index {
	idx := &Index{
		entries:  make([]catalog.Entry, len(entries)),
		labels:   make([]string, len(entries)),
		minScore: MinScore,
	}
	copy(idx.entries, entries)
	for i, entry := range entries {
		idx.labels[i] = entry.Label
	}
	return idx
}

// WithMinScore returns a copy of the index using floor as the score floor.
// A floor below MinScore is ignored.
func (i *Index) WithMinScore(floor float64) *Index {
	clone := *i
	clone.minScore = max(floor, MinScore)
	return &clone
}

// Len reports the number of indexed entries.
func (i *Index) Len() int { return len(i.entries) }

// Search ranks every label against query, keeps the best limit candidates and
// then drops those scoring at or below the floor. The floor is applied after
// truncation, so fewer than limit matches may be returned even when more
// entries would clear it. A blank query returns nothing.
func (i *Index) Search(query string, limit int) []Match {
	if strings.TrimSpace(query) == "" || len(i.entries) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked := fuzzy.Extract(query, i.labels, limit)
	matches := make([]Match, 0, len(ranked))
	for _, r := range ranked {
		if r.Score <= i.minScore {
			continue
		}
		entry := i.entries[r.Index]
		matches = append(matches, Match{
			Identifier: entry.Identifier,
			Label:      entry.Label,
			Score:      r.Score,
		})
	}
	return matches
}
