// Package fuzzy scores how well a short query matches a longer label.
//
// Scores are normalized Levenshtein similarities in [0,100]. PartialRatio
// slides the shorter string across the longer one and keeps the best window,
// so "zeal" scores 100 against "[Protoss/Zealot] attack".
package fuzzy

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Scored is a ranked choice returned by Extract.
type Scored struct {
	Index  int
	Choice string
	Score  float64
}

// Ratio returns the normalized edit-distance similarity of a and b.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	return ratioRunes(ra, rb)
}

// PartialRatio returns the best Ratio between the shorter input and any
// equally long window of the longer input, including the partial windows
// hanging off either edge. Comparison is case-insensitive and ignores
// surrounding whitespace. Either side empty scores 0.
func PartialRatio(a, b string) float64 {
	ra := []rune(strings.ToLower(strings.TrimSpace(a)))
	rb := []rune(strings.ToLower(strings.TrimSpace(b)))
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	short, long := ra, rb
	if len(short) > len(long) {
		short, long = long, short
	}

	best := 0.0
	for start := -(len(short) - 1); start < len(long); start++ {
		lo := max(start, 0)
		hi := min(start+len(short), len(long))
		score := ratioRunes(short, long[lo:hi])
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// Extract scores every choice against query with PartialRatio and returns the
// top limit results, best first. Equal scores keep their input order. A
// non-positive limit returns every choice.
func Extract(query string, choices []string, limit int) []Scored {
	scored := make([]Scored, len(choices))
	for i, choice := range choices {
		scored[i] = Scored{Index: i, Choice: choice, Score: PartialRatio(query, choice)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func ratioRunes(a, b []rune) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(string(a), string(b))
	return 100 * (1 - float64(dist)/float64(longest))
}
