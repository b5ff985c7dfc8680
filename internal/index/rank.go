package index

import (
	"cmp"
	"slices"
)

// rankMatches orders by score descending, then by catalog position so that
// the first inserted entry wins ties, and keeps at most k.
func rankMatches(matches []Match, k int) []Match {
	slices.SortStableFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
