package assessment

import "sort"

// Rank orders categories by descending score. Equal scores keep declared table
// order, so the tie-break is a property of the table and not of map iteration.
func Rank(scores ScoreSet) []CategoryScore {
	ranked := make([]CategoryScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
