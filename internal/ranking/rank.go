package ranking

import (
	"sort"

	"github.com/newswatch/newswatch/internal/feeds"
)

// HeuristicOnlyRationale marks items that never entered deep analysis.
const HeuristicOnlyRationale = "Nur Titel-Analyse (nicht in Top 10)"

// Select sorts items by heuristic score descending (stable, so ties keep
// source order) and splits off the top k for deep analysis. The two
// returned slices partition the input: no loss, no duplication.
func Select(items []feeds.Item, k int) (topK, rest []feeds.Item) {
	sorted := make([]feeds.Item, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].HeuristicScore > sorted[j].HeuristicScore
	})

	if k > len(sorted) {
		k = len(sorted)
	}
	if k < 0 {
		k = 0
	}
	return sorted[:k], sorted[k:]
}

// Merge recombines the deep-analyzed top slice with the heuristic-only
// remainder and re-sorts the full batch by effective score descending
// (stable). Remainder items are tagged so downstream consumers know the
// score is heuristic-only.
func Merge(topK, rest []feeds.Item) []feeds.Item {
	merged := make([]feeds.Item, 0, len(topK)+len(rest))
	merged = append(merged, topK...)

	for _, item := range rest {
		item.Rationale = HeuristicOnlyRationale
		merged = append(merged, item)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].EffectiveScore() > merged[j].EffectiveScore()
	})

	return merged
}
