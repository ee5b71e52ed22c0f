// Package ranking scores items cheaply by title keywords and orders
// batches by importance. The heuristic score is the admission filter that
// decides which items are worth the expensive deep-analysis call.
package ranking

import (
	"strings"

	"github.com/newswatch/newswatch/internal/feeds"
)

// baseScore is the starting score before any keyword match.
const baseScore = 4.0

// criticalKeywords are events worth immediate attention (weight 8.0-9.5).
var criticalKeywords = map[string]float64{
	"killing": 9.5, "killed": 9.5, "murder": 9.5, "massacre": 9.5, "dead": 9.0,
	"attack": 9.0, "bombing": 9.5, "explosion": 9.0, "terror": 9.5,
	"war": 9.0, "invasion": 9.5, "military": 8.5, "soldiers": 8.0,
	"crisis": 9.0, "emergency": 9.0, "disaster": 9.0, "catastrophe": 9.5,
	"breaking": 9.5, "urgent": 9.0, "live": 8.5, "developing": 8.0,
	"hundreds": 9.0, "dozens": 8.5, "thousands": 9.5, "mass": 9.0,
	"vehicle drives": 9.0, "crowd": 8.5, "injured": 8.0, "wounded": 8.0,
}

// highPriorityKeywords cover geopolitics and national politics (7.0-8.5).
var highPriorityKeywords = map[string]float64{
	"ukraine": 8.0, "russia": 8.0, "putin": 8.0, "russian": 8.0,
	"china": 7.5, "chinese": 7.5, "taiwan": 8.0, "beijing": 7.5,
	"israel": 8.0, "gaza": 8.5, "palestine": 8.0, "hamas": 8.0,
	"iran": 7.5, "syria": 8.0, "syrian": 8.0, "middle east": 8.0,
	"trump": 7.5, "biden": 7.0, "president": 7.0, "administration": 7.0,
	"government": 7.0, "parliament": 7.0, "minister": 7.0,
	"election": 7.5, "vote": 7.0, "democracy": 7.5,
	"spy": 8.0, "spies": 8.0, "intelligence": 7.5, "cyber": 7.5,
	"sudan": 8.5, "sudanese": 8.5, "rsf": 8.5, "paramilitary": 8.5,
	"malaria": 8.0, "epidemic": 8.5, "disease": 7.5, "health": 7.0,
	"children": 8.0, "vaccination": 7.5, "medical": 7.0,
	"zimbabwe": 7.5, "africa": 7.0, "african": 7.0,
	"brazil": 7.5, "brazilian": 7.5, "environment": 7.5,
	"climate": 7.0, "devastation": 8.0, "destruction": 8.0,
}

// mediumPriorityKeywords cover economy, law, weather (5.0-7.0).
var mediumPriorityKeywords = map[string]float64{
	"economy": 6.5, "economic": 6.5, "market": 6.0, "business": 6.0,
	"trade": 6.0, "tariff": 6.5, "oil": 6.5, "gas": 6.5,
	"technology": 5.5, "tech": 5.5, "ai": 6.0, "artificial": 6.0,
	"court": 6.5, "legal": 6.0, "law": 6.0, "police": 7.0,
	"weather": 6.0, "storm": 7.0, "flood": 7.5, "drought": 7.0,
	"company": 5.5, "corporation": 5.5, "industry": 5.5,
}

// localIndicators mark local/regional stories (penalty -1.5).
var localIndicators = []string{
	"local", "county", "village", "town", "city council", "festival", "sport", "beach",
}

// lifestyleIndicators mark low-priority lifestyle topics (penalty -2.0).
var lifestyleIndicators = []string{
	"holiday", "vacation", "celebrity", "entertainment", "fashion", "lifestyle",
}

// HeuristicScore assigns a 1-10 importance score from title keywords,
// source reputation, and topic penalties. Deterministic, no I/O.
//
// Matched keyword weights are combined with MAX, not a sum, so keyword
// stuffing cannot inflate a title past its strongest signal. Source bonus
// and topic penalties are additive on top of that and stack.
func HeuristicScore(item *feeds.Item) float64 {
	title := strings.ToLower(item.Title)
	score := baseScore

	for _, tier := range []map[string]float64{criticalKeywords, highPriorityKeywords, mediumPriorityKeywords} {
		for keyword, weight := range tier {
			if strings.Contains(title, keyword) && weight > score {
				score = weight
			}
		}
	}

	switch {
	case strings.Contains(item.Source, "Reuters") || strings.Contains(item.Source, "BBC"):
		score += 0.5
	case strings.Contains(item.Source, "Guardian") || strings.Contains(item.Source, "CNN"):
		score += 0.3
	}

	if containsAny(title, localIndicators) {
		score -= 1.5
	}
	if containsAny(title, lifestyleIndicators) {
		score -= 2.0
	}

	return clamp(score, 1.0, 10.0)
}

// ScoreAll scores every item in place and returns the batch.
func ScoreAll(items []feeds.Item) []feeds.Item {
	for i := range items {
		items[i].HeuristicScore = HeuristicScore(&items[i])
		items[i].Rationale = "Schnelle Titel-Analyse"
	}
	return items
}

func containsAny(text string, indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
