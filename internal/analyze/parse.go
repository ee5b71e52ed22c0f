package analyze

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/newswatch/newswatch/internal/feeds"
)

// Fallback values when the response doesn't match the expected format.
// The parser never propagates a format error; it returns these plus a
// diagnostic rationale instead.
const (
	defaultRelevanceScore = 5.0
	defaultImpactScore    = 1.0

	noReasoningAvailable      = "Keine Begründung verfügbar"
	noImpactAnalysisAvailable = "Keine Aktienanalyse verfügbar"
)

// numberRe matches the first numeric token in a score line.
var numberRe = regexp.MustCompile(`\d+\.?\d*`)

// parseRelevance extracts score and rationale from a reasoning-service
// response of the form "Score: <num>\nBegründung: <text>". Missing or
// malformed fields yield the documented defaults, never an error.
func parseRelevance(response string) (float64, string) {
	score := defaultRelevanceScore
	reasoning := noReasoningAvailable

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Score:"):
			if n, ok := firstNumber(strings.TrimPrefix(line, "Score:")); ok {
				score = clamp(n, 1.0, 10.0)
			}
		case strings.HasPrefix(line, "Begründung:"):
			reasoning = strings.TrimSpace(strings.TrimPrefix(line, "Begründung:"))
		case strings.HasPrefix(line, "Reasoning:"):
			reasoning = strings.TrimSpace(strings.TrimPrefix(line, "Reasoning:"))
		}
	}

	return score, reasoning
}

// parseImpact extracts the market assessment from a response of the form
// "StockScore: ...\nDirection: ...\nStocks: ...\nStockReasoning: ...".
// Best-effort: every field falls back independently.
func parseImpact(response string) feeds.MarketImpact {
	impact := feeds.MarketImpact{
		Score:     defaultImpactScore,
		Direction: feeds.DirectionNeutral,
		Rationale: noImpactAnalysisAvailable,
	}

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "StockScore:"):
			if n, ok := firstNumber(strings.TrimPrefix(line, "StockScore:")); ok {
				impact.Score = clamp(n, 1.0, 10.0)
			}
		case strings.HasPrefix(line, "Direction:"):
			raw := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, "Direction:")))
			impact.Direction = feeds.NormalizeDirection(raw)
		case strings.HasPrefix(line, "Stocks:"):
			impact.Stocks = parseStockList(strings.TrimSpace(strings.TrimPrefix(line, "Stocks:")))
		case strings.HasPrefix(line, "StockReasoning:"):
			impact.Rationale = strings.TrimSpace(strings.TrimPrefix(line, "StockReasoning:"))
		}
	}

	return impact
}

// parseStockList splits a comma-separated entity list. The literal
// tokens "None" and "-" mean no entities.
func parseStockList(s string) []string {
	if s == "" || s == "None" || s == "-" {
		return nil
	}

	var stocks []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			stocks = append(stocks, part)
		}
	}
	return stocks
}

func firstNumber(s string) (float64, bool) {
	match := numberRe.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return n, true
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
