// Package feeds defines the item model and the source abstraction for
// candidate news intake.
package feeds

import (
	"context"
	"time"
)

// Direction is the expected market reaction to a news item.
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// NormalizeDirection maps arbitrary model output onto a known direction.
// Anything unrecognized becomes NEUTRAL.
func NormalizeDirection(s string) Direction {
	switch Direction(s) {
	case DirectionUp, DirectionDown, DirectionNeutral:
		return Direction(s)
	}
	return DirectionNeutral
}

// MarketImpact is the secondary market assessment for a deep-analyzed item.
type MarketImpact struct {
	Score     float64   // 1-10 expected market reaction
	Direction Direction
	Stocks    []string // affected tickers/sectors, may be empty
	Rationale string
}

// Item is one candidate news entry for a scoring cycle.
// Identity for dedupe purposes is title OR link equality.
type Item struct {
	Title       string
	Description string
	Link        string
	Published   time.Time
	Source      string // feed title, e.g. "Reuters"

	// Scoring envelope, filled in by the pipeline stages.
	HeuristicScore float64
	DeepScore      *float64
	Rationale      string
	Impact         *MarketImpact
}

// EffectiveScore is the deep score when present, else the heuristic score.
func (it *Item) EffectiveScore() float64 {
	if it.DeepScore != nil {
		return *it.DeepScore
	}
	return it.HeuristicScore
}

// Source is the interface all feed sources implement
type Source interface {
	// Name returns human-readable source name
	Name() string

	// Fetch retrieves latest items from this source
	Fetch(ctx context.Context) ([]Item, error)
}
